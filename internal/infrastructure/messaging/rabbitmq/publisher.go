package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "catalog.events"

	// how long to wait for the broker confirm before giving up on this event
	publishWait = 250 * time.Millisecond

	// room for confirms that arrive after their publish timed out; the next
	// publish drains them
	confirmBuffer = 16
)

// Publisher sends domain events to a durable topic exchange with publisher
// confirms. Events nobody is bound to are dropped by the broker.
type Publisher struct {
	url      string
	exchange string

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	p := &Publisher{
		url:      url,
		exchange: exchange,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	p.conn = conn
	p.ch = ch
	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

// PublishEvent publishes one JSON envelope. A closed channel is re-dialled once.
func (p *Publisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	if routingKey == "" {
		return errors.New("missing routingKey")
	}
	if strings.TrimSpace(messageID) == "" {
		return errors.New("missing messageID")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if p.conn != nil {
			_ = p.conn.Close()
		}
		if err := p.connect(); err != nil {
			return err
		}
	}

	tag := p.ch.GetNextPublishSeqNo()
	err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			MessageId:    messageID,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return err
	}
	return awaitConfirm(ctx, p.confirmCh, tag, publishWait)
}

// awaitConfirm waits for the confirm carrying tag. Confirms for earlier tags
// belong to publishes that already timed out and are discarded.
func awaitConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, tag uint64, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case conf, ok := <-confirms:
			if !ok {
				return errors.New("publisher channel closed")
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if conf.DeliveryTag > tag {
				return fmt.Errorf("confirm for tag %d missing, got %d", tag, conf.DeliveryTag)
			}
			if !conf.Ack {
				return errors.New("publish nack")
			}
			return nil
		case <-timer.C:
			return errors.New("publish confirm timeout")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
