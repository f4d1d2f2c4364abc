package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

const serviceName = "wholesale-catalog"

var Logger zerolog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter reads LOG_LEVEL and LOG_FORMAT ("json" or "console") and
// installs the result as the global zerolog logger.
func InitWithWriter(w io.Writer) {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = w
	if os.Getenv("LOG_FORMAT") != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	Logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	zlog.Logger = Logger
}
