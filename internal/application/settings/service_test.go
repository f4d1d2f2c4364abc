package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type memStore struct {
	cur     domain.OpsSettings
	saves   int
	loadErr error
	saveErr error
}

func (m *memStore) Load(context.Context) (domain.OpsSettings, error) {
	return m.cur, m.loadErr
}

func (m *memStore) Save(_ context.Context, s domain.OpsSettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.cur = s
	return nil
}

func intPtr(i int) *int { return &i }

func freqPtr(f domain.BackupFrequency) *domain.BackupFrequency { return &f }

func TestUpdate_AppliesPatchAndNotifies(t *testing.T) {
	store := &memStore{cur: domain.DefaultOpsSettings()}
	svc := NewService(store)

	var seen []domain.OpsSettings
	svc.OnChange(func(s domain.OpsSettings) { seen = append(seen, s) })

	got, err := svc.Update(context.Background(), Patch{BackupFrequency: freqPtr(domain.BackupHourly)}, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.BackupHourly, got.BackupFrequency)
	assert.Equal(t, 30, got.RetentionDays)
	assert.Equal(t, 1, store.saves)
	require.Len(t, seen, 1)
	assert.Equal(t, got, seen[0])
}

func TestUpdate_NoChangeSkipsSave(t *testing.T) {
	store := &memStore{cur: domain.DefaultOpsSettings()}
	svc := NewService(store)
	called := false
	svc.OnChange(func(domain.OpsSettings) { called = true })

	_, err := svc.Update(context.Background(), Patch{RetentionDays: intPtr(30)}, "admin")
	require.NoError(t, err)
	assert.Zero(t, store.saves)
	assert.False(t, called)
}

func TestUpdate_Validation(t *testing.T) {
	store := &memStore{cur: domain.DefaultOpsSettings()}
	svc := NewService(store)

	_, err := svc.Update(context.Background(), Patch{RetentionDays: intPtr(0)}, "admin")
	assert.True(t, domain.Is(err, "invalid_field"))

	_, err = svc.Update(context.Background(), Patch{BackupFrequency: freqPtr("monthly")}, "admin")
	assert.True(t, domain.Is(err, "invalid_field"))
	assert.Zero(t, store.saves)
}

func TestStoreFailuresAreUnavailable(t *testing.T) {
	store := &memStore{loadErr: errors.New("disk gone")}
	svc := NewService(store)

	_, err := svc.Get(context.Background())
	assert.True(t, domain.Is(err, "settings_unavailable"))

	store.loadErr = nil
	store.cur = domain.DefaultOpsSettings()
	store.saveErr = errors.New("read-only fs")
	_, err = svc.Update(context.Background(), Patch{RetentionDays: intPtr(7)}, "admin")
	assert.Equal(t, domain.KindInfrastructure, domain.KindOf(err))
}
