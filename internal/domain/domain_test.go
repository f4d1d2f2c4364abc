package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInteractionType_Counter(t *testing.T) {
	cases := map[InteractionType]Counter{
		InteractionProductView:  CounterViews,
		InteractionResultClick:  CounterClicks,
		InteractionSearch:       CounterSearches,
		InteractionPageView:     CounterNone,
		InteractionCategoryView: CounterNone,
	}
	for typ, want := range cases {
		assert.True(t, typ.Valid(), typ)
		assert.Equal(t, want, typ.Counter(), typ)
	}
	assert.False(t, InteractionType("purchase").Valid())
}

func TestInteraction_Counted(t *testing.T) {
	p := "p1"
	empty := ""

	assert.True(t, Interaction{Type: InteractionProductView, ProductID: &p}.Counted())
	assert.False(t, Interaction{Type: InteractionProductView}.Counted())
	assert.False(t, Interaction{Type: InteractionProductView, ProductID: &empty}.Counted())
	assert.False(t, Interaction{Type: InteractionPageView, ProductID: &p}.Counted())
}

func TestErrStorage_KeepsDiagnostics(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := ErrStorage(cause, "42P01", "create the table")

	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, "42P01", err.Meta["db_code"])
	assert.Equal(t, "create the table", err.Meta["hint"])
	assert.True(t, errors.Is(err, cause))

	bare := ErrStorage(cause, "", "")
	assert.Nil(t, bare.Meta)
}

func TestIsAndKindOf(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", ErrProductNotFound("p1"))

	assert.True(t, Is(wrapped, "product_not_found"))
	assert.False(t, Is(wrapped, "badge_not_found"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestOpsSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultOpsSettings().Validate())

	err := OpsSettings{RetentionDays: 0, BackupFrequency: BackupDaily}.Validate()
	assert.True(t, Is(err, "invalid_field"))

	err = OpsSettings{RetentionDays: 7, BackupFrequency: "monthly"}.Validate()
	assert.True(t, Is(err, "invalid_field"))

	assert.Equal(t, "", BackupOff.CronSpec())
	assert.Equal(t, "@weekly", BackupWeekly.CronSpec())
}

func TestFireBadge_LiveAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := FireBadge{IsActive: true, EndTime: now.Add(time.Hour)}

	assert.True(t, b.LiveAt(now))
	assert.False(t, b.LiveAt(now.Add(2*time.Hour)))

	b.IsActive = false
	assert.False(t, b.LiveAt(now))
}

func TestRoleRank(t *testing.T) {
	assert.Greater(t, RoleRank("admin"), RoleRank("staff"))
	assert.Equal(t, 0, RoleRank("guest"))
	assert.False(t, IsValidRole("guest"))
}
