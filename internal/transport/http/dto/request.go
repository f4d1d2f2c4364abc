package dto

import (
	"time"

	"github.com/baechuer/wholesale-catalog/internal/application/auth"
	"github.com/baechuer/wholesale-catalog/internal/application/badges"
	"github.com/baechuer/wholesale-catalog/internal/application/ranking"
	"github.com/baechuer/wholesale-catalog/internal/application/settings"
	"github.com/baechuer/wholesale-catalog/internal/application/tracking"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type RecordInteractionReq struct {
	Type       string         `json:"type" validate:"required"`
	SessionID  string         `json:"sessionId" validate:"required,max=128"`
	ProductID  *string        `json:"productId,omitempty"`
	Brand      *string        `json:"brand,omitempty"`
	SearchTerm *string        `json:"searchTerm,omitempty" validate:"omitempty,max=256"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  *time.Time     `json:"timestamp,omitempty"`
}

func (r RecordInteractionReq) ToCmd() tracking.RecordCmd {
	return tracking.RecordCmd{
		Type:       r.Type,
		SessionID:  r.SessionID,
		ProductID:  r.ProductID,
		Brand:      r.Brand,
		SearchTerm: r.SearchTerm,
		Metadata:   r.Metadata,
		Timestamp:  r.Timestamp,
	}
}

type AdminScoreReq struct {
	ProductID string `json:"productId" validate:"required"`
	Score     *int   `json:"score" validate:"required"`
}

func (r AdminScoreReq) ToCmd(actor string) ranking.SetAdminScoreCmd {
	return ranking.SetAdminScoreCmd{ProductID: r.ProductID, Score: *r.Score, Actor: actor}
}

// AddProductReq accepts the legacy initialScore as an alias for seedAdminScore.
type AddProductReq struct {
	ProductID         string   `json:"productId" validate:"required"`
	ProductName       string   `json:"productName" validate:"required"`
	Brand             string   `json:"brand"`
	SeedTrendingScore *float64 `json:"seedTrendingScore,omitempty"`
	SeedAdminScore    *int     `json:"seedAdminScore,omitempty"`
	InitialScore      *int     `json:"initialScore,omitempty"`
}

func (r AddProductReq) ToCmd(actor string) ranking.AddProductCmd {
	cmd := ranking.AddProductCmd{
		ProductID: r.ProductID,
		Name:      r.ProductName,
		Brand:     r.Brand,
		Actor:     actor,
	}
	if r.SeedTrendingScore != nil {
		cmd.SeedTrendingScore = *r.SeedTrendingScore
	}
	switch {
	case r.SeedAdminScore != nil:
		cmd.SeedAdminScore = *r.SeedAdminScore
	case r.InitialScore != nil:
		cmd.SeedAdminScore = *r.InitialScore
	}
	return cmd
}

type AssignBadgeReq struct {
	ProductID     string `json:"productId" validate:"required"`
	Position      int    `json:"position" validate:"required"`
	DurationHours int    `json:"durationHours" validate:"required"`
}

func (r AssignBadgeReq) ToCmd(actor string) badges.AssignCmd {
	return badges.AssignCmd{
		ProductID:     r.ProductID,
		Position:      r.Position,
		DurationHours: r.DurationHours,
		Actor:         actor,
	}
}

type LoginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin staff"`
}

func (r CreateUserReq) ToCmd(actor string) auth.CreateUserCmd {
	return auth.CreateUserCmd{Username: r.Username, Password: r.Password, Role: r.Role, Actor: actor}
}

type UpdateSettingsReq struct {
	RetentionDays   *int    `json:"retentionDays,omitempty"`
	BackupFrequency *string `json:"backupFrequency,omitempty"`
}

func (r UpdateSettingsReq) ToPatch() settings.Patch {
	p := settings.Patch{RetentionDays: r.RetentionDays}
	if r.BackupFrequency != nil {
		f := domain.BackupFrequency(*r.BackupFrequency)
		p.BackupFrequency = &f
	}
	return p
}

type RestoreBackupReq struct {
	Key string `json:"key" validate:"required"`
}
