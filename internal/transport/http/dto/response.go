package dto

import (
	"time"

	"github.com/baechuer/wholesale-catalog/internal/application/auth"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// RankingResp is the storefront ranking body. It is flat rather than wrapped
// in data so existing clients keep reading trending at the top level.
type RankingResp struct {
	Success       bool                   `json:"success"`
	Trending      []domain.RankedProduct `json:"trending"`
	TotalProducts int                    `json:"totalProducts"`
	LastUpdated   time.Time              `json:"lastUpdated"`
}

func ToRankingResp(v domain.RankedView) RankingResp {
	items := v.Trending
	if items == nil {
		items = []domain.RankedProduct{}
	}
	return RankingResp{
		Success:       true,
		Trending:      items,
		TotalProducts: v.TotalProducts,
		LastUpdated:   v.LastUpdated,
	}
}

type LoginResp struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      domain.Identity `json:"user"`
}

func ToLoginResp(r auth.LoginResult) LoginResp {
	return LoginResp{Token: r.Token, ExpiresAt: r.ExpiresAt, User: r.User}
}

type RebuildResp struct {
	Products int64 `json:"products"`
}

type CatalogRefreshResp struct {
	Items int `json:"items"`
}

type RestoreResp struct {
	Key      string    `json:"key"`
	Version  int       `json:"version"`
	Products int       `json:"products"`
	Badges   int       `json:"badges"`
	From     time.Time `json:"createdAt"`
}

func ToRestoreResp(key string, doc domain.BackupDocument) RestoreResp {
	return RestoreResp{
		Key:      key,
		Version:  doc.Version,
		Products: len(doc.Products),
		Badges:   len(doc.Badges),
		From:     doc.CreatedAt,
	}
}
