package auth

import (
	"context"
	"time"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (domain.AdminUser, error)
	Create(ctx context.Context, u domain.AdminUser) (domain.AdminUser, error)
	List(ctx context.Context) ([]domain.AdminUser, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenClaims struct {
	UserID   string
	Username string
	Role     string
	Exp      time.Time
}

type TokenSigner interface {
	SignAccessToken(userID, username, role string, ttl time.Duration) (string, error)
	VerifyAccessToken(token string) (TokenClaims, error)
}
