package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/wholesale-catalog/internal/application/auth"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type JWTSigner struct {
	secret []byte
	issuer string
}

func NewJWTSigner(secret, issuer string) *JWTSigner {
	return &JWTSigner{
		secret: []byte(secret),
		issuer: issuer,
	}
}

type accessClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) SignAccessToken(userID, username, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := accessClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (s *JWTSigner) VerifyAccessToken(token string) (auth.TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.TokenClaims{}, domain.ErrTokenExpired()
		}
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return auth.TokenClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		Exp:      exp,
	}, nil
}
