package auth

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type Config struct {
	AccessTTL time.Duration
}

type Service struct {
	users  UserRepo
	hasher PasswordHasher
	signer TokenSigner
	cfg    Config
	audit  func(action string, fields map[string]string)
}

func NewService(users UserRepo, hasher PasswordHasher, signer TokenSigner, cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 12 * time.Hour
	}
	return &Service{
		users:  users,
		hasher: hasher,
		signer: signer,
		cfg:    cfg,
		audit:  logAudit,
	}
}

func logAudit(action string, fields map[string]string) {
	ev := zlog.Info().Bool("audit", true).Str("action", action)
	for k, v := range fields {
		ev = ev.Str(k, v)
	}
	ev.Msg("audit")
}

// WithAudit installs a sink for security-relevant actions.
func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// VerifyCredentials returns the identity for a valid pair, or ErrInvalidCredentials.
// An unknown user and a wrong password are indistinguishable to the caller.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (domain.Identity, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials()
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return domain.Identity{}, domain.ErrInvalidCredentials()
		}
		return domain.Identity{}, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return domain.Identity{}, domain.ErrInvalidCredentials()
	}

	return domain.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      domain.Identity `json:"user"`
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	id, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		s.audit("auth.login_failed", map[string]string{"username": normalizeUsername(username)})
		return LoginResult{}, err
	}

	tok, err := s.signer.SignAccessToken(id.UserID, id.Username, id.Role, s.cfg.AccessTTL)
	if err != nil {
		return LoginResult{}, err
	}

	s.audit("auth.login", map[string]string{"user_id": id.UserID, "username": id.Username})
	return LoginResult{
		Token:     tok,
		ExpiresAt: time.Now().Add(s.cfg.AccessTTL).UTC(),
		User:      id,
	}, nil
}

type CreateUserCmd struct {
	Username string
	Password string
	Role     string
	Actor    string
}

func (s *Service) CreateUser(ctx context.Context, cmd CreateUserCmd) (domain.Identity, error) {
	username := normalizeUsername(cmd.Username)
	if username == "" {
		return domain.Identity{}, domain.ErrMissingField("username")
	}
	if n := utf8.RuneCountInString(username); n < 3 || n > 64 {
		return domain.Identity{}, domain.ErrInvalidField("username", "must be 3-64 characters")
	}
	if cmd.Password == "" {
		return domain.Identity{}, domain.ErrMissingField("password")
	}
	if utf8.RuneCountInString(cmd.Password) < 8 {
		return domain.Identity{}, domain.ErrWeakPassword("must be at least 8 characters")
	}
	role := cmd.Role
	if role == "" {
		role = string(domain.RoleAdmin)
	}
	if !domain.IsValidRole(role) {
		return domain.Identity{}, domain.ErrInvalidField("role", "unknown role")
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return domain.Identity{}, err
	}

	u, err := s.users.Create(ctx, domain.AdminUser{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return domain.Identity{}, err
	}

	s.audit("auth.user_created", map[string]string{"actor": cmd.Actor, "user_id": u.ID, "username": u.Username, "role": u.Role})
	return domain.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.Identity, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Identity, 0, len(users))
	for _, u := range users {
		out = append(out, domain.Identity{UserID: u.ID, Username: u.Username, Role: u.Role})
	}
	return out, nil
}

// SeedAdmin creates the bootstrap admin unless the username already exists.
func (s *Service) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.CreateUser(ctx, CreateUserCmd{Username: username, Password: password, Role: string(domain.RoleAdmin), Actor: "seed"})
	if err != nil {
		if domain.Is(err, "username_taken") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// VerifyAccessToken is used by the auth middleware.
func (s *Service) VerifyAccessToken(token string) (TokenClaims, error) {
	return s.signer.VerifyAccessToken(token)
}
