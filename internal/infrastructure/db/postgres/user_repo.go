package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func scanUser(s rowScanner) (domain.AdminUser, error) {
	var u domain.AdminUser
	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, err
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (domain.AdminUser, error) {
	const q = `
SELECT id, username, password_hash, role, created_at
FROM admin_users
WHERE username = $1
LIMIT 1
`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AdminUser{}, domain.ErrUserNotFound()
		}
		return domain.AdminUser{}, storageErr(err)
	}
	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.AdminUser) (domain.AdminUser, error) {
	if u.ID == "" {
		return domain.AdminUser{}, domain.ErrMissingField("id")
	}
	if u.PasswordHash == "" {
		return domain.AdminUser{}, domain.ErrMissingField("password_hash")
	}

	const q = `
INSERT INTO admin_users (id, username, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, username, password_hash, role, created_at
`
	out, err := scanUser(r.db.QueryRowContext(ctx, q, u.ID, u.Username, u.PasswordHash, u.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AdminUser{}, domain.ErrUsernameTaken()
		}
		return domain.AdminUser{}, storageErr(err)
	}
	return out, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.AdminUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM admin_users ORDER BY username`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []domain.AdminUser
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, u)
	}
	return out, storageErr(rows.Err())
}
