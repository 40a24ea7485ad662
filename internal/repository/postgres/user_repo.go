package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"invoice-system/internal/domain/user"
)

const (
	userColumns = `id, name, email, password_hash, role, department, status, created_at, last_login`

	insertUserQuery = `INSERT INTO users (name, email, password_hash, role, department, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`
	userByEmailQuery    = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	userByIDQuery       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	touchLastLoginQuery = `UPDATE users SET last_login = $2 WHERE id = $1`
	roleExistsQuery     = `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`
)

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	err := r.db.QueryRowxContext(ctx, insertUserQuery,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.Department,
		u.Status,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, userByEmailQuery, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, userByIDQuery, id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, touchLastLoginQuery, id, at)
	if err != nil {
		return fmt.Errorf("update last_login: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepo) ExistsWithRole(ctx context.Context, role string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, roleExistsQuery, role); err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return exists, nil
}
