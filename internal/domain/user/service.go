package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"invoice-system/internal/platform/validate"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

type NewUser struct {
	Name       string
	Email      string
	Password   string
	Role       string
	Department string
}

// Store keeps user records and verifies passwords against their bcrypt hash.
type Store struct {
	repo      Repository
	cost      int
	dummyHash []byte
}

type StoreOption func(*Store)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) StoreOption {
	return func(s *Store) {
		s.cost = cost
	}
}

func NewStore(repo Repository, opts ...StoreOption) *Store {
	s := &Store{repo: repo, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("invoice-system-dummy"), s.cost)
	return s
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Store) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Store) Create(ctx context.Context, in NewUser) (*User, error) {
	if len(in.Password) > MaxPasswordBytes {
		return nil, &validate.Error{Field: "password", Tag: "maxbytes", Param: strconv.Itoa(MaxPasswordBytes)}
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = RoleUser
	}

	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		Department:   in.Department,
		Status:       StatusActive,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) Verify(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// VerifyMissing spends one bcrypt comparison so a lookup miss takes as long
// as a wrong password.
func (s *Store) VerifyMissing(password string) {
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func (s *Store) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return s.repo.TouchLastLogin(ctx, id, at)
}

func (s *Store) ExistsWithRole(ctx context.Context, role string) (bool, error) {
	return s.repo.ExistsWithRole(ctx, role)
}
