package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"invoice-system/internal/domain/user"
	jwtpkg "invoice-system/internal/platform/jwt"
	"invoice-system/internal/platform/validate"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUserNotFound       = errors.New("user not found")
)

type Tokens interface {
	Generate(userID int64, ttl time.Duration) (string, error)
	Parse(token string) (*jwtpkg.Claims, error)
}

// RegisterInput caps the password at the bcrypt input limit.
type RegisterInput struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,max=200"`
	Password   string `json:"password" validate:"required,maxbytes=72"`
	Role       string `json:"role" validate:"omitempty,oneof=user admin super-admin"`
	Department string `json:"department" validate:"max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	users  *user.Store
	tokens Tokens
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewService(users *user.Store, tokens Tokens, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, ttl: ttl, logger: logger, now: time.Now}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, user.NewUser{
		Name:       in.Name,
		Email:      in.Email,
		Password:   in.Password,
		Role:       in.Role,
		Department: in.Department,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

// Login returns ErrInvalidCredentials for both an unknown email and a wrong
// password.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, *user.User, error) {
	if err := validate.Struct(in); err != nil {
		return "", nil, err
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.users.VerifyMissing(in.Password)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !s.users.Verify(u, in.Password) {
		return "", nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return "", nil, ErrAccountInactive
	}

	at := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, at); err != nil {
		return "", nil, err
	}
	u.LastLogin = &at

	token, err := s.tokens.Generate(u.ID, s.ttl)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *Service) CurrentUser(ctx context.Context, token string) (*user.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !u.IsActive() {
		return nil, ErrAccountInactive
	}
	return u, nil
}

// Logout never fails. Tokens are stateless, so the client discarding the
// token is the whole effect.
func (s *Service) Logout(_ context.Context, token string) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Debug("logout with unusable token", zap.Error(err))
		return
	}
	s.logger.Info("user logged out", zap.Int64("user_id", claims.UserID))
}

// EnsureSuperAdmin creates the configured super-admin unless one exists.
// It does nothing when no credentials are configured.
func (s *Service) EnsureSuperAdmin(ctx context.Context, name, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.logger.Info("super-admin seed skipped, no credentials configured")
		return nil
	}

	exists, err := s.users.ExistsWithRole(ctx, user.RoleSuperAdmin)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	u, err := s.users.Create(ctx, user.NewUser{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     user.RoleSuperAdmin,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		s.logger.Warn("super-admin seed skipped, email already registered", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("super-admin created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
