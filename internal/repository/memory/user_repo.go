// Package memory holds mutex-guarded repositories used with DB_DSN=memory
// and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"invoice-system/internal/domain/user"
)

type UserRepo struct {
	mu     sync.RWMutex
	users  map[int64]*user.User
	byMail map[string]int64
	nextID int64
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users:  make(map[int64]*user.User),
		byMail: make(map[string]int64),
		nextID: 1,
	}
}

func (r *UserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byMail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	u.ID = r.nextID
	r.nextID++
	u.CreatedAt = time.Now().UTC()

	stored := *u
	r.users[u.ID] = &stored
	r.byMail[u.Email] = u.ID
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byMail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	u := *r.users[id]
	return &u, nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u := *stored
	return &u, nil
}

func (r *UserRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *UserRepo) ExistsWithRole(_ context.Context, role string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

// SetStatus changes a user's status. There is no API for it; tests and
// operators use it directly.
func (r *UserRepo) SetStatus(id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Status = status
	return nil
}
