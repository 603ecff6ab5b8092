package memory

import (
	"context"
	"strings"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación en memoria de UserRepository.
type UserRepo struct {
	s *Store
	j *journal
}

// Create persiste un operador; el email es único (sin distinguir mayúsculas).
func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == user.ID || strings.EqualFold(u.Email, user.Email) {
			return domain.ErrDuplicate
		}
	}
	r.s.users[user.ID] = *user
	id := user.ID
	r.j.record(func() { delete(r.s.users, id) })
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// GetByEmail devuelve (nil, nil) si no existe.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}
