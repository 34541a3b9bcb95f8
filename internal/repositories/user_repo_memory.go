package repositories

import (
	"context"
	"sync"
	"time"

	"grocery/internal/apperrors"
	"grocery/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return apperrors.Conflict("user %s already exists", user.Username)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) find(match func(models.User) bool) (*models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return &u, true
		}
	}
	return nil, false
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := r.find(func(u models.User) bool { return u.Username == username }); ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user with username %s not found", username)
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := r.find(func(u models.User) bool { return u.Email == email }); ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user with email %s not found", email)
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := r.find(func(u models.User) bool { return u.ID == id }); ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user with id %s not found", id)
}
