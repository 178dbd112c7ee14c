package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

type InMemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*User // keyed by email
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[string]*User)}
}

func (r *InMemoryUserRepository) Save(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	user.CreatedAt = time.Now().UTC()
	cp := *user
	r.users[user.Email] = &cp
	return nil
}

func (r *InMemoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return nil, core.NotFound("user", email)
	}
	cp := *user
	return &cp, nil
}

func (r *InMemoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, core.NotFound("user", id)
}

func (r *InMemoryUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.users[email]
	return exists, nil
}
