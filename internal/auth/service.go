package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// CartCreator pre-creates the user's cart row on registration.
// Implemented by cart.Service.
type CartCreator interface {
	CreateFor(ctx context.Context, userID string) error
}

type Service struct {
	repo  UserRepository
	carts CartCreator
}

func NewService(repo UserRepository, carts CartCreator) *Service {
	return &Service{repo: repo, carts: carts}
}

func (s *Service) Register(ctx context.Context, name, email, phone, password string) (*User, error) {
	if name == "" || email == "" || password == "" {
		return nil, core.Invalid("name, email and password are required")
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, core.Invalid("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Password: string(hashed),
		Role:     RoleUser,
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	if s.carts != nil {
		if err := s.carts.CreateFor(ctx, user.ID); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("cart pre-creation failed")
		}
	}

	logrus.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}
