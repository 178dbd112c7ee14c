package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/anteyko-labs/sushi-flutter/internal/cart"
	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

func newService(t *testing.T) (*Service, *cart.InMemoryRepository) {
	t.Helper()
	carts := cart.NewInMemoryRepository()
	return NewService(NewInMemoryUserRepository(), cartCreator{carts}), carts
}

type cartCreator struct {
	repo *cart.InMemoryRepository
}

func (c cartCreator) CreateFor(ctx context.Context, userID string) error {
	return c.repo.Create(ctx, userID)
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, _ := newService(t)

	user, err := svc.Register(context.Background(), "Айгуль", "aigul@example.com", "+996700112233", "secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
	assert.Equal(t, RoleUser, user.Role)
}

func TestRegisterCreatesEmptyCart(t *testing.T) {
	svc, carts := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Айгуль", "aigul@example.com", "", "secret123")
	require.NoError(t, err)

	stored, err := carts.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Айгуль", "aigul@example.com", "", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Бакыт", "aigul@example.com", "", "another")
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRegisterMissingFields(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), "", "aigul@example.com", "", "secret123")
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc, _ := newService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Айгуль", "aigul@example.com", "", "secret123")
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "aigul@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	require.NotEmpty(t, token)

	userID, email, role, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)
	assert.Equal(t, "aigul@example.com", email)
	assert.Equal(t, RoleUser, role)
}

func TestAdminTokenCarriesAdminFlag(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("user-1", "admin@example.com", RoleAdmin)
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, true, claims["is_admin"])
	assert.Equal(t, RoleAdmin, claims["role"])
}

func TestValidateTokenAcceptsLegacyAdminClaim(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	// shape issued by the previous backend: is_admin, no role
	legacy := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID":   "user-1",
		"email":    "admin@example.com",
		"is_admin": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	token, err := legacy.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	userID, email, role, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "admin@example.com", email)
	assert.Equal(t, RoleAdmin, role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Айгуль", "aigul@example.com", "", "secret123")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "aigul@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newService(t)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
