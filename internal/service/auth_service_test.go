package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

type mockUserRepo struct {
	users            map[string]*models.User
	lastLoginUpdated bool
	created          *models.User
}

func (m *mockUserRepo) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	for _, user := range m.users {
		if user.UserName == userName {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "user-new"
	m.created = user
	return nil
}

func testUser(t *testing.T, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "user-1", UserName: "admin", PasswordHash: string(hash), Active: active}
}

func newAuthFixture(t *testing.T, user *models.User) (*AuthService, *mockUserRepo) {
	t.Helper()
	repo := &mockUserRepo{users: map[string]*models.User{}}
	if user != nil {
		repo.users[user.ID] = user
	}
	svc := NewAuthService(repo, nil, nil, AuthConfig{Secret: "test-secret", TokenTTL: time.Hour, Issuer: "test"})
	return svc, repo
}

func TestAuthServiceLogin(t *testing.T) {
	svc, repo := newAuthFixture(t, testUser(t, "hunter22", true))

	result, err := svc.Login(context.Background(), LoginRequest{UserName: "admin", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.UserName)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t, testUser(t, "hunter22", true))

	_, err := svc.Login(context.Background(), LoginRequest{UserName: "admin", Password: "wrong-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc, _ := newAuthFixture(t, nil)

	_, err := svc.Login(context.Background(), LoginRequest{UserName: "ghost", Password: "hunter22"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t, testUser(t, "hunter22", false))

	_, err := svc.Login(context.Background(), LoginRequest{UserName: "admin", Password: "hunter22"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsForgedToken(t *testing.T) {
	user := testUser(t, "hunter22", true)
	forger := NewAuthService(&mockUserRepo{users: map[string]*models.User{"user-1": user}},
		nil, nil, AuthConfig{Secret: "other-secret", TokenTTL: time.Hour})
	result, err := forger.Login(context.Background(), LoginRequest{UserName: "admin", Password: "hunter22"})
	require.NoError(t, err)

	svc, _ := newAuthFixture(t, user)
	_, err = svc.ValidateToken(result.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.ValidateToken("not.a.token")
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsExpired(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"user-1": testUser(t, "hunter22", true)}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{Secret: "test-secret", TokenTTL: time.Nanosecond})

	result, err := svc.Login(context.Background(), LoginRequest{UserName: "admin", Password: "hunter22"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.ValidateToken(result.Token)
	require.Error(t, err)
}

func TestAuthServiceCurrentUser(t *testing.T) {
	svc, _ := newAuthFixture(t, testUser(t, "hunter22", true))

	user, err := svc.CurrentUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.UserName)

	_, err = svc.CurrentUser(context.Background(), "user-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceCreateUser(t *testing.T) {
	svc, repo := newAuthFixture(t, nil)

	user, err := svc.CreateUser(context.Background(), CreateUserRequest{UserName: "clerk", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "clerk", user.UserName)
	assert.True(t, user.Active)
	assert.NotEqual(t, "longenough", user.PasswordHash)
	require.NotNil(t, repo.created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))
}

func TestAuthServiceCreateUserDuplicateName(t *testing.T) {
	svc, _ := newAuthFixture(t, testUser(t, "hunter22", true))

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{UserName: "admin", Password: "longenough"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
