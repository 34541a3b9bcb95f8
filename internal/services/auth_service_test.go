package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"grocery/internal/apperrors"
	"grocery/internal/models"
	"grocery/internal/services"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newAuthService(repo *MockUserRepository) *services.AuthService {
	return services.NewAuthService(repo, testJWTSecret, time.Hour, zap.NewNop())
}

func notFound(what string) error {
	return apperrors.NotFound("user with %s not found", what)
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)
	ctx := context.Background()
	req := services.RegisterRequest{Username: "testuser", Email: "test@example.com", Password: "password123"}

	mockRepo.On("GetByUsername", ctx, req.Username).Return(nil, notFound("username")).Once()
	mockRepo.On("GetByEmail", ctx, req.Email).Return(nil, notFound("email")).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleCustomer &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("password123")) == nil
	})).Return(nil).Once()

	user, err := authService.RegisterUser(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	mockRepo.AssertExpectations(t)

	// username already taken
	mockRepo.On("GetByUsername", ctx, req.Username).Return(&models.User{ID: "1"}, nil).Once()
	_, err = authService.RegisterUser(ctx, req)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "username 'testuser' already taken")

	// email already registered
	mockRepo.On("GetByUsername", ctx, req.Username).Return(nil, notFound("username")).Once()
	mockRepo.On("GetByEmail", ctx, req.Email).Return(&models.User{ID: "1"}, nil).Once()
	_, err = authService.RegisterUser(ctx, req)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "email 'test@example.com' already registered")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUserStorageFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetByUsername", ctx, "testuser").Return(nil, fmt.Errorf("connection refused")).Once()
	_, err := authService.RegisterUser(ctx, services.RegisterRequest{Username: "testuser", Email: "t@example.com", Password: "secret1"})
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)
	ctx := context.Background()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
	}

	mockRepo.On("GetByUsername", ctx, user.Username).Return(user, nil).Once()
	token, err := authService.LoginUser(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Username, claims["username"])
	assert.Equal(t, "admin", claims["role"])

	// wrong password
	mockRepo.On("GetByUsername", ctx, user.Username).Return(user, nil).Once()
	_, err = authService.LoginUser(ctx, "testuser", "wrongpassword")
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	// unknown user gets the same answer
	mockRepo.On("GetByUsername", ctx, "nonexistentuser").Return(nil, notFound("username")).Once()
	_, err = authService.LoginUser(ctx, "nonexistentuser", "password123")
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "invalid credentials")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := newAuthService(new(MockUserRepository))

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	principal, err := authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, testJWTSecret))
	require.NoError(t, err)
	assert.Equal(t, "user-123", principal.UserID)
	assert.True(t, principal.IsAdmin())

	// unknown roles fall back to customer
	principal, err = authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"role":    "superuser",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, testJWTSecret))
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, principal.Role)

	_, err = authService.ValidateToken("invalid.token.string")
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}, testJWTSecret))
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, "another_secret"))
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)
	ctx := context.Background()
	req := services.RegisterRequest{Username: "admin", Email: "admin@example.com", Password: "changeme"}

	mockRepo.On("GetByUsername", ctx, "admin").Return(nil, notFound("username")).Twice()
	mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(nil, notFound("email")).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleAdmin
	})).Return(nil).Once()

	require.NoError(t, authService.EnsureAdmin(ctx, req))

	// existing administrator is left alone
	mockRepo.On("GetByUsername", ctx, "admin").Return(&models.User{ID: "a-1", Role: models.RoleAdmin}, nil).Once()
	require.NoError(t, authService.EnsureAdmin(ctx, req))
	mockRepo.AssertExpectations(t)
}
