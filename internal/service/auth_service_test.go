package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/avoronov/url-shortener/internal/models"
	"github.com/avoronov/url-shortener/internal/service"
	"github.com/avoronov/url-shortener/internal/service/mocks"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key"

func setupAuthService() (service.AuthService, *mocks.MockUserRepository) {
	userRepo := mocks.NewMockUserRepository()
	authService := service.NewAuthService(userRepo, testJWTSecret, time.Hour)
	return authService, userRepo
}

// TestAuthService_Register проверяет регистрацию: bcrypt-хэш вместо пароля
// и роль по умолчанию
func TestAuthService_Register(t *testing.T) {
	authService, userRepo := setupAuthService()

	ctx := context.Background()
	user, err := authService.Register(ctx, &models.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash, "сырой пароль не должен сохраняться")

	stored, err := userRepo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
}

// TestAuthService_Register_DuplicateUsername проверяет занятое имя
func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	authService, _ := setupAuthService()

	ctx := context.Background()
	input := &models.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	}

	_, err := authService.Register(ctx, input)
	require.NoError(t, err)

	_, err = authService.Register(ctx, input)
	assert.Error(t, err)
}

// TestAuthService_Login проверяет выдачу токена: subject, роль и срок жизни
func TestAuthService_Login(t *testing.T) {
	authService, _ := setupAuthService()

	ctx := context.Background()
	_, err := authService.Register(ctx, &models.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	token, err := authService.Login(ctx, &models.LoginInput{
		Username: "alice",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := &service.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.True(t, claims.ExpiresAt.After(time.Now()), "токен должен иметь срок жизни в будущем")
}

// TestAuthService_Login_WrongPassword проверяет неверный пароль
func TestAuthService_Login_WrongPassword(t *testing.T) {
	authService, _ := setupAuthService()

	ctx := context.Background()
	_, err := authService.Register(ctx, &models.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	token, err := authService.Login(ctx, &models.LoginInput{
		Username: "alice",
		Password: "wrong-pass",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.Empty(t, token)
}

// TestAuthService_Login_UnknownUser проверяет логин несуществующего пользователя.
// Ответ не отличается от неверного пароля, чтобы не раскрывать наличие аккаунта.
func TestAuthService_Login_UnknownUser(t *testing.T) {
	authService, _ := setupAuthService()

	token, err := authService.Login(context.Background(), &models.LoginInput{
		Username: "ghost",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.Empty(t, token)
}
