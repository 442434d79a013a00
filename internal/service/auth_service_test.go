package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weddingplan/internal/config"
	"weddingplan/internal/domain"
	"weddingplan/internal/service"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret: "test-secret-key-for-unit-tests",
		Issuer: "weddingplan-test",
	}
}

func testTokenInput() service.TokenInput {
	return service.TokenInput{
		WeddingID: uuid.New(),
		UserID:    uuid.New(),
		Email:     "alex@example.com",
		Name:      "Alex",
		Role:      domain.RolePlanner,
	}
}

func TestAuthService_ValidateToken_RoundTrip(t *testing.T) {
	svc := service.NewAuthService(testJWTConfig())
	input := testTokenInput()

	token, err := svc.IssueToken(input, 15*time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, input.WeddingID, claims.WeddingID)
	assert.Equal(t, input.UserID, claims.UserID)
	assert.Equal(t, "alex@example.com", claims.Email)
	assert.Equal(t, "Alex", claims.Name)
	assert.Equal(t, domain.RolePlanner, claims.Role)
	assert.Equal(t, "weddingplan-test", claims.Issuer)
}

func TestAuthService_ValidateToken_Expired(t *testing.T) {
	svc := service.NewAuthService(testJWTConfig())

	token, err := svc.IssueToken(testTokenInput(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	other := testJWTConfig()
	other.Secret = "another-secret"
	token, err := service.NewAuthService(other).IssueToken(testTokenInput(), time.Minute)
	require.NoError(t, err)

	_, err = service.NewAuthService(testJWTConfig()).ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_ValidateToken_WrongIssuer(t *testing.T) {
	other := testJWTConfig()
	other.Issuer = "someone-else"
	token, err := service.NewAuthService(other).IssueToken(testTokenInput(), time.Minute)
	require.NoError(t, err)

	_, err = service.NewAuthService(testJWTConfig()).ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_ValidateToken_MissingWedding(t *testing.T) {
	svc := service.NewAuthService(testJWTConfig())
	input := testTokenInput()
	input.WeddingID = uuid.Nil

	token, err := svc.IssueToken(input, time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_ValidateToken_RefreshAudienceRejected(t *testing.T) {
	cfg := testJWTConfig()
	claims := &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Audience:  jwt.ClaimStrings{"refresh"},
		},
		WeddingID: uuid.New(),
		UserID:    uuid.New(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = service.NewAuthService(cfg).ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_ValidateToken_Garbage(t *testing.T) {
	_, err := service.NewAuthService(testJWTConfig()).ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
