package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"weddingplan/internal/config"
	"weddingplan/internal/domain"
)

const accessAudience = "access"

// Claims represents the JWT claims with wedding context.
type Claims struct {
	jwt.RegisteredClaims
	WeddingID uuid.UUID       `json:"wedding_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Email     string          `json:"email"`
	Name      string          `json:"name,omitempty"`
	Role      domain.UserRole `json:"role"`
}

// TokenInput is the identity embedded in an issued access token.
type TokenInput struct {
	WeddingID uuid.UUID
	UserID    uuid.UUID
	Email     string
	Name      string
	Role      domain.UserRole
}

// AuthService verifies the bearer tokens issued by the account service.
type AuthService interface {
	ValidateToken(tokenString string) (*Claims, error)
	IssueToken(input TokenInput, ttl time.Duration) (string, error)
}

type authService struct {
	cfg config.JWTConfig
	now func() time.Time
}

// NewAuthService creates a new AuthService implementation.
func NewAuthService(cfg config.JWTConfig) AuthService {
	return &authService{cfg: cfg, now: time.Now}
}

// IssueToken signs an access token. The server only verifies tokens; this is used by
// local tooling and tests.
func (s *authService) IssueToken(input TokenInput, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   input.UserID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{accessAudience},
		},
		WeddingID: input.WeddingID,
		UserID:    input.UserID,
		Email:     input.Email,
		Name:      input.Name,
		Role:      input.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return token, nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithAudience(accessAudience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.WeddingID == uuid.Nil || claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: token carries no wedding or user", domain.ErrUnauthorized)
	}
	return claims, nil
}
