package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Token types
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// Identity is what a token says about its bearer
type Identity struct {
	UserID           uint
	Login            string
	Role             string
	LearningCenterID uint
	TeacherID        uint
	TokenVersion     int
}

// Claims represents JWT claims
type Claims struct {
	UserID           uint   `json:"user_id"`
	Login            string `json:"login"`
	Role             string `json:"role"`
	LearningCenterID uint   `json:"learning_center_id,omitempty"`
	TeacherID        uint   `json:"teacher_id,omitempty"`
	TokenType        string `json:"token_type"`    // "access" or "refresh"
	TokenVersion     int    `json:"token_version"` // For invalidating all tokens
	jwt.RegisteredClaims
}

// Identity returns the bearer identity carried by the claims
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:           c.UserID,
		Login:            c.Login,
		Role:             c.Role,
		LearningCenterID: c.LearningCenterID,
		TeacherID:        c.TeacherID,
		TokenVersion:     c.TokenVersion,
	}
}

// TokenPair is returned by login, register and refresh
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// JWTManager handles JWT token operations
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
	}
}

// GenerateAccessToken generates a new access token with JTI
func (j *JWTManager) GenerateAccessToken(id Identity) (string, string, error) {
	return j.sign(id, TokenTypeAccess, j.config.Expiry)
}

// GenerateRefreshToken generates a new refresh token with JTI
func (j *JWTManager) GenerateRefreshToken(id Identity) (string, string, error) {
	return j.sign(id, TokenTypeRefresh, j.config.RefreshExpiry)
}

// GenerateTokenPair issues a fresh access and refresh token
func (j *JWTManager) GenerateTokenPair(id Identity) (*TokenPair, error) {
	accessToken, _, err := j.GenerateAccessToken(id)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := j.GenerateRefreshToken(id)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(j.config.Expiry),
		TokenType:    "Bearer",
	}, nil
}

func (j *JWTManager) sign(id Identity, tokenType string, ttl time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.New().String()

	claims := Claims{
		UserID:           id.UserID,
		Login:            id.Login,
		Role:             id.Role,
		LearningCenterID: id.LearningCenterID,
		TeacherID:        id.TeacherID,
		TokenType:        tokenType,
		TokenVersion:     id.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
			Subject:   id.Login,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(j.config.Secret))
	return signedToken, jti, err
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(j.config.Secret), nil
	}, jwt.WithIssuer(j.config.Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// ValidateRefreshToken validates a token and requires it to be a refresh token
func (j *JWTManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExpiresAt returns the expiry of validated claims, or now when missing
func ExpiresAt(claims *Claims) time.Time {
	if claims == nil || claims.ExpiresAt == nil {
		return time.Now()
	}
	return claims.ExpiresAt.Time
}
