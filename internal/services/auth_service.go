package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"pharmatrack/internal/caching"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPair is what login, signup and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	IssuedAt     time.Time `json:"issued_at"`
}

// AuthService issues and rotates the JWT access / opaque refresh token pair.
type AuthService interface {
	GenerateTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error)
	Refresh(ctx context.Context, userID uuid.UUID, refreshToken string) (*TokenPair, error)
	Revoke(ctx context.Context, userID uuid.UUID) error
}

type authService struct {
	cacheSvc   caching.CacheService
	jwtSecret  []byte
	tokenTTL   int // access token TTL in seconds
	refreshTTL int // refresh token TTL in seconds
}

func NewAuthService(cacheSvc caching.CacheService, jwtSecret string, tokenTTLSeconds, refreshTTLSeconds int) AuthService {
	return &authService{
		cacheSvc:   cacheSvc,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTLSeconds,
		refreshTTL: refreshTTLSeconds,
	}
}

func (s *authService) GenerateTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Issuer:    "pharmatrack-auth",
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{"pharmatrack-api"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.tokenTTL) * time.Second)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken := generateSecureToken()
	// Only the hash is stored; a leaked redis dump cannot be replayed.
	if err := s.cacheSvc.SetRefreshToken(ctx, userID, hashToken(refreshToken),
		time.Duration(s.refreshTTL)*time.Second); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.tokenTTL,
		RefreshToken: refreshToken,
		IssuedAt:     now,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, userID uuid.UUID, refreshToken string) (*TokenPair, error) {
	stored, err := s.cacheSvc.GetRefreshToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if stored == "" || stored != hashToken(refreshToken) {
		return nil, fmt.Errorf("invalid refresh token")
	}
	// Rotation: the old token is dead the moment a new pair is issued.
	return s.GenerateTokens(ctx, userID)
}

func (s *authService) Revoke(ctx context.Context, userID uuid.UUID) error {
	return s.cacheSvc.DeleteRefreshToken(ctx, userID)
}

func generateSecureToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return base64.URLEncoding.EncodeToString(bytes)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
