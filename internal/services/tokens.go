package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/repository"
)

type TokenService struct {
	tokens repository.APITokenRepository
}

func NewTokenService(tokens repository.APITokenRepository) *TokenService {
	return &TokenService{tokens: tokens}
}

// Create issues a new bearer token for userID. Only its hash is stored, so the
// returned raw token cannot be recovered later. A zero ttl never expires.
func (service *TokenService) Create(ctx context.Context, userID string, name string, ttl time.Duration) (models.APIToken, string, error) {
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return models.APIToken{}, "", ErrMissingParameters
	}

	rawToken, err := generateToken()
	if err != nil {
		return models.APIToken{}, "", fmt.Errorf("generating token: %w", err)
	}
	token := models.APIToken{
		Name:      name,
		TokenHash: repository.HashToken(rawToken),
		UserID:    userID,
	}
	if ttl > 0 {
		expiresAt := time.Now().UTC().Add(ttl)
		token.ExpiresAt = &expiresAt
	}

	created, err := service.tokens.Create(ctx, token)
	if err != nil {
		return models.APIToken{}, "", storeError("creating token", err)
	}
	return created, rawToken, nil
}

func (service *TokenService) List(ctx context.Context, userID string) ([]models.APIToken, error) {
	if userID == "" {
		return nil, ErrMissingParameters
	}
	tokens, err := service.tokens.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storeError("listing tokens", err)
	}
	return tokens, nil
}

// Revoke deletes one of userID's tokens.
func (service *TokenService) Revoke(ctx context.Context, userID string, tokenID string) error {
	if userID == "" || tokenID == "" {
		return ErrMissingParameters
	}
	deleted, err := service.tokens.DeleteForUser(ctx, userID, tokenID)
	if err != nil {
		return storeError("revoking token", err)
	}
	if !deleted {
		return fmt.Errorf("%w: token %s", ErrNotFound, tokenID)
	}
	return nil
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
