package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nv0110/bosstracker/internal/models"
)

// APITokenRepository stores bearer tokens by the SHA-256 hash of the raw value.
type APITokenRepository interface {
	Create(ctx context.Context, token models.APIToken) (models.APIToken, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.APIToken, error)
	FindByUserID(ctx context.Context, userID string) ([]models.APIToken, error)
	DeleteForUser(ctx context.Context, userID string, id string) (bool, error)
}

type SQLiteAPITokenRepository struct {
	database *sql.DB
}

func NewAPITokenRepository(database *sql.DB) *SQLiteAPITokenRepository {
	return &SQLiteAPITokenRepository{database: database}
}

const selectAPIToken = `SELECT id, name, token_hash, user_id, expires_at, created_at FROM api_tokens`

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (repository *SQLiteAPITokenRepository) Create(ctx context.Context, token models.APIToken) (models.APIToken, error) {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	token.CreatedAt = time.Now().UTC()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO api_tokens (id, name, token_hash, user_id, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID, token.Name, token.TokenHash, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return models.APIToken{}, fmt.Errorf("inserting api token: %w", err)
	}
	return token, nil
}

// FindByTokenHash returns nil without error when no token has the hash.
func (repository *SQLiteAPITokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*models.APIToken, error) {
	row := repository.database.QueryRowContext(ctx, selectAPIToken+` WHERE token_hash = ?`, tokenHash)
	token, err := scanAPIToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up api token: %w", err)
	}
	return &token, nil
}

// FindByUserID lists the user's tokens, newest first.
func (repository *SQLiteAPITokenRepository) FindByUserID(ctx context.Context, userID string) ([]models.APIToken, error) {
	rows, err := repository.database.QueryContext(ctx, selectAPIToken+` WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing api tokens: %w", err)
	}
	defer rows.Close()

	tokens := []models.APIToken{}
	for rows.Next() {
		token, err := scanAPIToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning api token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api tokens: %w", err)
	}
	return tokens, nil
}

// DeleteForUser removes the token only if userID owns it and reports whether a
// row was deleted.
func (repository *SQLiteAPITokenRepository) DeleteForUser(ctx context.Context, userID string, id string) (bool, error) {
	result, err := repository.database.ExecContext(ctx, `DELETE FROM api_tokens WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting api token: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("counting deleted api tokens: %w", err)
	}
	return deleted > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAPIToken(scanner rowScanner) (models.APIToken, error) {
	var token models.APIToken
	err := scanner.Scan(&token.ID, &token.Name, &token.TokenHash, &token.UserID, &token.ExpiresAt, &token.CreatedAt)
	return token, err
}
