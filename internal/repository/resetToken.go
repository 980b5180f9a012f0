package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type ResetTokenRepository interface {
	Insert(tokenHash, accountID string, expiresAt time.Time) error
	GetAccountID(tokenHash string) (string, bool, error)
	DeleteAllForAccount(accountID string) error
}

type ResetTokenRepositoryImpl struct {
	db *sqlx.DB
}

func NewResetTokenRepository(db *sqlx.DB) ResetTokenRepository {
	return &ResetTokenRepositoryImpl{db: db}
}

func (repo *ResetTokenRepositoryImpl) Insert(tokenHash, accountID string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO password_reset_tokens (token_hash, account_id, expires_at)
		VALUES ($1, $2, $3)`

	_, err := repo.db.ExecContext(ctx, query, tokenHash, accountID, expiresAt)
	return err
}

func (repo *ResetTokenRepositoryImpl) GetAccountID(tokenHash string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var accountID string

	query := `SELECT account_id FROM password_reset_tokens WHERE token_hash = $1 AND expires_at > now()`

	err := repo.db.GetContext(ctx, &accountID, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	return accountID, true, err
}

func (repo *ResetTokenRepositoryImpl) DeleteAllForAccount(accountID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM password_reset_tokens WHERE account_id = $1`

	_, err := repo.db.ExecContext(ctx, query, accountID)
	return err
}
