package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

const (
	// AccountActiveStatus indicates the account can sign in.
	AccountActiveStatus = "active"

	// AccountRevokedStatus marks an account withdrawn by the approval
	// saga's compensating action. A revoked account cannot sign in.
	AccountRevokedStatus = "revoked"
)

type AccountRepository interface {
	Insert(email, hashedPassword string, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*models.Account, bool, error)
	GetByEmail(email string) (*models.Account, bool, error)
	CheckIfEmailExists(email string) (bool, error)
	UpdateHashedPassword(id, hashedPassword string) error
	Revoke(id string) error
}

type AccountRepositoryImpl struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

func (repo *AccountRepositoryImpl) Insert(email, hashedPassword string, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO accounts (email, hashed_password)
		VALUES ($1, $2)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query, email, hashedPassword).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query, email, hashedPassword)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *AccountRepositoryImpl) GetOne(id string) (*models.Account, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var account models.Account

	query := `SELECT * FROM accounts WHERE id = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &account, true, err
}

func (repo *AccountRepositoryImpl) GetByEmail(email string) (*models.Account, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var account models.Account

	query := `SELECT * FROM accounts WHERE email = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &account, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &account, true, err
}

func (repo *AccountRepositoryImpl) CheckIfEmailExists(email string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1 AND deleted_at IS NULL)`

	err := repo.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (repo *AccountRepositoryImpl) UpdateHashedPassword(id, hashedPassword string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE accounts SET hashed_password = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, hashedPassword, id)
	return err
}

// Revoke soft-deletes the account and frees the email for reuse.
func (repo *AccountRepositoryImpl) Revoke(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE accounts SET status = $1, deleted_at = now() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, AccountRevokedStatus, id)
	return err
}
