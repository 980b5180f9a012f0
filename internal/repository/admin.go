package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

type AdminRepository interface {
	Insert(admin *models.Admin, tx *sqlx.Tx) (string, error)
	GetByAccountID(accountID string) (*models.Admin, bool, error)
	ListStates() ([]string, error)
}

type AdminRepositoryImpl struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &AdminRepositoryImpl{db: db}
}

func (repo *AdminRepositoryImpl) Insert(admin *models.Admin, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO admins (account_id, email, level, state, district)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			admin.AccountID,
			admin.Email,
			admin.Level,
			admin.State,
			admin.District,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			admin.AccountID,
			admin.Email,
			admin.Level,
			admin.State,
			admin.District,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *AdminRepositoryImpl) GetByAccountID(accountID string) (*models.Admin, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var admin models.Admin

	query := `SELECT * FROM admins WHERE account_id = $1`

	err := repo.db.GetContext(ctx, &admin, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &admin, true, err
}

// ListStates feeds the national dashboard's linked-states card.
func (repo *AdminRepositoryImpl) ListStates() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var states []string

	query := `SELECT DISTINCT state FROM admins WHERE level = 'state' ORDER BY state`

	err := repo.db.SelectContext(ctx, &states, query)
	if err != nil {
		return nil, err
	}

	return states, nil
}
