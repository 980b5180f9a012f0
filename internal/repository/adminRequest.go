package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

const (
	// RequestPendingStatus is the status a self-registration starts in.
	RequestPendingStatus = "pending"

	// RequestApprovedStatus and RequestRejectedStatus are terminal; a
	// reviewed request never transitions again.
	RequestApprovedStatus = "approved"
	RequestRejectedStatus = "rejected"
)

type AdminRequestRepository interface {
	Insert(req *models.AdminRequest) (string, error)
	// List returns requests for one org level, scoped by state when
	// stateScope is non-empty (district requests reviewed by a state
	// admin). Pass includeReviewed=false for the pending queue only.
	List(level, stateScope string, includeReviewed bool) ([]models.AdminRequest, error)
	GetOne(id string) (*models.AdminRequest, bool, error)
	CheckIfEmailPending(level, email string) (bool, error)
	// MarkReviewed flips a pending request to the given terminal
	// status. It reports false when the request was no longer pending,
	// which is how a concurrent second review loses.
	MarkReviewed(id, status string, tx *sqlx.Tx) (bool, error)
}

type AdminRequestRepositoryImpl struct {
	db *sqlx.DB
}

func NewAdminRequestRepository(db *sqlx.DB) AdminRequestRepository {
	return &AdminRequestRepositoryImpl{db: db}
}

func (repo *AdminRequestRepositoryImpl) Insert(req *models.AdminRequest) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO admin_requests (level, email, hashed_password, state, district)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		req.Level,
		req.Email,
		req.HashedPassword,
		req.State,
		req.District,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *AdminRequestRepositoryImpl) List(level, stateScope string, includeReviewed bool) ([]models.AdminRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var requests []models.AdminRequest

	query := `
		SELECT * FROM admin_requests
		WHERE level = $1
		AND ($2 = '' OR state = $2)
		AND ($3 OR status = 'pending')
		ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &requests, query, level, stateScope, includeReviewed)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (repo *AdminRequestRepositoryImpl) GetOne(id string) (*models.AdminRequest, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var req models.AdminRequest

	query := `SELECT * FROM admin_requests WHERE id = $1`

	err := repo.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &req, true, err
}

func (repo *AdminRequestRepositoryImpl) CheckIfEmailPending(level, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM admin_requests WHERE level = $1 AND email = $2 AND status = 'pending')`

	err := repo.db.GetContext(ctx, &exists, query, level, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (repo *AdminRequestRepositoryImpl) MarkReviewed(id, status string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	// The status guard makes review a one-shot transition: whichever
	// admin's update lands first wins, the other sees zero rows.
	query := `UPDATE admin_requests SET status = $1 WHERE id = $2 AND status = 'pending'`

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, status, id)
	} else {
		result, err = repo.db.ExecContext(ctx, query, status, id)
	}
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
