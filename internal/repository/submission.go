package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

const (
	// ApplicationPendingStatus is the status every submission starts in.
	ApplicationPendingStatus = "pending"

	// ApplicationInReviewStatus indicates a district officer has picked
	// the application up.
	ApplicationInReviewStatus = "in_review"

	// ApplicationApprovedStatus and ApplicationRejectedStatus are the
	// terminal review verdicts.
	ApplicationApprovedStatus = "approved"
	ApplicationRejectedStatus = "rejected"
)

func ApplicationStatuses() []string {
	return []string{
		ApplicationPendingStatus,
		ApplicationInReviewStatus,
		ApplicationApprovedStatus,
		ApplicationRejectedStatus,
	}
}

type SubmissionRepository interface {
	Insert(app *models.Application) (string, error)
	All() ([]models.Application, error)
	GetOne(id string) (*models.Application, bool, error)
	GetByTrackingID(trackingID string) (*models.Application, bool, error)
	UpdateStatus(id, status string) error
}

type SubmissionRepositoryImpl struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) SubmissionRepository {
	return &SubmissionRepositoryImpl{db: db}
}

// Insert writes the whole application in a single statement; a failed
// write therefore never leaves a partial record behind.
func (repo *SubmissionRepositoryImpl) Insert(app *models.Application) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO applications (
			scheme, name, age, occupation, marital_status, land_owner,
			aadhar_no, pan_no, state, district, pin_code, ward_no, address, mobile_no, email,
			aadhar_image, pan_image, income_certificate, residential_certificate, family_photo,
			family_members, tracking_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		app.Scheme,
		app.Name,
		app.Age,
		app.Occupation,
		app.MaritalStatus,
		app.LandOwner,
		app.AadhaarNo,
		app.PanNo,
		app.State,
		app.District,
		app.PinCode,
		app.WardNo,
		app.Address,
		app.MobileNo,
		app.Email,
		app.AadhaarImage,
		app.PanImage,
		app.IncomeCertificate,
		app.ResidentialCertificate,
		app.FamilyPhoto,
		app.FamilyMembers,
		app.TrackingID,
		app.Status,
		app.CreatedAt,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

// All returns every submission, newest first; the admin list views
// filter client-side.
func (repo *SubmissionRepositoryImpl) All() ([]models.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var apps []models.Application

	query := `SELECT * FROM applications ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &apps, query)
	if err != nil {
		return nil, err
	}

	return apps, nil
}

func (repo *SubmissionRepositoryImpl) GetOne(id string) (*models.Application, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var app models.Application

	query := `SELECT * FROM applications WHERE id = $1`

	err := repo.db.GetContext(ctx, &app, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &app, true, err
}

func (repo *SubmissionRepositoryImpl) GetByTrackingID(trackingID string) (*models.Application, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var app models.Application

	// Tracking ids are not unique by construction; the most recent
	// submission wins, matching the portal's lookup behavior.
	query := `SELECT * FROM applications WHERE tracking_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := repo.db.GetContext(ctx, &app, query, trackingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &app, true, err
}

func (repo *SubmissionRepositoryImpl) UpdateStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE applications SET status = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}
