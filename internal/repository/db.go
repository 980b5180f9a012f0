package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/nyaaypath/nyaaypath/assets"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// Database exposes the repositories backing the portal. Handlers and
// services depend on these interfaces only, never on the concrete
// storage mechanism.
type Database interface {
	Submission() SubmissionRepository
	AdminRequest() AdminRequestRepository
	Admin() AdminRepository
	Account() AccountRepository
	ResetToken() ResetTokenRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type DatabaseImpl struct {
	db               *sqlx.DB
	submissionRepo   SubmissionRepository
	adminRequestRepo AdminRequestRepository
	adminRepo        AdminRepository
	accountRepo      AccountRepository
	resetTokenRepo   ResetTokenRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (d *DatabaseImpl) Submission() SubmissionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.submissionRepo == nil {
		d.submissionRepo = NewSubmissionRepository(d.db)
	}
	return d.submissionRepo
}

func (d *DatabaseImpl) AdminRequest() AdminRequestRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.adminRequestRepo == nil {
		d.adminRequestRepo = NewAdminRequestRepository(d.db)
	}
	return d.adminRequestRepo
}

func (d *DatabaseImpl) Admin() AdminRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.adminRepo == nil {
		d.adminRepo = NewAdminRepository(d.db)
	}
	return d.adminRepo
}

func (d *DatabaseImpl) Account() AccountRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.accountRepo == nil {
		d.accountRepo = NewAccountRepository(d.db)
	}
	return d.accountRepo
}

func (d *DatabaseImpl) ResetToken() ResetTokenRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.resetTokenRepo == nil {
		d.resetTokenRepo = NewResetTokenRepository(d.db)
	}
	return d.resetTokenRepo
}
