package models

import (
	"database/sql"
	"time"
)

// Org levels of the approval chain.
const (
	LevelNational = "national"
	LevelState    = "state"
	LevelDistrict = "district"
)

// AdminRequest is a pending self-registration for a state- or
// district-level admin account. The password is hashed before the
// record ever reaches a repository.
type AdminRequest struct {
	ID             string    `db:"id" json:"id"`
	Level          string    `db:"level" json:"level"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	State          string    `db:"state" json:"state"`
	District       string    `db:"district" json:"district"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Admin is the profile provisioned when a request is approved. It is
// keyed by the identity account created during approval.
type Admin struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	Email     string    `db:"email" json:"email"`
	Level     string    `db:"level" json:"level"`
	State     string    `db:"state" json:"state"`
	District  string    `db:"district" json:"district"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Account is an identity-provider login record. The approval flow
// provisions one from the credentials captured at registration; the
// hash is copied over, the plaintext is long gone.
type Account struct {
	ID             string       `db:"id"`
	Email          string       `db:"email"`
	HashedPassword string       `db:"hashed_password"`
	Status         string       `db:"status"`
	CreatedAt      time.Time    `db:"created_at"`
	DeletedAt      sql.NullTime `db:"deleted_at"`
}
