package seeders

import (
	"context"
	"database/sql"
	"log"

	"github.com/cradoe/gopass"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

// seedNationalAdmin bootstraps the single national admin. The chain of
// command has to start somewhere: nobody outranks the national level,
// so its account cannot arrive through the approval flow.
func (seeder *Seeder) seedNationalAdmin() {
	email := seeder.Config.SeedAdmin.Email
	password := seeder.Config.SeedAdmin.Password

	if email == "" || password == "" {
		log.Println("Skipping national admin seed: SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set")
		return
	}

	exists, err := seeder.DB.Account().CheckIfEmailExists(email)
	if err != nil {
		log.Fatalf("Failed to check for existing national admin: %v", err)
	}
	if exists {
		return
	}

	hashedPassword, err := gopass.Hash(password)
	if err != nil {
		log.Fatalf("Failed to hash national admin password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	accountID, err := seeder.DB.Account().Insert(email, hashedPassword, tx)
	if err != nil {
		tx.Rollback()
		log.Fatalf("Failed to insert national admin account: %v", err)
	}

	_, err = seeder.DB.Admin().Insert(&models.Admin{
		AccountID: accountID,
		Email:     email,
		Level:     models.LevelNational,
	}, tx)
	if err != nil {
		tx.Rollback()
		log.Fatalf("Failed to insert national admin profile: %v", err)
	}

	if err = tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}
}
