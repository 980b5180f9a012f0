package seeders

import (
	"time"

	"github.com/nyaaypath/nyaaypath/internal/config"
	"github.com/nyaaypath/nyaaypath/internal/repository"
)

const defaultTimeout = 5 * time.Second

type Seeder struct {
	DB     repository.Database
	Config *config.Config
}

func New(DB repository.Database, cfg *config.Config) *Seeder {
	return &Seeder{
		DB:     DB,
		Config: cfg,
	}
}

func (seeder *Seeder) Run() {
	seeder.seedNationalAdmin()
}
