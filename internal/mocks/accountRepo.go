package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Insert(email, hashedPassword string, tx *sqlx.Tx) (string, error) {
	args := m.Called(email, hashedPassword, tx)
	return args.String(0), args.Error(1)
}

func (m *MockAccountRepo) GetOne(id string) (*models.Account, bool, error) {
	args := m.Called(id)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Bool(1), args.Error(2)
}

func (m *MockAccountRepo) GetByEmail(email string) (*models.Account, bool, error) {
	args := m.Called(email)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Bool(1), args.Error(2)
}

func (m *MockAccountRepo) CheckIfEmailExists(email string) (bool, error) {
	args := m.Called(email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepo) UpdateHashedPassword(id, hashedPassword string) error {
	args := m.Called(id, hashedPassword)
	return args.Error(0)
}

func (m *MockAccountRepo) Revoke(id string) error {
	args := m.Called(id)
	return args.Error(0)
}
