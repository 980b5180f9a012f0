package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

type MockAdminRepo struct {
	mock.Mock
}

func (m *MockAdminRepo) Insert(admin *models.Admin, tx *sqlx.Tx) (string, error) {
	args := m.Called(admin, tx)
	return args.String(0), args.Error(1)
}

func (m *MockAdminRepo) GetByAccountID(accountID string) (*models.Admin, bool, error) {
	args := m.Called(accountID)
	admin, _ := args.Get(0).(*models.Admin)
	return admin, args.Bool(1), args.Error(2)
}

func (m *MockAdminRepo) ListStates() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}
