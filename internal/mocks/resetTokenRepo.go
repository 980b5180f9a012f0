package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockResetTokenRepo struct {
	mock.Mock
}

func (m *MockResetTokenRepo) Insert(tokenHash, accountID string, expiresAt time.Time) error {
	args := m.Called(tokenHash, accountID, expiresAt)
	return args.Error(0)
}

func (m *MockResetTokenRepo) GetAccountID(tokenHash string) (string, bool, error) {
	args := m.Called(tokenHash)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockResetTokenRepo) DeleteAllForAccount(accountID string) error {
	args := m.Called(accountID)
	return args.Error(0)
}
