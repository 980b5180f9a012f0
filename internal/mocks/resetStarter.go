package mocks

import "github.com/stretchr/testify/mock"

type MockPasswordResetStarter struct {
	mock.Mock
}

func (m *MockPasswordResetStarter) StartPasswordReset(email string) error {
	args := m.Called(email)
	return args.Error(0)
}
