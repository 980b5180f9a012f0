package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) Insert(app *models.Application) (string, error) {
	args := m.Called(app)
	return args.String(0), args.Error(1)
}

func (m *MockSubmissionRepo) All() ([]models.Application, error) {
	args := m.Called()
	return args.Get(0).([]models.Application), args.Error(1)
}

func (m *MockSubmissionRepo) GetOne(id string) (*models.Application, bool, error) {
	args := m.Called(id)
	app, _ := args.Get(0).(*models.Application)
	return app, args.Bool(1), args.Error(2)
}

func (m *MockSubmissionRepo) GetByTrackingID(trackingID string) (*models.Application, bool, error) {
	args := m.Called(trackingID)
	app, _ := args.Get(0).(*models.Application)
	return app, args.Bool(1), args.Error(2)
}

func (m *MockSubmissionRepo) UpdateStatus(id, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}
