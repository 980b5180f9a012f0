package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

type MockAdminRequestRepo struct {
	mock.Mock
}

func (m *MockAdminRequestRepo) Insert(req *models.AdminRequest) (string, error) {
	args := m.Called(req)
	return args.String(0), args.Error(1)
}

func (m *MockAdminRequestRepo) List(level, stateScope string, includeReviewed bool) ([]models.AdminRequest, error) {
	args := m.Called(level, stateScope, includeReviewed)
	return args.Get(0).([]models.AdminRequest), args.Error(1)
}

func (m *MockAdminRequestRepo) GetOne(id string) (*models.AdminRequest, bool, error) {
	args := m.Called(id)
	req, _ := args.Get(0).(*models.AdminRequest)
	return req, args.Bool(1), args.Error(2)
}

func (m *MockAdminRequestRepo) CheckIfEmailPending(level, email string) (bool, error) {
	args := m.Called(level, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminRequestRepo) MarkReviewed(id, status string, tx *sqlx.Tx) (bool, error) {
	args := m.Called(id, status, tx)
	return args.Bool(0), args.Error(1)
}
