package mocks

import "github.com/stretchr/testify/mock"

type MockStreamer struct {
	mock.Mock
}

func (m *MockStreamer) ProduceMessage(topic, message string) error {
	args := m.Called(topic, message)
	return args.Error(0)
}
