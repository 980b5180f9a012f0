package approval

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nyaaypath/nyaaypath/internal/mocks"
	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/stream"
)

func newTestService(requests *mocks.MockAdminRequestRepo, admins *mocks.MockAdminRepo, accounts *mocks.MockAccountRepo, resets *mocks.MockPasswordResetStarter, streamer *mocks.MockStreamer) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(requests, admins, accounts, resets, streamer, NewHub(), logger)
}

func pendingDistrictRequest() *models.AdminRequest {
	return &models.AdminRequest{
		ID:             "req-1",
		Level:          models.LevelDistrict,
		Email:          "d@x.com",
		HashedPassword: "hashed",
		State:          "Bihar",
		District:       "Patna",
		Status:         repository.RequestPendingStatus,
	}
}

func biharStateAdmin() *models.Admin {
	return &models.Admin{
		ID:    "adm-reviewer",
		Level: models.LevelState,
		State: "Bihar",
	}
}

func TestApproveProvisionsAdmin(t *testing.T) {
	requests := new(mocks.MockAdminRequestRepo)
	admins := new(mocks.MockAdminRepo)
	accounts := new(mocks.MockAccountRepo)
	streamer := new(mocks.MockStreamer)

	resets := new(mocks.MockPasswordResetStarter)

	req := pendingDistrictRequest()

	requests.On("GetOne", "req-1").Return(req, true, nil)
	accounts.On("Insert", "d@x.com", "hashed", mock.Anything).Return("acc-1", nil)
	admins.On("Insert", mock.Anything, mock.Anything).Return("adm-1", nil)
	requests.On("MarkReviewed", "req-1", repository.RequestApprovedStatus, mock.Anything).Return(true, nil)
	resets.On("StartPasswordReset", "d@x.com").Return(nil)
	streamer.On("ProduceMessage", stream.TopicAdminRequestApproved, mock.Anything).Return(nil)

	service := newTestService(requests, admins, accounts, resets, streamer)

	events := service.Hub.Subscribe()

	admin, err := service.Approve("req-1", biharStateAdmin())
	require.NoError(t, err)
	require.Equal(t, "adm-1", admin.ID)
	require.Equal(t, "acc-1", admin.AccountID)
	require.Equal(t, models.LevelDistrict, admin.Level)
	require.Equal(t, "Bihar", admin.State)
	require.Equal(t, "Patna", admin.District)

	event := <-events
	require.Equal(t, EventRequestApproved, event.Kind)

	requests.AssertExpectations(t)
	admins.AssertExpectations(t)
	accounts.AssertExpectations(t)
	resets.AssertExpectations(t)
	streamer.AssertExpectations(t)
}

func TestApproveSecondReviewerLoses(t *testing.T) {
	requests := new(mocks.MockAdminRequestRepo)
	admins := new(mocks.MockAdminRepo)
	accounts := new(mocks.MockAccountRepo)
	streamer := new(mocks.MockStreamer)

	requests.On("GetOne", "req-1").Return(pendingDistrictRequest(), true, nil)
	accounts.On("Insert", "d@x.com", "hashed", mock.Anything).Return("acc-2", nil)
	admins.On("Insert", mock.Anything, mock.Anything).Return("adm-2", nil)
	// Another admin got there first: the guarded update claims no rows.
	requests.On("MarkReviewed", "req-1", repository.RequestApprovedStatus, mock.Anything).Return(false, nil)
	accounts.On("Revoke", "acc-2").Return(nil)

	resets := new(mocks.MockPasswordResetStarter)
	service := newTestService(requests, admins, accounts, resets, streamer)

	_, err := service.Approve("req-1", biharStateAdmin())
	require.ErrorIs(t, err, ErrAlreadyReviewed)

	accounts.AssertCalled(t, "Revoke", "acc-2")
	resets.AssertNotCalled(t, "StartPasswordReset", mock.Anything)
	streamer.AssertNotCalled(t, "ProduceMessage", mock.Anything, mock.Anything)
}

func TestApproveCompensatesWhenProfileInsertFails(t *testing.T) {
	requests := new(mocks.MockAdminRequestRepo)
	admins := new(mocks.MockAdminRepo)
	accounts := new(mocks.MockAccountRepo)
	streamer := new(mocks.MockStreamer)

	requests.On("GetOne", "req-1").Return(pendingDistrictRequest(), true, nil)
	accounts.On("Insert", "d@x.com", "hashed", mock.Anything).Return("acc-3", nil)
	admins.On("Insert", mock.Anything, mock.Anything).Return("", errors.New("insert failed"))
	accounts.On("Revoke", "acc-3").Return(nil)

	service := newTestService(requests, admins, accounts, new(mocks.MockPasswordResetStarter), streamer)

	_, err := service.Approve("req-1", biharStateAdmin())
	require.Error(t, err)

	accounts.AssertCalled(t, "Revoke", "acc-3")
	requests.AssertNotCalled(t, "MarkReviewed", mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveAlreadyReviewedStatus(t *testing.T) {
	requests := new(mocks.MockAdminRequestRepo)
	admins := new(mocks.MockAdminRepo)
	accounts := new(mocks.MockAccountRepo)
	streamer := new(mocks.MockStreamer)

	req := pendingDistrictRequest()
	req.Status = repository.RequestApprovedStatus
	requests.On("GetOne", "req-1").Return(req, true, nil)

	service := newTestService(requests, admins, accounts, new(mocks.MockPasswordResetStarter), streamer)

	_, err := service.Approve("req-1", biharStateAdmin())
	require.ErrorIs(t, err, ErrAlreadyReviewed)

	accounts.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveScopeEnforced(t *testing.T) {
	tests := []struct {
		name     string
		reviewer *models.Admin
		request  *models.AdminRequest
		allowed  bool
	}{
		{
			name:     "national reviews state request",
			reviewer: &models.Admin{Level: models.LevelNational},
			request:  &models.AdminRequest{Level: models.LevelState, State: "Bihar"},
			allowed:  true,
		},
		{
			name:     "national cannot review district request",
			reviewer: &models.Admin{Level: models.LevelNational},
			request:  &models.AdminRequest{Level: models.LevelDistrict, State: "Bihar"},
			allowed:  false,
		},
		{
			name:     "state reviews district request in own state",
			reviewer: &models.Admin{Level: models.LevelState, State: "Bihar"},
			request:  &models.AdminRequest{Level: models.LevelDistrict, State: "Bihar"},
			allowed:  true,
		},
		{
			name:     "state cannot review another state's district request",
			reviewer: &models.Admin{Level: models.LevelState, State: "Kerala"},
			request:  &models.AdminRequest{Level: models.LevelDistrict, State: "Bihar"},
			allowed:  false,
		},
		{
			name:     "district admins review nothing",
			reviewer: &models.Admin{Level: models.LevelDistrict, State: "Bihar"},
			request:  &models.AdminRequest{Level: models.LevelDistrict, State: "Bihar"},
			allowed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.allowed, CanReview(tt.reviewer, tt.request))
		})
	}
}

func TestApproveNotPermittedReviewer(t *testing.T) {
	requests := new(mocks.MockAdminRequestRepo)
	admins := new(mocks.MockAdminRepo)
	accounts := new(mocks.MockAccountRepo)
	streamer := new(mocks.MockStreamer)

	requests.On("GetOne", "req-1").Return(pendingDistrictRequest(), true, nil)

	service := newTestService(requests, admins, accounts, new(mocks.MockPasswordResetStarter), streamer)

	keralaAdmin := &models.Admin{Level: models.LevelState, State: "Kerala"}
	_, err := service.Approve("req-1", keralaAdmin)
	require.ErrorIs(t, err, ErrNotPermitted)
}

func TestRejectClaimsRequest(t *testing.T) {
	requests := new(mocks.MockAdminRequestRepo)
	admins := new(mocks.MockAdminRepo)
	accounts := new(mocks.MockAccountRepo)
	streamer := new(mocks.MockStreamer)

	requests.On("GetOne", "req-1").Return(pendingDistrictRequest(), true, nil)
	requests.On("MarkReviewed", "req-1", repository.RequestRejectedStatus, mock.Anything).Return(true, nil)
	streamer.On("ProduceMessage", stream.TopicAdminRequestRejected, mock.Anything).Return(nil)

	resets := new(mocks.MockPasswordResetStarter)
	service := newTestService(requests, admins, accounts, resets, streamer)

	err := service.Reject("req-1", biharStateAdmin())
	require.NoError(t, err)

	accounts.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	resets.AssertNotCalled(t, "StartPasswordReset", mock.Anything)
	streamer.AssertExpectations(t)
}

func TestRejectNotFound(t *testing.T) {
	requests := new(mocks.MockAdminRequestRepo)
	admins := new(mocks.MockAdminRepo)
	accounts := new(mocks.MockAccountRepo)
	streamer := new(mocks.MockStreamer)

	requests.On("GetOne", "missing").Return(nil, false, nil)

	service := newTestService(requests, admins, accounts, new(mocks.MockPasswordResetStarter), streamer)

	err := service.Reject("missing", biharStateAdmin())
	require.ErrorIs(t, err, ErrRequestNotFound)
}
