package approval

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/stream"
)

var (
	ErrRequestNotFound = errors.New("admin request not found")
	ErrAlreadyReviewed = errors.New("request has already been reviewed")
	ErrNotPermitted    = errors.New("reviewer is not permitted to review this request")
)

// PasswordResetStarter lets the approval flow hand a freshly approved
// admin their reset link without owning the identity machinery.
type PasswordResetStarter interface {
	StartPasswordReset(email string) error
}

// Service runs the admin access review flow. Approval provisions a
// login account and an admin profile; because the steps span separate
// writes, each later failure compensates by revoking the account
// created before it.
type Service struct {
	Requests repository.AdminRequestRepository
	Admins   repository.AdminRepository
	Accounts repository.AccountRepository
	Resets   PasswordResetStarter
	Stream   stream.Streamer
	Hub      *Hub
	Logger   *slog.Logger
}

func NewService(requests repository.AdminRequestRepository, admins repository.AdminRepository, accounts repository.AccountRepository, resets PasswordResetStarter, streamer stream.Streamer, hub *Hub, logger *slog.Logger) *Service {
	return &Service{
		Requests: requests,
		Admins:   admins,
		Accounts: accounts,
		Resets:   resets,
		Stream:   streamer,
		Hub:      hub,
		Logger:   logger,
	}
}

// CanReview encodes the chain of command: the national admin reviews
// state requests, a state admin reviews district requests for their
// own state.
func CanReview(reviewer *models.Admin, req *models.AdminRequest) bool {
	switch reviewer.Level {
	case models.LevelNational:
		return req.Level == models.LevelState
	case models.LevelState:
		return req.Level == models.LevelDistrict && req.State == reviewer.State
	default:
		return false
	}
}

// Approve marks the request approved and provisions the admin. The
// request row is claimed last, with a status-guarded update, so when
// two reviewers race only one claim lands; the loser's account is
// revoked again and the loser gets ErrAlreadyReviewed.
func (s *Service) Approve(requestID string, reviewer *models.Admin) (*models.Admin, error) {
	req, found, err := s.Requests.GetOne(requestID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRequestNotFound
	}

	if !CanReview(reviewer, req) {
		return nil, ErrNotPermitted
	}

	if req.Status != repository.RequestPendingStatus {
		return nil, ErrAlreadyReviewed
	}

	// The request row already holds the hash; the plaintext password
	// never survived registration.
	accountID, err := s.Accounts.Insert(req.Email, req.HashedPassword, nil)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{
		AccountID: accountID,
		Email:     req.Email,
		Level:     req.Level,
		State:     req.State,
		District:  req.District,
	}

	adminID, err := s.Admins.Insert(admin, nil)
	if err != nil {
		s.compensate(accountID)
		return nil, err
	}
	admin.ID = adminID

	claimed, err := s.Requests.MarkReviewed(requestID, repository.RequestApprovedStatus, nil)
	if err != nil {
		s.compensate(accountID)
		return nil, err
	}
	if !claimed {
		// A revoked account cannot sign in, so the stray admin profile
		// row is inert.
		s.compensate(accountID)
		return nil, ErrAlreadyReviewed
	}

	// The new admin sets their own password through the reset link
	// before first sign-in.
	if err := s.Resets.StartPasswordReset(req.Email); err != nil {
		s.Logger.Error("failed to start password reset for approved admin", "email", req.Email, "error", err)
	}

	s.announce(stream.TopicAdminRequestApproved, EventRequestApproved, req)

	return admin, nil
}

// Reject marks the request rejected. No account is ever created, so
// there is nothing to compensate.
func (s *Service) Reject(requestID string, reviewer *models.Admin) error {
	req, found, err := s.Requests.GetOne(requestID)
	if err != nil {
		return err
	}
	if !found {
		return ErrRequestNotFound
	}

	if !CanReview(reviewer, req) {
		return ErrNotPermitted
	}

	claimed, err := s.Requests.MarkReviewed(requestID, repository.RequestRejectedStatus, nil)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrAlreadyReviewed
	}

	s.announce(stream.TopicAdminRequestRejected, EventRequestRejected, req)

	return nil
}

func (s *Service) compensate(accountID string) {
	if err := s.Accounts.Revoke(accountID); err != nil {
		s.Logger.Error("failed to revoke account during approval compensation", "account_id", accountID, "error", err)
	}
}

type reviewMessage struct {
	RequestID string `json:"request_id"`
	Level     string `json:"level"`
	Email     string `json:"email"`
	State     string `json:"state"`
	District  string `json:"district"`
}

func (s *Service) announce(topic, eventKind string, req *models.AdminRequest) {
	msg := reviewMessage{
		RequestID: req.ID,
		Level:     req.Level,
		Email:     req.Email,
		State:     req.State,
		District:  req.District,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.Logger.Error("failed to encode review message", "error", err)
		return
	}

	if err := s.Stream.ProduceMessage(topic, string(payload)); err != nil {
		s.Logger.Error("failed to produce review message", "topic", topic, "error", err)
	}

	if s.Hub != nil {
		s.Hub.Broadcast(Event{Kind: eventKind, Payload: msg})
	}
}
