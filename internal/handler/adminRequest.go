package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cradoe/gopass"

	"github.com/nyaaypath/nyaaypath/internal/approval"
	"github.com/nyaaypath/nyaaypath/internal/context"
	"github.com/nyaaypath/nyaaypath/internal/errHandler"
	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/request"
	"github.com/nyaaypath/nyaaypath/internal/response"
	"github.com/nyaaypath/nyaaypath/internal/validator"
)

type AdminRequestHandler struct {
	Requests   repository.AdminRequestRepository
	Accounts   repository.AccountRepository
	Admins     repository.AdminRepository
	Approval   *approval.Service
	Hub        *approval.Hub
	ErrHandler *errHandler.ErrorHandler
}

func NewAdminRequestHandler(handler *AdminRequestHandler) *AdminRequestHandler {
	return &AdminRequestHandler{
		Requests:   handler.Requests,
		Accounts:   handler.Accounts,
		Admins:     handler.Admins,
		Approval:   handler.Approval,
		Hub:        handler.Hub,
		ErrHandler: handler.ErrHandler,
	}
}

// HandleRegister files a self-registration for state or district admin
// access. The password is strength-checked and hashed here; only the
// hash is stored on the pending request.
func (h *AdminRequestHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	level := r.PathValue("level")
	if level != models.LevelState && level != models.LevelDistrict {
		h.ErrHandler.BadRequest(w, r, fmt.Errorf("unknown admin level %q", level))
		return
	}

	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		State     string              `json:"state"`
		District  string              `json:"district"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")

	input.Validator.Check(validator.NotBlank(input.State), "State is required")
	if level == models.LevelDistrict {
		input.Validator.Check(validator.NotBlank(input.District), "District is required")
	}

	pending, err := h.Requests.CheckIfEmailPending(level, input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	input.Validator.Check(!pending, "A request for this email is already awaiting review")

	exists, err := h.Accounts.CheckIfEmailExists(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	input.Validator.Check(!exists, "Email is already in use")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	req := &models.AdminRequest{
		Level:          level,
		Email:          input.Email,
		HashedPassword: hashedPassword,
		State:          input.State,
		District:       input.District,
	}

	id, err := h.Requests.Insert(req)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]string{
		"request_id": id,
	}
	message := "Request submitted. You will be able to sign in once it is approved"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleListStateRequests serves the national admin's review queue.
func (h *AdminRequestHandler) HandleListStateRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, models.LevelState, "")
}

// HandleListDistrictRequests serves a state admin's review queue,
// scoped to their own state.
func (h *AdminRequestHandler) HandleListDistrictRequests(w http.ResponseWriter, r *http.Request) {
	authenticatedAdmin := context.ContextGetAuthenticatedAdmin(r)

	h.listRequests(w, r, models.LevelDistrict, authenticatedAdmin.Admin.State)
}

func (h *AdminRequestHandler) listRequests(w http.ResponseWriter, r *http.Request, level, stateScope string) {
	includeReviewed := r.URL.Query().Get("include_reviewed") == "true"

	requests, err := h.Requests.List(level, stateScope, includeReviewed)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Data retrieved successfully"
	if len(requests) == 0 {
		message = "No requests found"
		requests = []models.AdminRequest{}
	}

	err = response.JSONOkResponse(w, requests, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleListStates serves the national dashboard's linked-states card:
// the states that currently have at least one approved admin.
func (h *AdminRequestHandler) HandleListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.Admins.ListStates()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Data retrieved successfully"
	if len(states) == 0 {
		message = "No linked states yet"
		states = []string{}
	}

	err = response.JSONOkResponse(w, states, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleApprove approves one pending request and provisions the admin.
func (h *AdminRequestHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	authenticatedAdmin := context.ContextGetAuthenticatedAdmin(r)

	admin, err := h.Approval.Approve(r.PathValue("id"), authenticatedAdmin.Admin)
	if err != nil {
		h.failReviewError(w, r, err)
		return
	}

	message := "Request approved"
	err = response.JSONOkResponse(w, admin, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleReject rejects one pending request.
func (h *AdminRequestHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	authenticatedAdmin := context.ContextGetAuthenticatedAdmin(r)

	err := h.Approval.Reject(r.PathValue("id"), authenticatedAdmin.Admin)
	if err != nil {
		h.failReviewError(w, r, err)
		return
	}

	message := "Request rejected"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminRequestHandler) failReviewError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, approval.ErrRequestNotFound):
		h.ErrHandler.NotFound(w, r)
	case errors.Is(err, approval.ErrAlreadyReviewed):
		h.ErrHandler.Conflict(w, r, "Request has already been reviewed")
	case errors.Is(err, approval.ErrNotPermitted):
		h.ErrHandler.Forbidden(w, r)
	default:
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleStream pushes review events to the dashboard over SSE. The
// subscription is dropped as soon as the client disconnects.
func (h *AdminRequestHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.ErrHandler.ServerError(w, r, errors.New("streaming is not supported on this connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(events)

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}

			payload, err := json.Marshal(event.Payload)
			if err != nil {
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload)
			flusher.Flush()
		}
	}
}
