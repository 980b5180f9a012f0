package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nyaaypath/nyaaypath/internal/cache"
	"github.com/nyaaypath/nyaaypath/internal/document"
	"github.com/nyaaypath/nyaaypath/internal/errHandler"
	"github.com/nyaaypath/nyaaypath/internal/helper"
	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/request"
	"github.com/nyaaypath/nyaaypath/internal/response"
	"github.com/nyaaypath/nyaaypath/internal/stream"
	"github.com/nyaaypath/nyaaypath/internal/wizard"
)

// WizardSessionHandler exposes the multi-step form over HTTP. Session
// state lives in redis so any instance can serve any step.
type WizardSessionHandler struct {
	Sessions    *cache.SessionStore
	Submissions repository.SubmissionRepository
	Stream      stream.Streamer
	Helper      *helper.HelperRepository
	ErrHandler  *errHandler.ErrorHandler
}

func NewWizardSessionHandler(handler *WizardSessionHandler) *WizardSessionHandler {
	return &WizardSessionHandler{
		Sessions:    handler.Sessions,
		Submissions: handler.Submissions,
		Stream:      handler.Stream,
		Helper:      handler.Helper,
		ErrHandler:  handler.ErrHandler,
	}
}

// HandleCreateSession opens a fresh wizard and returns its session id.
func (h *WizardSessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	sessionID := hex.EncodeToString(b)

	wiz := wizard.New()
	if err := h.Sessions.Save(sessionID, wiz); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"session_id": sessionID,
		"wizard":     wiz,
	}

	message := "Session created"
	err := response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleGetSession returns the current wizard state for resuming.
func (h *WizardSessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	message := "Data retrieved successfully"
	err := response.JSONOkResponse(w, wiz, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleSetScheme records the step-1 choice and advances to step 2.
func (h *WizardSessionHandler) HandleSetScheme(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	var input struct {
		Scheme string `json:"scheme"`
	}

	if err := request.DecodeJSON(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if err := wiz.SetScheme(input.Scheme); err != nil {
		h.failWizardError(w, r, err)
		return
	}

	if wiz.Step == wizard.StepScheme {
		if err := wiz.Next(); err != nil {
			h.failWizardError(w, r, err)
			return
		}
	}

	h.saveAndRespond(w, r, wiz)
}

// HandleSetPersonal replaces the step-2 fields and advances to the
// family step when they pass the gate.
func (h *WizardSessionHandler) HandleSetPersonal(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	var applicant wizard.Applicant
	if err := request.DecodeJSON(w, r, &applicant); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if err := wiz.SetPersonal(applicant); err != nil {
		h.failWizardError(w, r, err)
		return
	}

	if wiz.Step == wizard.StepPersonal {
		if err := wiz.Next(); err != nil {
			h.failWizardError(w, r, err)
			return
		}
	}

	h.saveAndRespond(w, r, wiz)
}

// HandleAddMember appends an empty family member row.
func (h *WizardSessionHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	idx := wiz.AddMember()

	data := map[string]any{
		"index":  idx,
		"wizard": wiz,
	}

	if err := h.Sessions.Save(r.PathValue("id"), wiz); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Member added"
	err := response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleUpdateMember patches one family member's fields.
func (h *WizardSessionHandler) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("member index must be a number"))
		return
	}

	var patch wizard.MemberPatch
	if err := request.DecodeJSON(w, r, &patch); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if err := validatePatchAttachments(patch); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if err := wiz.UpdateMember(idx, patch); err != nil {
		h.failWizardError(w, r, err)
		return
	}

	h.saveAndRespond(w, r, wiz)
}

// Attachments inside a JSON patch skipped the upload path, so the
// data-URI shape and size limit are checked before the patch lands.
func validatePatchAttachments(patch wizard.MemberPatch) error {
	for _, doc := range []struct {
		label string
		att   *models.Attachment
	}{
		{"Aadhar Image", patch.AadhaarImage},
		{"PAN Image", patch.PanImage},
		{"Income Certificate", patch.IncomeCertificate},
		{"Residential Certificate", patch.ResidentialCertificate},
	} {
		if doc.att == nil {
			continue
		}
		if err := document.Validate(doc.att); err != nil {
			return fmt.Errorf("%s: %w", doc.label, err)
		}
	}

	return nil
}

// HandleRemoveMember deletes one family member row.
func (h *WizardSessionHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("member index must be a number"))
		return
	}

	if err := wiz.RemoveMember(idx); err != nil {
		h.failWizardError(w, r, err)
		return
	}

	h.saveAndRespond(w, r, wiz)
}

// HandleUploadAttachment accepts one multipart file for a member slot
// or the family photo. Field names follow the form's input names.
func (h *WizardSessionHandler) HandleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, document.MaxFileSize*2)
	if err := r.ParseMultipartForm(document.MaxFileSize * 2); err != nil {
		h.ErrHandler.BadRequest(w, r, fmt.Errorf("could not parse multipart form: %w", err))
		return
	}

	field := r.FormValue("field")

	att, present, err := encodeFormFile(r, "file")
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}
	if !present {
		h.ErrHandler.BadRequest(w, r, errors.New("file is required"))
		return
	}

	if field == "familyPhoto" {
		wiz.SetFamilyPhoto(*att)
		h.saveAndRespond(w, r, wiz)
		return
	}

	idx, err := strconv.Atoi(r.FormValue("member"))
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("member index must be a number"))
		return
	}

	var patch wizard.MemberPatch
	switch field {
	case "aadharImage":
		patch.AadhaarImage = att
	case "panImage":
		patch.PanImage = att
	case "incomeCertificate":
		patch.IncomeCertificate = att
	case "residentialCertificate":
		patch.ResidentialCertificate = att
	default:
		h.ErrHandler.BadRequest(w, r, fmt.Errorf("unknown attachment field %q", field))
		return
	}

	if err := wiz.UpdateMember(idx, patch); err != nil {
		h.failWizardError(w, r, err)
		return
	}

	h.saveAndRespond(w, r, wiz)
}

// HandleBack steps the wizard backwards without losing entered data.
func (h *WizardSessionHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	if err := wiz.Back(); err != nil {
		h.failWizardError(w, r, err)
		return
	}

	h.saveAndRespond(w, r, wiz)
}

// HandleSubmit validates the family step, persists the application and
// returns the tracking id. The session survives a failed persist so
// the applicant's work is never lost.
func (h *WizardSessionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	wiz, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	app, err := wiz.Complete(time.Now())
	if err != nil {
		h.failWizardError(w, r, err)
		return
	}

	id, err := h.Submissions.Insert(app)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	wiz.MarkSubmitted(app.TrackingID)
	if err := h.Sessions.Save(sessionID, wiz); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	msg := SubmittedMessage{
		ID:         id,
		TrackingID: app.TrackingID,
		Scheme:     app.Scheme,
		Name:       app.Name,
		Email:      app.Email,
	}

	h.Helper.BackgroundTask(r, func() error {
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return h.Stream.ProduceMessage(stream.TopicApplicationSubmitted, string(payload))
	})

	data := map[string]string{
		"tracking_id": app.TrackingID,
	}

	message := "Application submitted successfully"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WizardSessionHandler) loadSession(w http.ResponseWriter, r *http.Request) (*wizard.Wizard, bool) {
	wiz, err := h.Sessions.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			h.ErrHandler.NotFound(w, r)
			return nil, false
		}
		h.ErrHandler.ServerError(w, r, err)
		return nil, false
	}

	return wiz, true
}

func (h *WizardSessionHandler) saveAndRespond(w http.ResponseWriter, r *http.Request, wiz *wizard.Wizard) {
	if err := h.Sessions.Save(r.PathValue("id"), wiz); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Data saved successfully"
	err := response.JSONOkResponse(w, wiz, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WizardSessionHandler) failWizardError(w http.ResponseWriter, r *http.Request, err error) {
	var incomplete *wizard.IncompleteStepError
	switch {
	case errors.As(err, &incomplete):
		h.ErrHandler.FailedValidation(w, r, []string{incomplete.Error()})
	case errors.Is(err, wizard.ErrSubmitted):
		h.ErrHandler.Conflict(w, r, err.Error())
	case errors.Is(err, wizard.ErrNoSuchMember),
		errors.Is(err, wizard.ErrLastMember),
		errors.Is(err, wizard.ErrUnknownScheme),
		errors.Is(err, wizard.ErrWrongStep):
		h.ErrHandler.BadRequest(w, r, err)
	default:
		h.ErrHandler.ServerError(w, r, err)
	}
}
