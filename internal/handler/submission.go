package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nyaaypath/nyaaypath/internal/approval"
	"github.com/nyaaypath/nyaaypath/internal/document"
	"github.com/nyaaypath/nyaaypath/internal/errHandler"
	"github.com/nyaaypath/nyaaypath/internal/helper"
	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/request"
	"github.com/nyaaypath/nyaaypath/internal/response"
	"github.com/nyaaypath/nyaaypath/internal/stream"
	"github.com/nyaaypath/nyaaypath/internal/tracking"
	"github.com/nyaaypath/nyaaypath/internal/validator"
	"github.com/nyaaypath/nyaaypath/internal/verify"
	"github.com/nyaaypath/nyaaypath/internal/wizard"
)

// Five attachments of up to 5MB each, plus base64 expansion and the
// text fields, comfortably fit in this cap.
const maxSubmissionBytes = 40 << 20

type SubmissionHandler struct {
	Submissions repository.SubmissionRepository
	OCR         *verify.OCRClient
	Stream      stream.Streamer
	Hub         *approval.Hub
	Helper      *helper.HelperRepository
	ErrHandler  *errHandler.ErrorHandler
}

func NewSubmissionHandler(handler *SubmissionHandler) *SubmissionHandler {
	return &SubmissionHandler{
		Submissions: handler.Submissions,
		OCR:         handler.OCR,
		Stream:      handler.Stream,
		Hub:         handler.Hub,
		Helper:      handler.Helper,
		ErrHandler:  handler.ErrHandler,
	}
}

// SubmittedMessage is the payload produced to the submission topic and
// consumed by the notification worker.
type SubmittedMessage struct {
	ID         string `json:"id"`
	TrackingID string `json:"tracking_id"`
	Scheme     string `json:"scheme"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// HandleSubmitApplication accepts the whole application in one
// multipart request. The same wizard that backs the session API drives
// validation here, so both entry points enforce identical rules.
func (h *SubmissionHandler) HandleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)

	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		h.ErrHandler.BadRequest(w, r, fmt.Errorf("could not parse multipart form: %w", err))
		return
	}

	wiz := wizard.New()

	if err := wiz.SetScheme(r.FormValue("scheme")); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}
	if err := wiz.Next(); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	applicant := wizard.Applicant{
		Name:          r.FormValue("name"),
		Age:           r.FormValue("age"),
		Occupation:    r.FormValue("occupation"),
		State:         r.FormValue("state"),
		District:      r.FormValue("district"),
		PinCode:       r.FormValue("pinCode"),
		WardNo:        r.FormValue("wardNo"),
		Address:       r.FormValue("address"),
		MobileNo:      r.FormValue("mobileNo"),
		Email:         r.FormValue("email"),
		AadhaarNo:     r.FormValue("aadharNo"),
		PanNo:         r.FormValue("panNo"),
		LandOwner:     r.FormValue("landOwner"),
		MaritalStatus: r.FormValue("maritalStatus"),
	}

	var v validator.Validator
	if applicant.Email != "" {
		v.Check(validator.IsEmail(applicant.Email), "Must be a valid email address")
	}
	if v.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, v.Errors)
		return
	}

	for _, f := range []struct {
		field string
		dest  *models.NullAttachment
	}{
		{"aadharImage", &applicant.AadhaarImage},
		{"panImage", &applicant.PanImage},
		{"incomeCertificate", &applicant.IncomeCertificate},
		{"residentialCertificate", &applicant.ResidentialCertificate},
	} {
		att, ok, err := encodeFormFile(r, f.field)
		if err != nil {
			h.ErrHandler.BadRequest(w, r, fmt.Errorf("%s: %w", f.field, err))
			return
		}
		if ok {
			*f.dest = models.NullAttachment{Attachment: *att, Valid: true}
		}
	}

	if err := wiz.SetPersonal(applicant); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if err := wiz.Next(); err != nil {
		h.failStepError(w, r, err)
		return
	}

	if familyPhoto, ok, err := encodeFormFile(r, "familyPhoto"); err != nil {
		h.ErrHandler.BadRequest(w, r, fmt.Errorf("familyPhoto: %w", err))
		return
	} else if ok {
		wiz.SetFamilyPhoto(*familyPhoto)
	}

	// Additional members beyond the applicant arrive as a JSON part
	// with attachments already inlined as data URIs. Those inlined
	// payloads never went through the upload path, so the data-URI
	// shape and size limit are checked here.
	if membersJSON := r.FormValue("familyMembers"); membersJSON != "" {
		var extra models.FamilyMembers
		if err := json.Unmarshal([]byte(membersJSON), &extra); err != nil {
			h.ErrHandler.BadRequest(w, r, fmt.Errorf("familyMembers must be a JSON array: %w", err))
			return
		}

		if err := validateInlineAttachments(extra); err != nil {
			h.ErrHandler.BadRequest(w, r, err)
			return
		}

		wiz.Members = append(wiz.Members, extra...)
	}

	app, err := wiz.Complete(time.Now())
	if err != nil {
		h.failStepError(w, r, err)
		return
	}

	id, err := h.Submissions.Insert(app)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.announceSubmission(r, id, app)

	data := map[string]string{
		"tracking_id": app.TrackingID,
	}
	message := "Application submitted successfully"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *SubmissionHandler) failStepError(w http.ResponseWriter, r *http.Request, err error) {
	var incomplete *wizard.IncompleteStepError
	if errors.As(err, &incomplete) {
		h.ErrHandler.FailedValidation(w, r, []string{incomplete.Error()})
		return
	}
	h.ErrHandler.BadRequest(w, r, err)
}

func (h *SubmissionHandler) announceSubmission(r *http.Request, id string, app *models.Application) {
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
}

// HandleListRequests serves the dashboard's submission list, newest
// first, optionally filtered by a tracking-id search.
func (h *SubmissionHandler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	apps, err := h.Submissions.All()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if queryValues.Search != "" {
		needle := tracking.Normalize(queryValues.Search)
		filtered := apps[:0]
		for _, app := range apps {
			if app.TrackingID == needle {
				filtered = append(filtered, app)
			}
		}
		apps = filtered
	}

	if queryValues.Offset >= len(apps) {
		apps = []models.Application{}
	} else {
		end := queryValues.Offset + queryValues.Limit
		if end > len(apps) {
			end = len(apps)
		}
		apps = apps[queryValues.Offset:end]
	}

	message := "Data retrieved successfully"
	if len(apps) == 0 {
		message = "No applications found"
	}

	err = response.JSONOkResponse(w, apps, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleTrackApplication is the citizen-facing tracking-id lookup.
func (h *SubmissionHandler) HandleTrackApplication(w http.ResponseWriter, r *http.Request) {
	trackingID := tracking.Normalize(r.PathValue("trackingId"))

	if !tracking.Valid(trackingID) {
		h.ErrHandler.BadRequest(w, r, errors.New("invalid tracking id"))
		return
	}

	app, found, err := h.Submissions.GetByTrackingID(trackingID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	data := map[string]any{
		"tracking_id": app.TrackingID,
		"scheme":      app.Scheme,
		"name":        app.Name,
		"status":      app.Status,
		"created_at":  app.CreatedAt,
	}

	message := "Data retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleUpdateStatus records a review verdict on one application.
func (h *SubmissionHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	appID := r.PathValue("id")

	var input struct {
		Status    string              `json:"status"`
		Validator validator.Validator `json:"-"`
	}

	if err := request.DecodeJSON(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Status), "Status is required")
	input.Validator.Check(validator.In(input.Status, repository.ApplicationStatuses()...), "Unknown status")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	app, found, err := h.Submissions.GetOne(appID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if err := h.Submissions.UpdateStatus(appID, input.Status); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if h.Hub != nil {
		h.Hub.Broadcast(approval.Event{
			Kind: approval.EventApplicationStatus,
			Payload: map[string]string{
				"id":          appID,
				"tracking_id": app.TrackingID,
				"status":      input.Status,
			},
		})
	}

	message := "Status updated successfully"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleVerifyDocument relays one stored document to the OCR service
// and returns its verdict.
func (h *SubmissionHandler) HandleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	appID := r.PathValue("id")

	app, found, err := h.Submissions.GetOne(appID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	var att models.NullAttachment
	switch doc := r.URL.Query().Get("doc"); doc {
	case "aadhar":
		att = app.AadhaarImage
	case "pan":
		att = app.PanImage
	case "income":
		att = app.IncomeCertificate
	case "residential":
		att = app.ResidentialCertificate
	default:
		h.ErrHandler.BadRequest(w, r, fmt.Errorf("unknown document %q", doc))
		return
	}

	if !att.Valid {
		h.ErrHandler.NotFound(w, r)
		return
	}

	blob, mimeType, err := document.Decode(&att.Attachment)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	result, err := h.OCR.VerifyDocument(r.Context(), blob, mimeType, app.Name)
	if err != nil {
		if errors.Is(err, verify.ErrUnavailable) {
			response.JSONErrorResponse(w, nil, "Document verification is currently unavailable", http.StatusServiceUnavailable, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Document verified"
	err = response.JSONOkResponse(w, result, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// validateInlineAttachments runs the codec checks over attachments
// that arrived inside member JSON. Member numbering continues from the
// applicant, who is always member 1.
func validateInlineAttachments(members models.FamilyMembers) error {
	for i, m := range members {
		for _, doc := range []struct {
			label string
			att   models.NullAttachment
		}{
			{"Aadhar Image", m.AadhaarImage},
			{"PAN Image", m.PanImage},
			{"Income Certificate", m.IncomeCertificate},
			{"Residential Certificate", m.ResidentialCertificate},
		} {
			if !doc.att.Valid {
				continue
			}
			if err := document.Validate(&doc.att.Attachment); err != nil {
				return fmt.Errorf("member %d: %s: %w", i+2, doc.label, err)
			}
		}
	}

	return nil
}

// encodeFormFile reads one optional uploaded file into an attachment.
// The bool reports whether the field was present at all.
func encodeFormFile(r *http.Request, field string) (*models.Attachment, bool, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	att, err := document.Encode(header.Filename, f)
	if err != nil {
		return nil, false, err
	}

	return att, true, nil
}
