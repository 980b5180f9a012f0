package app

import (
	"net/http"

	"github.com/nyaaypath/nyaaypath/internal/handler"
	"github.com/nyaaypath/nyaaypath/internal/middleware"
	"github.com/nyaaypath/nyaaypath/internal/models"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	mid := middleware.New(app.ErrHandler, app.Logger, app.DB.Account(), app.DB.Admin(), &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.ErrHandler)

	submissionHandler := handler.NewSubmissionHandler(&handler.SubmissionHandler{
		Submissions: app.DB.Submission(),
		OCR:         app.OCR,
		Stream:      app.Kafka,
		Hub:         app.Hub,
		Helper:      app.Helper,
		ErrHandler:  app.ErrHandler,
	})

	wizardHandler := handler.NewWizardSessionHandler(&handler.WizardSessionHandler{
		Sessions:    app.Sessions,
		Submissions: app.DB.Submission(),
		Stream:      app.Kafka,
		Helper:      app.Helper,
		ErrHandler:  app.ErrHandler,
	})

	adminAuthHandler := handler.NewAdminAuthHandler(&handler.AdminAuthHandler{
		Identity:   app.Identity,
		Admins:     app.DB.Admin(),
		Config:     &app.Config,
		Helper:     app.Helper,
		ErrHandler: app.ErrHandler,
	})

	adminRequestHandler := handler.NewAdminRequestHandler(&handler.AdminRequestHandler{
		Requests:   app.DB.AdminRequest(),
		Accounts:   app.DB.Account(),
		Admins:     app.DB.Admin(),
		Approval:   app.Approval,
		Hub:        app.Hub,
		ErrHandler: app.ErrHandler,
	})

	verifyAddressHandler := handler.NewVerifyAddressHandler(&handler.VerifyAddressHandler{
		Checker:    app.AddressChecker,
		ErrHandler: app.ErrHandler,
	})

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	// citizen-facing surface
	mux.HandleFunc("POST /submit-application", submissionHandler.HandleSubmitApplication)
	mux.HandleFunc("GET /requests", submissionHandler.HandleListRequests)
	mux.HandleFunc("GET /requests/track/{trackingId}", submissionHandler.HandleTrackApplication)
	mux.HandleFunc("POST /ai-verify-address", verifyAddressHandler.HandleVerifyAddress)

	// multi-step wizard sessions
	mux.HandleFunc("POST /applications/wizard", wizardHandler.HandleCreateSession)
	mux.HandleFunc("GET /applications/wizard/{id}", wizardHandler.HandleGetSession)
	mux.HandleFunc("POST /applications/wizard/{id}/scheme", wizardHandler.HandleSetScheme)
	mux.HandleFunc("POST /applications/wizard/{id}/personal", wizardHandler.HandleSetPersonal)
	mux.HandleFunc("POST /applications/wizard/{id}/family/members", wizardHandler.HandleAddMember)
	mux.HandleFunc("PATCH /applications/wizard/{id}/family/members/{idx}", wizardHandler.HandleUpdateMember)
	mux.HandleFunc("DELETE /applications/wizard/{id}/family/members/{idx}", wizardHandler.HandleRemoveMember)
	mux.HandleFunc("POST /applications/wizard/{id}/family/attachments", wizardHandler.HandleUploadAttachment)
	mux.HandleFunc("POST /applications/wizard/{id}/back", wizardHandler.HandleBack)
	mux.HandleFunc("POST /applications/wizard/{id}/submit", wizardHandler.HandleSubmit)

	// admin access flow
	mux.HandleFunc("POST /admin/{level}/requests", adminRequestHandler.HandleRegister)
	mux.HandleFunc("POST /admin/login", adminAuthHandler.HandleAdminLogin)
	mux.HandleFunc("POST /admin/password-reset", adminAuthHandler.HandlePasswordReset)
	mux.HandleFunc("POST /admin/password-reset/confirm", adminAuthHandler.HandlePasswordResetConfirm)

	// review surface, scoped per level of the chain
	nationalOnly := mid.RequireAdminLevel(models.LevelNational)
	stateOnly := mid.RequireAdminLevel(models.LevelState)
	reviewers := mid.RequireAdminLevel(models.LevelNational, models.LevelState)
	anyAdmin := mid.RequireAdminLevel(models.LevelNational, models.LevelState, models.LevelDistrict)

	mux.Handle("GET /admin/states", nationalOnly(http.HandlerFunc(adminRequestHandler.HandleListStates)))
	mux.Handle("GET /admin/state/requests", nationalOnly(http.HandlerFunc(adminRequestHandler.HandleListStateRequests)))
	mux.Handle("GET /admin/district/requests", stateOnly(http.HandlerFunc(adminRequestHandler.HandleListDistrictRequests)))
	mux.Handle("POST /admin/requests/{id}/approve", reviewers(http.HandlerFunc(adminRequestHandler.HandleApprove)))
	mux.Handle("POST /admin/requests/{id}/reject", reviewers(http.HandlerFunc(adminRequestHandler.HandleReject)))
	mux.Handle("GET /admin/requests/stream", anyAdmin(http.HandlerFunc(adminRequestHandler.HandleStream)))
	mux.Handle("PATCH /requests/{id}/status", anyAdmin(http.HandlerFunc(submissionHandler.HandleUpdateStatus)))
	mux.Handle("GET /requests/{id}/verify-document", anyAdmin(http.HandlerFunc(submissionHandler.HandleVerifyDocument)))

	return mid.LogAccess(mid.RecoverPanic(mid.Authenticate(mux)))
}
