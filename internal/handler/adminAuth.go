package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"

	"github.com/nyaaypath/nyaaypath/internal/config"
	"github.com/nyaaypath/nyaaypath/internal/errHandler"
	"github.com/nyaaypath/nyaaypath/internal/helper"
	"github.com/nyaaypath/nyaaypath/internal/identity"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/request"
	"github.com/nyaaypath/nyaaypath/internal/response"
	"github.com/nyaaypath/nyaaypath/internal/validator"
)

type AdminAuthHandler struct {
	Identity   *identity.Provisioner
	Admins     repository.AdminRepository
	Config     *config.Config
	Helper     *helper.HelperRepository
	ErrHandler *errHandler.ErrorHandler
}

func NewAdminAuthHandler(handler *AdminAuthHandler) *AdminAuthHandler {
	return &AdminAuthHandler{
		Identity:   handler.Identity,
		Admins:     handler.Admins,
		Config:     handler.Config,
		Helper:     handler.Helper,
		ErrHandler: handler.ErrHandler,
	}
}

// HandleAdminLogin signs an admin in and issues a bearer token scoped
// to this deployment.
func (h *AdminAuthHandler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	account, err := h.Identity.Authenticate(input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			h.ErrHandler.FailedValidation(w, r, []string{"Incorrect email/password"})
		case errors.Is(err, identity.ErrAccountRevoked):
			response.JSONErrorResponse(w, nil, "Account access has been revoked. Please contact your administrator", http.StatusForbidden, nil)
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	admin, found, err := h.Admins.GetByAccountID(account.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.AuthenticationRequired(w, r)
		return
	}

	var claims jwt.Claims
	claims.Subject = account.ID

	expiry := time.Now().Add(24 * time.Hour)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"auth_token":   string(jwtBytes),
		"token_expiry": expiry.Format(time.RFC3339),
		"level":        admin.Level,
		"state":        admin.State,
		"district":     admin.District,
	}
	message := "Login successful"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandlePasswordReset mails a reset link. The response is identical
// whether or not the email has an account.
func (h *AdminAuthHandler) HandlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		return h.Identity.StartPasswordReset(input.Email)
	})

	message := "If that email has an admin account, a reset link has been sent"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandlePasswordResetConfirm consumes the token and sets the new
// password.
func (h *AdminAuthHandler) HandlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token     string              `json:"token"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Token), "Token is required")

	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	err = h.Identity.ResetPassword(input.Token, input.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidResetToken) {
			h.ErrHandler.FailedValidation(w, r, []string{"Invalid or expired reset token"})
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Password updated successfully"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
