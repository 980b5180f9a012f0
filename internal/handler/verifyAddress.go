package handler

import (
	"errors"
	"net/http"

	"github.com/nyaaypath/nyaaypath/internal/errHandler"
	"github.com/nyaaypath/nyaaypath/internal/request"
	"github.com/nyaaypath/nyaaypath/internal/response"
	"github.com/nyaaypath/nyaaypath/internal/validator"
	"github.com/nyaaypath/nyaaypath/internal/verify"
)

type VerifyAddressHandler struct {
	Checker    *verify.AddressChecker
	ErrHandler *errHandler.ErrorHandler
}

func NewVerifyAddressHandler(handler *VerifyAddressHandler) *VerifyAddressHandler {
	return &VerifyAddressHandler{
		Checker:    handler.Checker,
		ErrHandler: handler.ErrHandler,
	}
}

// HandleVerifyAddress asks the upstream service whether the entered
// address hangs together before the applicant moves on.
func (h *VerifyAddressHandler) HandleVerifyAddress(w http.ResponseWriter, r *http.Request) {
	var input struct {
		State     string              `json:"state"`
		District  string              `json:"district"`
		PinCode   string              `json:"pin_code"`
		Address   string              `json:"address"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.State), "State is required")
	input.Validator.Check(validator.NotBlank(input.District), "District is required")
	input.Validator.Check(validator.Matches(input.PinCode, validator.RgxPinCode), "Pin code must be a valid 6-digit code")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	result, err := h.Checker.Check(r.Context(), verify.Address{
		State:    input.State,
		District: input.District,
		PinCode:  input.PinCode,
		Address:  input.Address,
	})
	if err != nil {
		if errors.Is(err, verify.ErrUnavailable) {
			response.JSONErrorResponse(w, nil, "Address verification is currently unavailable", http.StatusServiceUnavailable, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Address checked"
	err = response.JSONOkResponse(w, result, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
