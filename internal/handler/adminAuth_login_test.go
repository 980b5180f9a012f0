package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cradoe/gopass"
	"github.com/stretchr/testify/require"

	"github.com/nyaaypath/nyaaypath/internal/identity"
	"github.com/nyaaypath/nyaaypath/internal/mocks"
	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/repository"
)

func newLoginHandler(t *testing.T, password string) (*AdminAuthHandler, *mocks.MockAccountRepo, *mocks.MockAdminRepo) {
	t.Helper()

	hashed, err := gopass.Hash(password)
	require.NoError(t, err)

	accounts := new(mocks.MockAccountRepo)
	accounts.On("GetByEmail", "state.admin@example.com").Return(&models.Account{
		ID:             "acc-1",
		Email:          "state.admin@example.com",
		HashedPassword: hashed,
		Status:         repository.AccountActiveStatus,
	}, true, nil)

	admins := new(mocks.MockAdminRepo)

	h := NewAdminAuthHandler(&AdminAuthHandler{
		Identity:   identity.New(accounts, nil, nil, mocks.MockConfig.BaseURL),
		Admins:     admins,
		Config:     mocks.MockConfig,
		ErrHandler: newTestErrorHandler(),
	})

	return h, accounts, admins
}

func postLogin(t *testing.T, h *AdminAuthHandler, payload map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.HandleAdminLogin(rr, req)
	return rr
}

func TestHandleAdminLoginIssuesScopedToken(t *testing.T) {
	h, accounts, admins := newLoginHandler(t, "Str0ngPassw0rd!")

	admins.On("GetByAccountID", "acc-1").Return(&models.Admin{
		ID:        "adm-1",
		AccountID: "acc-1",
		Level:     models.LevelState,
		State:     "Bihar",
	}, true, nil)

	rr := postLogin(t, h, map[string]string{
		"email":    "state.admin@example.com",
		"password": "Str0ngPassw0rd!",
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].(map[string]any)
	require.True(t, ok, "expected data in response")
	require.NotEmpty(t, data["auth_token"])
	require.NotEmpty(t, data["token_expiry"])
	require.Equal(t, models.LevelState, data["level"])
	require.Equal(t, "Bihar", data["state"])

	accounts.AssertExpectations(t)
	admins.AssertExpectations(t)
}

func TestHandleAdminLoginWrongPassword(t *testing.T) {
	h, _, admins := newLoginHandler(t, "Str0ngPassw0rd!")

	rr := postLogin(t, h, map[string]string{
		"email":    "state.admin@example.com",
		"password": "not-the-password",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "Incorrect email/password")

	admins.AssertNotCalled(t, "GetByAccountID", "acc-1")
}

func TestHandleAdminLoginRevokedAccount(t *testing.T) {
	hashed, err := gopass.Hash("Str0ngPassw0rd!")
	require.NoError(t, err)

	accounts := new(mocks.MockAccountRepo)
	accounts.On("GetByEmail", "revoked@example.com").Return(&models.Account{
		ID:             "acc-9",
		Email:          "revoked@example.com",
		HashedPassword: hashed,
		Status:         repository.AccountRevokedStatus,
	}, true, nil)

	h := NewAdminAuthHandler(&AdminAuthHandler{
		Identity:   identity.New(accounts, nil, nil, mocks.MockConfig.BaseURL),
		Admins:     new(mocks.MockAdminRepo),
		Config:     mocks.MockConfig,
		ErrHandler: newTestErrorHandler(),
	})

	rr := postLogin(t, h, map[string]string{
		"email":    "revoked@example.com",
		"password": "Str0ngPassw0rd!",
	})

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandleAdminLoginValidatesInput(t *testing.T) {
	h, accounts, _ := newLoginHandler(t, "Str0ngPassw0rd!")

	rr := postLogin(t, h, map[string]string{
		"email":    "not-an-email",
		"password": "",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "Must be a valid email address")
	require.Contains(t, rr.Body.String(), "Password is required")

	accounts.AssertNotCalled(t, "GetByEmail", "not-an-email")
}
