package identity

import (
	"testing"
	"time"

	"github.com/cradoe/gopass"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nyaaypath/nyaaypath/internal/mocks"
	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/repository"
)

func activeAccount(t *testing.T, password string) *models.Account {
	t.Helper()

	hashed, err := gopass.Hash(password)
	require.NoError(t, err)

	return &models.Account{
		ID:             "acc-1",
		Email:          "admin@example.com",
		HashedPassword: hashed,
		Status:         repository.AccountActiveStatus,
	}
}

func TestAuthenticateValidCredentials(t *testing.T) {
	accounts := new(mocks.MockAccountRepo)
	account := activeAccount(t, "Str0ngPassw0rd!")

	accounts.On("GetByEmail", "admin@example.com").Return(account, true, nil)

	p := New(accounts, nil, nil, "http://localhost")

	got, err := p.Authenticate("admin@example.com", "Str0ngPassw0rd!")
	require.NoError(t, err)
	require.Equal(t, account.ID, got.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	accounts := new(mocks.MockAccountRepo)
	account := activeAccount(t, "Str0ngPassw0rd!")

	accounts.On("GetByEmail", "admin@example.com").Return(account, true, nil)

	p := New(accounts, nil, nil, "http://localhost")

	_, err := p.Authenticate("admin@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	accounts := new(mocks.MockAccountRepo)
	accounts.On("GetByEmail", "nobody@example.com").Return(nil, false, nil)

	p := New(accounts, nil, nil, "http://localhost")

	_, err := p.Authenticate("nobody@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRevokedAccount(t *testing.T) {
	accounts := new(mocks.MockAccountRepo)
	account := activeAccount(t, "Str0ngPassw0rd!")
	account.Status = repository.AccountRevokedStatus

	accounts.On("GetByEmail", "admin@example.com").Return(account, true, nil)

	p := New(accounts, nil, nil, "http://localhost")

	_, err := p.Authenticate("admin@example.com", "Str0ngPassw0rd!")
	require.ErrorIs(t, err, ErrAccountRevoked)
}

func TestStartPasswordResetUnknownEmailIsSilent(t *testing.T) {
	accounts := new(mocks.MockAccountRepo)
	resetTokens := new(mocks.MockResetTokenRepo)
	mailer := new(mocks.MockMailer)

	accounts.On("GetByEmail", "nobody@example.com").Return(nil, false, nil)

	p := New(accounts, resetTokens, mailer, "http://localhost")

	err := p.StartPasswordReset("nobody@example.com")
	require.NoError(t, err)

	resetTokens.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartPasswordResetStoresHashAndMails(t *testing.T) {
	accounts := new(mocks.MockAccountRepo)
	resetTokens := new(mocks.MockResetTokenRepo)
	mailer := new(mocks.MockMailer)

	account := activeAccount(t, "Str0ngPassw0rd!")
	accounts.On("GetByEmail", "admin@example.com").Return(account, true, nil)

	var storedHash string
	resetTokens.On("Insert", mock.Anything, "acc-1", mock.Anything).
		Run(func(args mock.Arguments) {
			storedHash = args.String(0)
			expiresAt := args.Get(2).(time.Time)
			require.True(t, expiresAt.After(time.Now()))
		}).
		Return(nil)

	mailer.On("Send", "admin@example.com", mock.Anything, []string{"password-reset.tmpl"}).Return(nil)

	p := New(accounts, resetTokens, mailer, "http://localhost")

	err := p.StartPasswordReset("admin@example.com")
	require.NoError(t, err)

	// The stored value is a sha256 hex digest, never the raw token.
	require.Len(t, storedHash, 64)

	resetTokens.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestResetPasswordInvalidToken(t *testing.T) {
	accounts := new(mocks.MockAccountRepo)
	resetTokens := new(mocks.MockResetTokenRepo)

	resetTokens.On("GetAccountID", mock.Anything).Return("", false, nil)

	p := New(accounts, resetTokens, nil, "http://localhost")

	err := p.ResetPassword("bogus", "NewStr0ngPassw0rd!")
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPasswordUpdatesHashAndClearsTokens(t *testing.T) {
	accounts := new(mocks.MockAccountRepo)
	resetTokens := new(mocks.MockResetTokenRepo)

	resetTokens.On("GetAccountID", hashToken("good-token")).Return("acc-1", true, nil)

	accounts.On("UpdateHashedPassword", "acc-1", mock.Anything).
		Run(func(args mock.Arguments) {
			matches, err := gopass.ComparePasswordAndHash("NewStr0ngPassw0rd!", args.String(1))
			require.NoError(t, err)
			require.True(t, matches)
		}).
		Return(nil)

	resetTokens.On("DeleteAllForAccount", "acc-1").Return(nil)

	p := New(accounts, resetTokens, nil, "http://localhost")

	err := p.ResetPassword("good-token", "NewStr0ngPassw0rd!")
	require.NoError(t, err)

	accounts.AssertExpectations(t)
	resetTokens.AssertExpectations(t)
}

func TestRevokeClearsTokensFirst(t *testing.T) {
	accounts := new(mocks.MockAccountRepo)
	resetTokens := new(mocks.MockResetTokenRepo)

	resetTokens.On("DeleteAllForAccount", "acc-1").Return(nil)
	accounts.On("Revoke", "acc-1").Return(nil)

	p := New(accounts, resetTokens, nil, "http://localhost")

	err := p.Revoke("acc-1")
	require.NoError(t, err)

	accounts.AssertExpectations(t)
	resetTokens.AssertExpectations(t)
}
