package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/cradoe/gopass"

	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/smtp"
)

const resetTokenTTL = 45 * time.Minute

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountRevoked     = errors.New("account has been revoked")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// Provisioner owns the admin account lifecycle: credential checks,
// password resets and revocation. Account rows are only ever created
// by the approval flow, which is why there is no public sign-up here.
type Provisioner struct {
	Accounts    repository.AccountRepository
	ResetTokens repository.ResetTokenRepository
	Mailer      smtp.MailerInterface
	BaseURL     string
}

func New(accounts repository.AccountRepository, resetTokens repository.ResetTokenRepository, mailer smtp.MailerInterface, baseURL string) *Provisioner {
	return &Provisioner{
		Accounts:    accounts,
		ResetTokens: resetTokens,
		Mailer:      mailer,
		BaseURL:     baseURL,
	}
}

// Authenticate resolves an email/password pair to an active account.
func (p *Provisioner) Authenticate(email, password string) (*models.Account, error) {
	account, found, err := p.Accounts.GetByEmail(email)
	if err != nil {
		return nil, err
	}

	if !found {
		// Burn a comparison anyway so the response time does not leak
		// whether the email exists.
		_, _ = gopass.ComparePasswordAndHash(password, "$argon2id$v=19$m=65536,t=1,p=2$c29tZXNhbHQ$bm90YXJlYWxoYXNo")
		return nil, ErrInvalidCredentials
	}

	matches, err := gopass.ComparePasswordAndHash(password, account.HashedPassword)
	if err != nil {
		return nil, err
	}

	if !matches {
		return nil, ErrInvalidCredentials
	}

	if account.Status != repository.AccountActiveStatus {
		return nil, ErrAccountRevoked
	}

	return account, nil
}

// StartPasswordReset issues a single-use token and mails the reset
// link. Unknown emails are treated as success so the endpoint cannot
// be used to probe which addresses hold admin accounts.
func (p *Provisioner) StartPasswordReset(email string) error {
	account, found, err := p.Accounts.GetByEmail(email)
	if err != nil {
		return err
	}

	if !found || account.Status != repository.AccountActiveStatus {
		return nil
	}

	token, err := generateToken()
	if err != nil {
		return err
	}

	err = p.ResetTokens.Insert(hashToken(token), account.ID, time.Now().Add(resetTokenTTL))
	if err != nil {
		return err
	}

	data := map[string]any{
		"ResetURL":      fmt.Sprintf("%s/admin/reset-password?token=%s", p.BaseURL, token),
		"ExpiryMinutes": int(resetTokenTTL.Minutes()),
	}

	return p.Mailer.Send(account.Email, data, "password-reset.tmpl")
}

// ResetPassword consumes a reset token and stores the new password
// hash. All outstanding tokens for the account are invalidated.
func (p *Provisioner) ResetPassword(token, newPassword string) error {
	accountID, found, err := p.ResetTokens.GetAccountID(hashToken(token))
	if err != nil {
		return err
	}

	if !found {
		return ErrInvalidResetToken
	}

	hashedPassword, err := gopass.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := p.Accounts.UpdateHashedPassword(accountID, hashedPassword); err != nil {
		return err
	}

	return p.ResetTokens.DeleteAllForAccount(accountID)
}

// Revoke withdraws an account's access immediately.
func (p *Provisioner) Revoke(accountID string) error {
	if err := p.ResetTokens.DeleteAllForAccount(accountID); err != nil {
		return err
	}

	return p.Accounts.Revoke(accountID)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Only the hash touches the database; a leaked table cannot be used
// to reset anyone's password.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
