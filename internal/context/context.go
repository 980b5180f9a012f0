package context

import (
	"context"
	"net/http"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

type contextKey string

const (
	authenticatedAdminContextKey = contextKey("authenticatedAdmin")
)

// AuthenticatedAdmin carries both the login account and the admin
// profile resolved from a bearer token.
type AuthenticatedAdmin struct {
	Account *models.Account
	Admin   *models.Admin
}

func ContextSetAuthenticatedAdmin(r *http.Request, admin *AuthenticatedAdmin) *http.Request {
	ctx := context.WithValue(r.Context(), authenticatedAdminContextKey, admin)
	return r.WithContext(ctx)
}

func ContextGetAuthenticatedAdmin(r *http.Request) *AuthenticatedAdmin {
	admin, ok := r.Context().Value(authenticatedAdminContextKey).(*AuthenticatedAdmin)
	if !ok {
		return nil
	}

	return admin
}
