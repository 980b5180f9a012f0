package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nyaaypath/nyaaypath/internal/config"
	"github.com/nyaaypath/nyaaypath/internal/context"
	"github.com/nyaaypath/nyaaypath/internal/errHandler"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/response"

	"github.com/pascaldekloe/jwt"
	"github.com/tomasen/realip"
)

type Middleware struct {
	errHandler  *errHandler.ErrorHandler
	logger      *slog.Logger
	AccountRepo repository.AccountRepository
	AdminRepo   repository.AdminRepository
	config      *config.Config
}

func New(errHandler *errHandler.ErrorHandler, logger *slog.Logger, accountRepo repository.AccountRepository, adminRepo repository.AdminRepository, config *config.Config) *Middleware {
	return &Middleware{
		errHandler:  errHandler,
		logger:      logger,
		AccountRepo: accountRepo,
		AdminRepo:   adminRepo,
		config:      config,
	}
}

func (mid *Middleware) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err != nil {
				mid.errHandler.ServerError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) LogAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		var (
			ip     = realip.FromRequest(r)
			method = r.Method
			url    = r.URL.String()
			proto  = r.Proto
		)

		userAttrs := slog.Group("user", "ip", ip)
		requestAttrs := slog.Group("request", "method", method, "url", url, "proto", proto)
		responseAttrs := slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount)

		mid.logger.Info("access", userAttrs, requestAttrs, responseAttrs)
	})
}

func (mid *Middleware) Authenticate(next http.Handler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")

		if authorizationHeader != "" {
			headerParts := strings.Split(authorizationHeader, " ")

			if len(headerParts) == 2 && headerParts[0] == "Bearer" {
				token := headerParts[1]

				claims, err := jwt.HMACCheck([]byte(token), []byte(mid.config.Jwt.SecretKey))
				if err != nil {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if !claims.Valid(time.Now()) {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if claims.Issuer != mid.config.BaseURL {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if !claims.AcceptAudience(mid.config.BaseURL) {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				accountID := claims.Subject

				account, found, err := mid.AccountRepo.GetOne(accountID)
				if err != nil {
					mid.errHandler.ServerError(w, r, err)
					return
				}

				// Revoked accounts keep their token until expiry, so the
				// status has to be re-checked on every request.
				if found && account.Status == repository.AccountActiveStatus {
					admin, adminFound, err := mid.AdminRepo.GetByAccountID(account.ID)
					if err != nil {
						mid.errHandler.ServerError(w, r, err)
						return
					}

					if adminFound {
						r = context.ContextSetAuthenticatedAdmin(r, &context.AuthenticatedAdmin{
							Account: account,
							Admin:   admin,
						})
					}
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) RequireAuthenticatedAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authenticatedAdmin := context.ContextGetAuthenticatedAdmin(r)

		if authenticatedAdmin == nil {
			mid.errHandler.AuthenticationRequired(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdminLevel restricts a route to admins of the given levels.
func (mid *Middleware) RequireAdminLevel(levels ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticatedAdmin := context.ContextGetAuthenticatedAdmin(r)

			if authenticatedAdmin == nil {
				mid.errHandler.AuthenticationRequired(w, r)
				return
			}

			for _, level := range levels {
				if authenticatedAdmin.Admin.Level == level {
					next.ServeHTTP(w, r)
					return
				}
			}

			mid.errHandler.Forbidden(w, r)
		})
	}
}
