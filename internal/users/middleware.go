package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clubhouse/clubhouse/internal/shared"
)

// Finder is the lookup the identity middleware needs.
type Finder interface {
	FindByID(ctx context.Context, id int64) (*User, error)
}

// LoginPath is where anonymous requests to protected pages are sent.
const LoginPath = "/login"

// IdentityMiddleware resolves the session user into a shared.Identity on the
// request context. Sessions that point at a missing account are logged out.
func IdentityMiddleware(finder Finder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			id, ok := sess.User()
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			user, err := finder.FindByID(r.Context(), id)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					sess.ClearUser()
					next.ServeHTTP(w, r)
					return
				}
				logger.Error("load session user", slog.Any("error", err), slog.Int64("user_id", id))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), user.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin redirects anonymous requests to the login page and stops the chain.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.IdentityFromContext(r.Context()) == nil {
			if sess := shared.SessionFromContext(r.Context()); sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Please log in to continue."})
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
