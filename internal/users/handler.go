package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clubhouse/clubhouse/internal/forms"
	"github.com/clubhouse/clubhouse/internal/observability"
	"github.com/clubhouse/clubhouse/internal/platform/httpx"
	"github.com/clubhouse/clubhouse/internal/shared"
	"github.com/clubhouse/clubhouse/internal/view"
)

// Handler serves the membership unlock pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	metrics   *observability.Metrics
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// WithMetrics attaches counters for membership outcomes. A nil Metrics disables them.
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// MountRoutes registers membership routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(RequireLogin)
	r.Get("/", h.showMembership)
	r.Post("/", h.handleMembership)
}

type membershipForm struct {
	Password string `form:"password"`
}

func (h *Handler) showMembership(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, forms.Page{Values: membershipForm{}})
}

func (h *Handler) handleMembership(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ident := shared.IdentityFromContext(r.Context())
	form := membershipForm{Password: r.PostFormValue("password")}

	_, err := h.service.UnlockMembership(r.Context(), ident.ID, form.Password)
	if err != nil {
		if errors.Is(err, ErrIncorrectPasscode) {
			var errs forms.Errors
			h.metrics.AuthEvent("membership", "failure")
			errs.Add("password", "Incorrect password.")
			h.render(w, r, http.StatusUnprocessableEntity, forms.Page{Values: membershipForm{}, Errors: errs})
			return
		}
		h.fail(w, r, err)
		return
	}

	h.metrics.AuthEvent("membership", "success")
	h.logger.Info("membership unlocked", slog.Int64("user_id", ident.ID))
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome to the club."})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page forms.Page) {
	data := view.NewTemplateData(r, h.csrf, "Membership", page)
	if err := h.templates.Render(w, status, "pages/membership.html", data); err != nil {
		h.logger.Error("render membership", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	page := httpx.NewErrorPage(err)
	if page.Status >= http.StatusInternalServerError {
		h.logger.Error("membership", slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	data := view.NewTemplateData(r, h.csrf, page.Message, page)
	if rerr := h.templates.Render(w, page.Status, "pages/error.html", data); rerr != nil {
		h.logger.Error("render error page", slog.Any("error", rerr))
		http.Error(w, page.Message, page.Status)
	}
}
