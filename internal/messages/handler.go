package messages

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clubhouse/clubhouse/internal/forms"
	"github.com/clubhouse/clubhouse/internal/observability"
	"github.com/clubhouse/clubhouse/internal/platform/httpx"
	"github.com/clubhouse/clubhouse/internal/shared"
	"github.com/clubhouse/clubhouse/internal/users"
	"github.com/clubhouse/clubhouse/internal/view"
)

// Handler manages the message board pages.
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

// WithMetrics attaches counters for message activity. A nil Metrics disables them.
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// MountRoutes registers message routes. Every route requires a signed-in user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(users.RequireLogin)
	r.Get("/create", h.showCreate)
	r.Post("/create", h.handleCreate)
	r.Get("/{id}/delete", h.showDelete)
	r.Post("/{id}/delete", h.handleDelete)
}

// ShowIndex renders the message listing.
func (h *Handler) ShowIndex(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "pages/index.html", "Messages", map[string]any{"Messages": msgs})
}

type messageForm struct {
	Title string `form:"title" label:"Title" validate:"required"`
	Text  string `form:"text" label:"Message" validate:"required"`
}

func (h *Handler) showCreate(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/message_form.html", "New message", forms.Page{Values: messageForm{}})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := messageForm{
		Title: strings.TrimSpace(r.PostFormValue("title")),
		Text:  strings.TrimSpace(r.PostFormValue("text")),
	}
	if errs := forms.Validate(form); !errs.Valid() {
		h.render(w, r, http.StatusUnprocessableEntity, "pages/message_form.html", "New message", forms.Page{Values: form, Errors: errs})
		return
	}

	author := shared.IdentityFromContext(r.Context())
	msg, err := h.service.Create(r.Context(), author.ID, Draft{Title: form.Title, Text: form.Text})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.MessageEvent("create")
	h.logger.Info("message created", slog.Int64("message_id", msg.ID), slog.Int64("author_id", author.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) showDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, r, shared.ErrNotFound)
		return
	}
	msg, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "pages/message_delete.html", "Delete message", map[string]any{"Message": msg})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.PostFormValue("messageid"), 10, 64)
	if err != nil {
		h.fail(w, r, shared.ErrInvalidInput)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	ident := shared.IdentityFromContext(r.Context())
	h.metrics.MessageEvent("delete")
	h.logger.Info("message deleted", slog.Int64("message_id", id), slog.Int64("user_id", ident.ID))
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Message deleted."})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, tmpl, title string, data any) {
	viewData := view.NewTemplateData(r, h.csrf, title, data)
	if err := h.templates.Render(w, status, tmpl, viewData); err != nil {
		h.logger.Error("template render failed", slog.Any("error", err), slog.String("template", tmpl))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	page := httpx.NewErrorPage(err)
	if page.Status >= http.StatusInternalServerError {
		h.logger.Error("messages", slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	h.render(w, r, page.Status, "pages/error.html", page.Message, page)
}
