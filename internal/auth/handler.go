package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubhouse/clubhouse/internal/forms"
	"github.com/clubhouse/clubhouse/internal/observability"
	"github.com/clubhouse/clubhouse/internal/platform/httpx"
	"github.com/clubhouse/clubhouse/internal/shared"
	"github.com/clubhouse/clubhouse/internal/view"
)

// Handler wires HTTP endpoints for signup and login flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	metrics        *observability.Metrics
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
	}
}

// WithMetrics attaches counters for signup and login outcomes. A nil Metrics disables them.
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/signup", h.showSignup)
	r.Post("/signup", h.handleSignup)
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
}

type signupForm struct {
	FirstName       string `form:"firstname" label:"First name" validate:"required,alpha"`
	LastName        string `form:"lastname" label:"Last name" validate:"required,alpha"`
	Username        string `form:"username" label:"Username" validate:"required,alphanum"`
	Password        string `form:"password" label:"Password" validate:"required,min=6,maxbytes=72"`
	ConfirmPassword string `form:"confirmpassword" label:"Password confirmation" validate:"required,eqfield=Password"`
}

// echo drops the passwords before the form is sent back to the browser.
func (f signupForm) echo() signupForm {
	f.Password = ""
	f.ConfirmPassword = ""
	return f
}

func (h *Handler) showSignup(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/signup.html", "Sign up", forms.Page{Values: signupForm{}})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := signupForm{
		FirstName:       strings.TrimSpace(r.PostFormValue("firstname")),
		LastName:        strings.TrimSpace(r.PostFormValue("lastname")),
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmpassword"),
	}
	if errs := forms.Validate(form); !errs.Valid() {
		h.render(w, r, http.StatusUnprocessableEntity, "pages/signup.html", "Sign up", forms.Page{Values: form.echo(), Errors: errs})
		return
	}

	user, err := h.service.Register(r.Context(), Registration{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Username:  form.Username,
		Password:  form.Password,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			var errs forms.Errors
			h.metrics.AuthEvent("signup", "duplicate")
			errs.Add("username", "Username already in use.")
			h.render(w, r, http.StatusUnprocessableEntity, "pages/signup.html", "Sign up", forms.Page{Values: form.echo(), Errors: errs})
			return
		}
		h.fail(w, r, err)
		return
	}

	h.metrics.AuthEvent("signup", "success")
	h.logger.Info("user signed up", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Account created. You can log in now."})
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/login.html", "Log in", nil)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	username := strings.TrimSpace(r.PostFormValue("username"))

	user, err := h.service.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.fail(w, r, err)
			return
		}
		h.metrics.AuthEvent("login", "failure")
		h.logger.Info("login failed", slog.String("username", username))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Invalid username or password."})
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if sess == nil {
		h.logger.Error("session missing during login")
		h.fail(w, r, errors.New("session missing during login"))
		return
	}
	h.metrics.AuthEvent("login", "success")
	h.sessionManager.Renew(sess)
	sess.SetUser(user.ID)
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back, " + user.FirstName + "."})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if _, ok := sess.User(); ok {
			if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
				h.logger.Warn("remove session", slog.Any("error", err))
			}
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, tmpl, title string, data any) {
	viewData := view.NewTemplateData(r, h.csrfManager, title, data)
	if err := h.templates.Render(w, status, tmpl, viewData); err != nil {
		h.logger.Error("render", slog.Any("error", err), slog.String("template", tmpl))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	page := httpx.NewErrorPage(err)
	if page.Status >= http.StatusInternalServerError {
		h.logger.Error("auth", slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	h.render(w, r, page.Status, "pages/error.html", page.Message, page)
}
