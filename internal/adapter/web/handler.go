// Package web renders the three pages of the safety desk and turns form posts
// into desk operations. Every post redirects back to "/" so a reload never
// resubmits a form.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/couchcryptid/site-safety-desk/internal/desk"
	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// Desk is the workflow the handlers drive.
type Desk interface {
	Open(id string) (string, bool)
	View(ctx context.Context, id string) (desk.View, error)
	Navigate(id string, action domain.Action) error
	SelectSite(id, siteID string) error
	SubmitTBM(ctx context.Context, id string, form desk.TBMForm) error
	AttachHazardPhoto(id string, photo *domain.Attachment) error
	StartWork(ctx context.Context, id, siteID string) error
	RequestPlanApproval(ctx context.Context, id string, form desk.PlanForm) error
	AcknowledgeDirective(id string) error
	SendEmergency(id, target string) error
}

// Options configures the cookie, CSRF and upload handling.
type Options struct {
	SessionKey     []byte
	SessionTTL     time.Duration
	CookieSecure   bool
	CSRFKey        []byte // CSRF protection is off when empty
	MaxUploadBytes int64
}

type handler struct {
	desk      Desk
	store     sessions.Store
	pages     *pages
	maxUpload int64
	logger    *slog.Logger
}

// NewHandler builds the page router.
func NewHandler(d Desk, opts Options, logger *slog.Logger) (http.Handler, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	h := &handler{
		desk:      d,
		store:     newCookieStore(opts),
		pages:     p,
		maxUpload: opts.MaxUploadBytes,
		logger:    logger,
	}

	r := mux.NewRouter()
	r.Use(h.bindSession)
	r.HandleFunc("/", h.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/navigate", h.handleNavigate).Methods(http.MethodPost)
	r.HandleFunc("/hq/emergency", h.handleEmergency).Methods(http.MethodPost)

	field := r.PathPrefix("/field").Methods(http.MethodPost).Subrouter()
	field.HandleFunc("/site", h.handleSelectSite)
	field.HandleFunc("/tbm", h.handleTBM)
	field.HandleFunc("/hazard/photo", h.handleHazardPhoto)
	field.HandleFunc("/hazard/start", h.handleStartWork)
	field.HandleFunc("/plan", h.handlePlan)
	field.HandleFunc("/directive/ack", h.handleDirectiveAck)

	if len(opts.CSRFKey) == 0 {
		return r, nil
	}
	protect := csrf.Protect(opts.CSRFKey,
		csrf.Secure(opts.CookieSecure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(h.csrfFailure)),
	)
	return protect(r), nil
}

func (h *handler) handlePage(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	v, err := h.desk.View(r.Context(), id)
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.pages.render(w, r, v, h.logger)
}

func (h *handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, h.desk.Navigate(sessionID(r.Context()), domain.Action(r.PostFormValue("action"))))
}

func (h *handler) handleSelectSite(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, h.desk.SelectSite(sessionID(r.Context()), r.PostFormValue("site")))
}

func (h *handler) handleTBM(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	photo, err := attachment(r, "photo")
	if err != nil {
		h.badRequest(w, err)
		return
	}
	h.done(w, r, h.desk.SubmitTBM(r.Context(), sessionID(r.Context()), desk.TBMForm{
		SiteID:              r.FormValue("site"),
		Participants:        r.FormValue("participants"),
		HazardsAcknowledged: r.FormValue("hazards_ack") != "",
		Photo:               photo,
	}))
}

func (h *handler) handleHazardPhoto(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	photo, err := attachment(r, "photo")
	if err != nil {
		h.badRequest(w, err)
		return
	}
	h.done(w, r, h.desk.AttachHazardPhoto(sessionID(r.Context()), photo))
}

func (h *handler) handleStartWork(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, h.desk.StartWork(r.Context(), sessionID(r.Context()), r.PostFormValue("site")))
}

func (h *handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	plan, err := attachment(r, "plan")
	if err != nil {
		h.badRequest(w, err)
		return
	}
	h.done(w, r, h.desk.RequestPlanApproval(r.Context(), sessionID(r.Context()), desk.PlanForm{
		SiteID:   r.FormValue("site"),
		WorkType: r.FormValue("work_type"),
		Plan:     plan,
	}))
}

func (h *handler) handleDirectiveAck(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, h.desk.AcknowledgeDirective(sessionID(r.Context())))
}

func (h *handler) handleEmergency(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, h.desk.SendEmergency(sessionID(r.Context()), r.PostFormValue("target")))
}

// done finishes a post. Workflow errors are already on the session as a
// notice, so the page is simply re-rendered.
func (h *handler) done(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil && !errors.Is(err, desk.ErrSessionNotFound) {
		h.logger.Debug("action refused", "path", r.URL.Path, "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("upload too large", "path", r.URL.Path, "limit", tooLarge.Limit)
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return false
		}
		h.badRequest(w, err)
		return false
	}
	return true
}

func (h *handler) badRequest(w http.ResponseWriter, err error) {
	h.logger.Warn("bad form", "error", err)
	http.Error(w, "bad request", http.StatusBadRequest)
}

// internalError logs the real error and returns a generic message to the client.
func (h *handler) internalError(w http.ResponseWriter, err error) {
	h.logger.Error("internal error", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (h *handler) csrfFailure(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "forbidden", http.StatusForbidden)
}
