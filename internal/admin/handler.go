package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ezyassist/internal/audit"
	"ezyassist/internal/platform/middleware"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/review"
	"ezyassist/internal/settings"
	dErrors "ezyassist/pkg/domain-errors"
	"ezyassist/pkg/platform/httputil"
)

const maxPageSize = 200

// Registrations is the read side of the registration service.
type Registrations interface {
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
	Get(ctx context.Context, recordID string) (*models.Record, error)
	History(ctx context.Context, recordID string) ([]audit.Entry, error)
}

// Reviewer applies admin decisions.
type Reviewer interface {
	Verify(ctx context.Context, recordID, actor string) (*review.Outcome, error)
	Reject(ctx context.Context, recordID, actor, reason string) (*review.Outcome, error)
	Hold(ctx context.Context, recordID, actor, message string) (*review.Outcome, error)
}

type SettingsManager interface {
	Get(ctx context.Context) (settings.Settings, error)
	Apply(ctx context.Context, upd settings.Update, actor string) (settings.Settings, error)
}

// Routes is a sub-surface mounted behind the admin session check.
type Routes interface {
	Register(r chi.Router)
}

type Handler struct {
	auth          *Authenticator
	registrations Registrations
	reviewer      Reviewer
	settings      SettingsManager
	extra         []Routes
	secureCookies bool
	logger        *slog.Logger
}

type HandlerOption func(*Handler)

// WithRoutes mounts extra authenticated routes, such as campaign management.
func WithRoutes(routes ...Routes) HandlerOption {
	return func(h *Handler) { h.extra = append(h.extra, routes...) }
}

// WithSecureCookies marks the session cookie Secure; enable behind HTTPS.
func WithSecureCookies(secure bool) HandlerOption {
	return func(h *Handler) { h.secureCookies = secure }
}

func NewHandler(auth *Authenticator, regs Registrations, reviewer Reviewer, st SettingsManager, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{auth: auth, registrations: regs, reviewer: reviewer, settings: st, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireSession)
			r.Get("/registrations", h.handleList)
			r.Get("/registrations/{id}", h.handleGet)
			r.Get("/registrations/{id}/history", h.handleHistory)
			r.Post("/registrations/{id}/verify", h.handleVerify)
			r.Post("/registrations/{id}/reject", h.handleReject)
			r.Post("/registrations/{id}/hold", h.handleHold)
			r.Get("/settings", h.handleGetSettings)
			r.Put("/settings", h.handlePutSettings)
			for _, routes := range h.extra {
				routes.Register(r)
			}
		})
	})
}

type loginResponse struct {
	Username  string `json:"username"`
	ExpiresAt string `json:"expires_at"`
}

type listResponse struct {
	Registrations []*models.Record `json:"registrations"`
	Limit         int              `json:"limit"`
	Offset        int              `json:"offset"`
}

type historyResponse struct {
	RecordID string        `json:"record_id"`
	Entries  []audit.Entry `json:"entries"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	s, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/admin",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, loginResponse{Username: s.Username, ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		if err := h.auth.Logout(r.Context(), c.Value); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recs, err := h.registrations.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list registrations failed", "error", err, "request_id", middleware.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []*models.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Registrations: recs, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.registrations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.registrations.History(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{RecordID: id, Entries: entries})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.reviewer.Verify(ctx, chi.URLParam(r, "id"), middleware.GetActor(ctx))
	h.writeOutcome(w, r, "verify", out, err)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, middleware.GetRequestID(ctx))
	if !ok {
		return
	}
	out, err := h.reviewer.Reject(ctx, chi.URLParam(r, "id"), middleware.GetActor(ctx), req.Reason)
	h.writeOutcome(w, r, "reject", out, err)
}

func (h *Handler) handleHold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[HoldRequest](w, r, h.logger, middleware.GetRequestID(ctx))
	if !ok {
		return
	}
	out, err := h.reviewer.Hold(ctx, chi.URLParam(r, "id"), middleware.GetActor(ctx), req.Message)
	h.writeOutcome(w, r, "hold", out, err)
}

func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, op string, out *review.Outcome, err error) {
	ctx := r.Context()
	if err != nil {
		h.logger.WarnContext(ctx, "review action failed",
			"op", op,
			"record_id", chi.URLParam(r, "id"),
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	// Get still returns usable defaults alongside a store error.
	st, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "settings store unavailable, serving defaults", "error", err)
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SettingsRequest](w, r, h.logger, middleware.GetRequestID(ctx))
	if !ok {
		return
	}
	st, err := h.settings.Apply(ctx, settings.Update{
		EngagementThreshold: req.EngagementThreshold,
		Language:            req.Language,
	}, middleware.GetActor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{
		Status:     models.Status(q.Get("status")),
		CampaignID: q.Get("campaign_id"),
		Limit:      50,
	}
	if f.Status != "" && !f.Status.IsValid() {
		return f, dErrors.New(dErrors.CodeBadRequest, "status must be one of pending, verified, rejected, on_hold")
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive number")
		}
		f.Limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, dErrors.New(dErrors.CodeBadRequest, "offset must not be negative")
		}
		f.Offset = n
	}
	return f, nil
}
