package campaign

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ezyassist/internal/platform/middleware"
	"ezyassist/internal/registration/models"
	"ezyassist/pkg/platform/httputil"
)

// Manager is the campaign service as seen by the admin routes.
type Manager interface {
	Create(ctx context.Context, cmd CreateCommand, actor string) (*Campaign, error)
	Toggle(ctx context.Context, id, actor string) (*Campaign, error)
	Get(ctx context.Context, id string) (*Campaign, error)
	List(ctx context.Context) ([]*Campaign, error)
	Registrations(ctx context.Context, id string) ([]*models.Record, error)
}

// Handler serves campaign administration. Mount it behind admin auth.
type Handler struct {
	svc    Manager
	logger *slog.Logger
}

func NewHandler(svc Manager, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/campaigns", h.handleList)
	r.Post("/campaigns", h.handleCreate)
	r.Get("/campaigns/{id}", h.handleGet)
	r.Post("/campaigns/{id}/toggle", h.handleToggle)
	r.Get("/campaigns/{id}/registrations", h.handleRegistrations)
}

type listResponse struct {
	Campaigns []*Campaign `json:"campaigns"`
}

type registrationsResponse struct {
	CampaignID    string           `json:"campaign_id"`
	Registrations []*models.Record `json:"registrations"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.svc.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list campaigns failed", "error", err, "request_id", middleware.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	if out == nil {
		out = []*Campaign{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Campaigns: out})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateCommand](w, r, h.logger, requestID)
	if !ok {
		return
	}
	c, err := h.svc.Create(ctx, *req, middleware.GetActor(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "create campaign failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	c, err := h.svc.Toggle(ctx, id, middleware.GetActor(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "toggle campaign failed", "error", err, "campaign_id", id,
			"request_id", middleware.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	recs, err := h.svc.Registrations(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []*models.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, registrationsResponse{CampaignID: id, Registrations: recs})
}
