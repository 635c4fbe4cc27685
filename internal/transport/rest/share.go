package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lbrode/clientspace/internal/domain"
)

// shareResolver resolves share tokens into spaces.
type shareResolver interface {
	ResolveShareToken(ctx context.Context, token, password string) (*domain.Space, error)
}

// clientDataService serves space records for the client viewer scope.
type clientDataService interface {
	Tasks(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Task, error)
	Milestones(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Milestone, error)
	Invoices(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Invoice, error)
}

// ShareHandler serves the public client portal behind share tokens.
// Every request re-resolves the token, so a revoked or disabled link
// stops working immediately.
type ShareHandler struct {
	resolver shareResolver
	data     clientDataService
	log      *slog.Logger
}

// NewShareHandler creates a ShareHandler.
func NewShareHandler(resolver shareResolver, data clientDataService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{resolver: resolver, data: data, log: logger.With("handler", "share")}
}

type resolveRequest struct {
	Password string `json:"password"`
}

type spaceResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ClientName       string `json:"clientName"`
	RequiresPassword bool   `json:"requiresPassword"`
}

type overviewResponse struct {
	Space      spaceResponse      `json:"space"`
	Tasks      []domain.Task      `json:"tasks"`
	Milestones []domain.Milestone `json:"milestones"`
	Invoices   []domain.Invoice   `json:"invoices"`
}

// Resolve handles POST /api/share/{token}/resolve. The password travels
// in the body; the response never includes the password hash.
func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	space, err := h.resolver.ResolveShareToken(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toSpaceResponse(space))
}

// Overview handles POST /api/share/{token}/overview: the full client
// view of a space in one response.
func (h *ShareHandler) Overview(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	space, err := h.resolver.ResolveShareToken(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	tasks, err := h.data.Tasks(r.Context(), space.ID, domain.ViewerClient)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	milestones, err := h.data.Milestones(r.Context(), space.ID, domain.ViewerClient)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	invoices, err := h.data.Invoices(r.Context(), space.ID, domain.ViewerClient)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, overviewResponse{
		Space:      toSpaceResponse(space),
		Tasks:      tasks,
		Milestones: milestones,
		Invoices:   invoices,
	})
}

func toSpaceResponse(s *domain.Space) spaceResponse {
	return spaceResponse{
		ID:               s.ID,
		Name:             s.Name,
		ClientName:       s.ClientName,
		RequiresPassword: s.Share.HasPassword(),
	}
}
