package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lbrode/clientspace/internal/domain"
)

// accessService defines the minimal interface needed by AuthHandler.
type accessService interface {
	Login(ctx context.Context, invitationToken, name, password string) (string, error)
	AcceptInvitation(ctx context.Context, invitationToken, name, password string) (*domain.Collaborator, error)
	Invite(ctx context.Context, email string, role domain.CollaboratorRole) (*domain.Collaborator, error)
}

type sessionService interface {
	Logout(ctx context.Context)
}

// AuthHandler serves collaborator auth REST endpoints.
type AuthHandler struct {
	access  accessService
	session sessionService
	log     *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(access accessService, session sessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{access: access, session: session, log: logger.With("handler", "auth")}
}

type loginRequest struct {
	InvitationToken string `json:"invitationToken"`
	Name            string `json:"name"`
	Password        string `json:"password"`
}

type acceptRequest struct {
	InvitationToken string `json:"invitationToken"`
	Name            string `json:"name"`
	Password        string `json:"password"`
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type collaboratorResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.access.Login(r.Context(), req.InvitationToken, req.Name, req.Password)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

// AcceptInvitation handles POST /api/invitations/accept.
func (h *AuthHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	collab, err := h.access.AcceptInvitation(r.Context(), req.InvitationToken, req.Name, req.Password)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toCollaboratorResponse(collab))
}

// Invite handles POST /api/invitations. Requires authentication.
func (h *AuthHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	collab, err := h.access.Invite(r.Context(), req.Email, domain.CollaboratorRole(req.Role))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCollaboratorResponse(collab))
}

// Logout handles POST /api/auth/logout: drops every cached value and
// scheduled refresh belonging to the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toCollaboratorResponse(c *domain.Collaborator) collaboratorResponse {
	return collaboratorResponse{
		ID:     c.ID.String(),
		Name:   c.Name,
		Email:  c.Email,
		Role:   string(c.Role),
		Status: string(c.Status),
	}
}
