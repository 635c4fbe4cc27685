package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lbrode/clientspace/internal/domain"
	"github.com/lbrode/clientspace/pkg/ctxutil"
)

// spaceDataService is the full owner-side record surface.
type spaceDataService interface {
	Tasks(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Task, error)
	CreateTask(ctx context.Context, viewer domain.Viewer, task domain.Task) (*domain.Task, error)
	UpdateTask(ctx context.Context, viewer domain.Viewer, spaceID, taskID string, payload domain.Record) (*domain.Task, error)
	DeleteTask(ctx context.Context, viewer domain.Viewer, spaceID, taskID string) error
	Milestones(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Milestone, error)
	Invoices(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Invoice, error)
	CreateInvoice(ctx context.Context, viewer domain.Viewer, inv domain.Invoice) (*domain.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, viewer domain.Viewer, spaceID, invoiceID string, status domain.InvoiceStatus) (*domain.Invoice, error)
	Stats(ctx context.Context, spaceID string) (*domain.SpaceStats, error)
	Prospects(ctx context.Context) ([]domain.Prospect, error)
	CreateProspect(ctx context.Context, p domain.Prospect) (*domain.Prospect, error)
	MoveProspect(ctx context.Context, prospectID string, stage domain.ProspectStage) (*domain.Prospect, error)
}

// authorizer gates space operations on the caller's grants.
type authorizer interface {
	Authorize(ctx context.Context, collaboratorID uuid.UUID, spaceID string, need domain.Permissions) error
}

// shareAdmin manages the share-link lifecycle of a space.
type shareAdmin interface {
	EnsureShareToken(ctx context.Context, spaceID string) (string, error)
	RevokeShareToken(ctx context.Context, spaceID string) error
	SetSharePassword(ctx context.Context, spaceID, password string) error
}

// grantAdmin manages collaborator grants.
type grantAdmin interface {
	Grant(ctx context.Context, g domain.SpaceGrant) (*domain.SpaceGrant, error)
	RevokeGrant(ctx context.Context, spaceID, id string) error
}

// notificationStore lists and acknowledges space notifications.
type notificationStore interface {
	ListNotifications(ctx context.Context, spaceID string) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, spaceID, id string) error
	GetBranding(ctx context.Context, ownerID uuid.UUID) (*domain.Branding, error)
}

// SpaceHandler serves the authenticated owner-side REST endpoints.
type SpaceHandler struct {
	data          spaceDataService
	access        authorizer
	share         shareAdmin
	grants        grantAdmin
	notifications notificationStore
	log           *slog.Logger
}

// NewSpaceHandler creates a SpaceHandler.
func NewSpaceHandler(data spaceDataService, access authorizer, share shareAdmin, grants grantAdmin, notifications notificationStore, logger *slog.Logger) *SpaceHandler {
	return &SpaceHandler{
		data:          data,
		access:        access,
		share:         share,
		grants:        grants,
		notifications: notifications,
		log:           logger.With("handler", "spaces"),
	}
}

// authorize resolves the caller from the context and checks grants.
// Returns false after writing the error response.
func (h *SpaceHandler) authorize(w http.ResponseWriter, r *http.Request, spaceID string, need domain.Permissions) bool {
	collaboratorID, ok := ctxutil.CollaboratorIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if err := h.access.Authorize(r.Context(), collaboratorID, spaceID, need); err != nil {
		handleError(w, r, h.log, err)
		return false
	}
	return true
}

// Tasks handles GET /api/spaces/{spaceID}/tasks.
func (h *SpaceHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Read: true}) {
		return
	}

	tasks, err := h.data.Tasks(r.Context(), spaceID, domain.ViewerOwner)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

type createTaskRequest struct {
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Billable bool    `json:"billable"`
	Hours    float64 `json:"hours"`
	Cost     float64 `json:"cost"`
	Amount   float64 `json:"amount"`
}

// CreateTask handles POST /api/spaces/{spaceID}/tasks.
func (h *SpaceHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Write: true}) {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.data.CreateTask(r.Context(), domain.ViewerOwner, domain.Task{
		SpaceID:  spaceID,
		Title:    req.Title,
		Status:   domain.TaskStatus(req.Status),
		Billable: req.Billable,
		Hours:    req.Hours,
		Cost:     req.Cost,
		Amount:   req.Amount,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PATCH /api/spaces/{spaceID}/tasks/{taskID}. The
// body is a sparse record of canonical fields.
func (h *SpaceHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Write: true}) {
		return
	}

	var payload domain.Record
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.data.UpdateTask(r.Context(), domain.ViewerOwner, spaceID, chi.URLParam(r, "taskID"), payload)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/spaces/{spaceID}/tasks/{taskID}.
func (h *SpaceHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Write: true}) {
		return
	}

	if err := h.data.DeleteTask(r.Context(), domain.ViewerOwner, spaceID, chi.URLParam(r, "taskID")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Milestones handles GET /api/spaces/{spaceID}/milestones.
func (h *SpaceHandler) Milestones(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Read: true}) {
		return
	}

	milestones, err := h.data.Milestones(r.Context(), spaceID, domain.ViewerOwner)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"milestones": milestones})
}

// Invoices handles GET /api/spaces/{spaceID}/invoices.
func (h *SpaceHandler) Invoices(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Read: true}) {
		return
	}

	invoices, err := h.data.Invoices(r.Context(), spaceID, domain.ViewerOwner)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

type createInvoiceRequest struct {
	Number string  `json:"number"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}

// CreateInvoice handles POST /api/spaces/{spaceID}/invoices.
func (h *SpaceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Write: true}) {
		return
	}

	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.data.CreateInvoice(r.Context(), domain.ViewerOwner, domain.Invoice{
		SpaceID: spaceID,
		Number:  req.Number,
		Amount:  req.Amount,
		Status:  domain.InvoiceStatus(req.Status),
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

type invoiceStatusRequest struct {
	Status string `json:"status"`
}

// UpdateInvoiceStatus handles PATCH /api/spaces/{spaceID}/invoices/{invoiceID}/status.
func (h *SpaceHandler) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Write: true}) {
		return
	}

	var req invoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.data.UpdateInvoiceStatus(r.Context(), domain.ViewerOwner, spaceID, chi.URLParam(r, "invoiceID"), domain.InvoiceStatus(req.Status))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// Stats handles GET /api/spaces/{spaceID}/stats.
func (h *SpaceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Read: true}) {
		return
	}

	stats, err := h.data.Stats(r.Context(), spaceID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Prospects handles GET /api/prospects. The pipeline is owner-wide, not
// tied to a space, so any authenticated collaborator may read it.
func (h *SpaceHandler) Prospects(w http.ResponseWriter, r *http.Request) {
	prospects, err := h.data.Prospects(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prospects": prospects})
}

type createProspectRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Value float64 `json:"value"`
}

// CreateProspect handles POST /api/prospects.
func (h *SpaceHandler) CreateProspect(w http.ResponseWriter, r *http.Request) {
	var req createProspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.data.CreateProspect(r.Context(), domain.Prospect{
		Name:  req.Name,
		Email: req.Email,
		Value: req.Value,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type moveProspectRequest struct {
	Stage string `json:"stage"`
}

// MoveProspect handles PATCH /api/prospects/{prospectID}/stage.
func (h *SpaceHandler) MoveProspect(w http.ResponseWriter, r *http.Request) {
	var req moveProspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.data.MoveProspect(r.Context(), chi.URLParam(r, "prospectID"), domain.ProspectStage(req.Stage))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateShare handles POST /api/spaces/{spaceID}/share.
func (h *SpaceHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Admin: true}) {
		return
	}

	token, err := h.share.EnsureShareToken(r.Context(), spaceID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"shareToken": token})
}

// RevokeShare handles DELETE /api/spaces/{spaceID}/share.
func (h *SpaceHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Admin: true}) {
		return
	}

	if err := h.share.RevokeShareToken(r.Context(), spaceID); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sharePasswordRequest struct {
	Password string `json:"password"`
}

// SetSharePassword handles PUT /api/spaces/{spaceID}/share/password.
// An empty password removes the gate.
func (h *SpaceHandler) SetSharePassword(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Admin: true}) {
		return
	}

	var req sharePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.share.SetSharePassword(r.Context(), spaceID, req.Password); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createGrantRequest struct {
	CollaboratorID string `json:"collaboratorId"`
	Read           bool   `json:"read"`
	Write          bool   `json:"write"`
	Admin          bool   `json:"admin"`
}

// CreateGrant handles POST /api/spaces/{spaceID}/grants.
func (h *SpaceHandler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Admin: true}) {
		return
	}

	var req createGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	collaboratorID, err := uuid.Parse(req.CollaboratorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid collaborator id")
		return
	}
	grantedBy, _ := ctxutil.CollaboratorIDFromCtx(r.Context())

	grant, err := h.grants.Grant(r.Context(), domain.SpaceGrant{
		CollaboratorID: collaboratorID,
		SpaceID:        spaceID,
		Permissions:    domain.Permissions{Read: req.Read, Write: req.Write, Admin: req.Admin},
		GrantedBy:      grantedBy,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, grant)
}

// RevokeGrant handles DELETE /api/spaces/{spaceID}/grants/{grantID}.
func (h *SpaceHandler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Admin: true}) {
		return
	}

	if err := h.grants.RevokeGrant(r.Context(), spaceID, chi.URLParam(r, "grantID")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notifications handles GET /api/spaces/{spaceID}/notifications.
func (h *SpaceHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Read: true}) {
		return
	}

	notifications, err := h.notifications.ListNotifications(r.Context(), spaceID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// MarkNotificationRead handles POST /api/spaces/{spaceID}/notifications/{notificationID}/read.
func (h *SpaceHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	if !h.authorize(w, r, spaceID, domain.Permissions{Read: true}) {
		return
	}

	if err := h.notifications.MarkNotificationRead(r.Context(), spaceID, chi.URLParam(r, "notificationID")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Branding handles GET /api/branding: the caller's portal branding.
func (h *SpaceHandler) Branding(w http.ResponseWriter, r *http.Request) {
	collaboratorID, ok := ctxutil.CollaboratorIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	branding, err := h.notifications.GetBranding(r.Context(), collaboratorID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if branding == nil {
		writeJSON(w, http.StatusOK, map[string]any{"branding": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"branding": branding})
}
