package rest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lbrode/clientspace/internal/domain"
)

// spaceProvisioner creates spaces for webhook-driven onboarding.
type spaceProvisioner interface {
	CreateSpace(ctx context.Context, space domain.Space) (*domain.Space, error)
}

// notificationCreator records inbound events as notifications.
type notificationCreator interface {
	CreateNotification(ctx context.Context, n domain.Notification) (*domain.Notification, error)
}

// WebhookConfig maps endpoint keys to their optional shared secrets.
type WebhookConfig struct {
	// EndpointKeys are the accepted path keys. An unknown key is a 404.
	EndpointKeys []string
	// Secret, when non-empty, must match the payload's secret field. The
	// comparison only happens when both sides carry one: a payload
	// without a secret is accepted against an endpoint without one.
	Secret string
}

// WebhookHandler ingests external form submissions and automation events.
type WebhookHandler struct {
	spaces        spaceProvisioner
	notifications notificationCreator
	cfg           WebhookConfig
	log           *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(spaces spaceProvisioner, notifications notificationCreator, cfg WebhookConfig, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		spaces:        spaces,
		notifications: notifications,
		cfg:           cfg,
		log:           logger.With("handler", "webhook"),
	}
}

type webhookPayload struct {
	Event      string `json:"event"`
	Secret     string `json:"secret"`
	SpaceID    string `json:"spaceId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	ClientName string `json:"clientName"`
	Email      string `json:"email"`
	SpaceName  string `json:"spaceName"`
}

// Ingest handles POST /api/webhooks/{endpointKey}.
//
// event "space.provision" creates a client space from a signup form;
// every other event lands as a notification on the named space. The
// response is always 200 to acknowledged events so upstream automation
// does not retry.
func (h *WebhookHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "endpointKey")
	if !h.knownKey(key) {
		writeError(w, http.StatusNotFound, "unknown endpoint")
		return
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.cfg.Secret != "" && payload.Secret != "" {
		if subtle.ConstantTimeCompare([]byte(h.cfg.Secret), []byte(payload.Secret)) != 1 {
			writeError(w, http.StatusUnauthorized, "secret mismatch")
			return
		}
	}

	switch payload.Event {
	case "space.provision":
		h.provision(w, r, payload)
	default:
		h.notify(w, r, payload)
	}
}

func (h *WebhookHandler) provision(w http.ResponseWriter, r *http.Request, payload webhookPayload) {
	if payload.ClientName == "" || payload.Email == "" {
		writeError(w, http.StatusBadRequest, "clientName and email are required")
		return
	}
	name := payload.SpaceName
	if name == "" {
		name = payload.ClientName
	}

	space, err := h.spaces.CreateSpace(r.Context(), domain.Space{
		Name:       name,
		ClientName: payload.ClientName,
		Email:      payload.Email,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	h.log.InfoContext(r.Context(), "space provisioned from webhook",
		slog.String("space_id", space.ID),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "spaceId": space.ID})
}

func (h *WebhookHandler) notify(w http.ResponseWriter, r *http.Request, payload webhookPayload) {
	if payload.SpaceID == "" {
		writeError(w, http.StatusBadRequest, "spaceId is required")
		return
	}
	title := payload.Title
	if title == "" {
		title = payload.Event
	}
	if title == "" {
		writeError(w, http.StatusBadRequest, "event or title is required")
		return
	}

	if _, err := h.notifications.CreateNotification(r.Context(), domain.Notification{
		SpaceID: payload.SpaceID,
		Title:   title,
		Body:    payload.Body,
	}); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) knownKey(key string) bool {
	for _, k := range h.cfg.EndpointKeys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}
