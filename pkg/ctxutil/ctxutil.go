// Package ctxutil carries request-scoped identifiers through contexts.
package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	collaboratorIDKey ctxKey = "collaborator_id"
	requestIDKey      ctxKey = "request_id"
)

// WithCollaboratorID stores the authenticated collaborator ID in the context.
func WithCollaboratorID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, collaboratorIDKey, id)
}

// CollaboratorIDFromCtx extracts the collaborator ID from the context.
// Returns uuid.Nil and false if the value is missing, nil UUID, or wrong type.
func CollaboratorIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(collaboratorIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context, or "" if unset.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
