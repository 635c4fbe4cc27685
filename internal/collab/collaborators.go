package collab

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lbrode/clientspace/internal/domain"
)

// rpcResult is the envelope returned by the privileged procedures.
type rpcResult struct {
	Success      bool           `json:"success"`
	Error        string         `json:"error,omitempty"`
	Collaborator map[string]any `json:"collaborator,omitempty"`
}

// RPC error codes documented by the store.
const (
	rpcErrNotFound           = "not_found"
	rpcErrInvalidCredentials = "invalid_credentials"
	rpcErrNotAccepted        = "not_accepted"
	rpcErrAlreadyAccepted    = "already_accepted"
)

// mapRPCError translates an RPC error code into the domain taxonomy.
func mapRPCError(code string) error {
	switch code {
	case rpcErrNotFound:
		return domain.ErrTokenNotFound
	case rpcErrInvalidCredentials:
		return domain.ErrCredentialMismatch
	case rpcErrNotAccepted:
		return domain.ErrInvitationNotAccepted
	case rpcErrAlreadyAccepted:
		return domain.ErrConflict
	default:
		return fmt.Errorf("%w: rpc error %q", domain.ErrRemoteUnavailable, code)
	}
}

// VerifyCredentials checks an invitation token, name and password against
// the store and returns the matching collaborator.
func (c *Client) VerifyCredentials(ctx context.Context, token, name, password string) (*domain.Collaborator, error) {
	var res rpcResult
	err := c.RPC(ctx, "verify_collaborator_credentials", map[string]string{
		"invitation_token": token,
		"name":             name,
		"password":         password,
	}, &res)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("verify credentials: %w", mapRPCError(res.Error))
	}
	collaborator := collaboratorFromRow(res.Collaborator)
	return &collaborator, nil
}

// AcceptInvitation sets the collaborator's credentials and transitions the
// invitation Pending -> Accepted. The store performs the transition
// atomically: a second accept on the same token reports already_accepted.
func (c *Client) AcceptInvitation(ctx context.Context, token, name, password string) error {
	var res rpcResult
	err := c.RPC(ctx, "accept_invitation", map[string]string{
		"token":    token,
		"name":     name,
		"password": password,
	}, &res)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("accept invitation: %w", mapRPCError(res.Error))
	}
	return nil
}

// GetCollaboratorByToken returns the collaborator holding an invitation token.
func (c *Client) GetCollaboratorByToken(ctx context.Context, token string) (*domain.Collaborator, error) {
	rows, err := c.Select(ctx, TableCollaborators, Filters{"invitation_token": token})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("collaborator by token: %w", domain.ErrTokenNotFound)
	}
	collaborator := collaboratorFromRow(rows[0])
	return &collaborator, nil
}

// GetCollaborator returns a collaborator by id.
func (c *Client) GetCollaborator(ctx context.Context, id uuid.UUID) (*domain.Collaborator, error) {
	rows, err := c.Select(ctx, TableCollaborators, Filters{"id": id.String()})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("collaborator %s: %w", id, domain.ErrNotFound)
	}
	collaborator := collaboratorFromRow(rows[0])
	return &collaborator, nil
}

// InviteCollaborator creates a pending collaborator with a fresh
// invitation token.
func (c *Client) InviteCollaborator(ctx context.Context, email string, role domain.CollaboratorRole, token string) (*domain.Collaborator, error) {
	row, err := c.Insert(ctx, TableCollaborators, map[string]any{
		"email":            email,
		"role":             string(role),
		"invitation_token": token,
		"status":           string(domain.InvitationPending),
	})
	if err != nil {
		return nil, err
	}
	collaborator := collaboratorFromRow(row)
	return &collaborator, nil
}

// DeletePendingInvitationsBefore removes pending invitations created
// before the cutoff. Returns how many rows were listed for deletion.
func (c *Client) DeletePendingInvitationsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := c.Select(ctx, TableCollaborators, Filters{"status": string(domain.InvitationPending)})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, row := range stale {
		created := rowTime(row, "created_at")
		if created.IsZero() || !created.Before(cutoff) {
			continue
		}
		err := c.DeleteRows(ctx, TableCollaborators, Filters{"id": rowString(row, "id")})
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// ---------------------------------------------------------------------------
// Row mapping
// ---------------------------------------------------------------------------

func collaboratorFromRow(row map[string]any) domain.Collaborator {
	return domain.Collaborator{
		ID:              rowUUID(row, "id"),
		Name:            rowString(row, "name"),
		Email:           rowString(row, "email"),
		Role:            domain.CollaboratorRole(rowString(row, "role")),
		InvitationToken: rowString(row, "invitation_token"),
		Status:          domain.InvitationStatus(rowString(row, "status")),
		CreatedAt:       rowTime(row, "created_at"),
	}
}

func rowString(row map[string]any, key string) string {
	s, _ := row[key].(string)
	return s
}

func rowBool(row map[string]any, key string) bool {
	b, _ := row[key].(bool)
	return b
}

func rowUUID(row map[string]any, key string) uuid.UUID {
	id, err := uuid.Parse(rowString(row, key))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func rowTime(row map[string]any, key string) time.Time {
	s := rowString(row, key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
