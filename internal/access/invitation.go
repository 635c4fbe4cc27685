package access

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lbrode/clientspace/internal/domain"
)

// Login exchanges an invitation token plus credentials for a short-lived
// access token. Only accepted invitations may log in.
func (s *Service) Login(ctx context.Context, invitationToken, name, password string) (string, error) {
	if invitationToken == "" || name == "" || password == "" {
		ve := domain.NewValidationError("credentials", "invitation token, name and password are required")
		return "", fmt.Errorf("access.Login: %w", ve)
	}

	collab, err := s.collaborators.VerifyCredentials(ctx, invitationToken, name, password)
	if err != nil {
		return "", fmt.Errorf("access.Login verify: %w", err)
	}
	if !collab.IsAccepted() {
		return "", fmt.Errorf("access.Login: %w", domain.ErrInvitationNotAccepted)
	}

	token, err := s.jwt.GenerateAccessToken(collab.ID, string(collab.Role))
	if err != nil {
		return "", fmt.Errorf("access.Login issue token: %w", err)
	}

	s.log.InfoContext(ctx, "collaborator logged in", slog.String("collaborator_id", collab.ID.String()))
	return token, nil
}

// AcceptInvitation finalizes a pending invitation, setting the
// collaborator's display name and password in one atomic store call.
// A second accept on the same token fails with a conflict.
func (s *Service) AcceptInvitation(ctx context.Context, invitationToken, name, password string) (*domain.Collaborator, error) {
	if invitationToken == "" {
		return nil, fmt.Errorf("access.AcceptInvitation: %w", domain.NewValidationError("invitation_token", "required"))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("access.AcceptInvitation: %w", domain.NewValidationError("name", "required"))
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("access.AcceptInvitation: %w", domain.NewValidationError("password", "must be at least 8 characters"))
	}

	if err := s.collaborators.AcceptInvitation(ctx, invitationToken, name, password); err != nil {
		return nil, fmt.Errorf("access.AcceptInvitation: %w", err)
	}

	collab, err := s.collaborators.GetCollaboratorByToken(ctx, invitationToken)
	if err != nil {
		return nil, fmt.Errorf("access.AcceptInvitation reload: %w", err)
	}

	s.log.InfoContext(ctx, "invitation accepted", slog.String("collaborator_id", collab.ID.String()))
	return collab, nil
}

// Invite creates a pending collaborator with a fresh invitation token.
func (s *Service) Invite(ctx context.Context, email string, role domain.CollaboratorRole) (*domain.Collaborator, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("access.Invite: %w", domain.NewValidationError("email", "a valid email is required"))
	}
	if role != domain.RoleAdmin && role != domain.RoleCollaborator {
		return nil, fmt.Errorf("access.Invite: %w", domain.NewValidationError("role", "unknown role"))
	}

	token, err := NewToken()
	if err != nil {
		return nil, fmt.Errorf("access.Invite: %w", err)
	}

	collab, err := s.collaborators.InviteCollaborator(ctx, email, role, token)
	if err != nil {
		return nil, fmt.Errorf("access.Invite: %w", err)
	}

	s.log.InfoContext(ctx, "collaborator invited",
		slog.String("collaborator_id", collab.ID.String()),
		slog.String("role", string(role)),
	)
	return collab, nil
}
