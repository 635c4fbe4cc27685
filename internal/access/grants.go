package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lbrode/clientspace/internal/domain"
)

// Grant gives a collaborator permissions on a space. The
// (collaborator, space) pair is unique: a second grant for the same pair
// fails with AlreadyExists instead of widening the first one.
func (s *Service) Grant(ctx context.Context, g domain.SpaceGrant) (*domain.SpaceGrant, error) {
	if g.CollaboratorID == uuid.Nil {
		return nil, fmt.Errorf("access.Grant: %w", domain.NewValidationError("collaborator_id", "required"))
	}
	if g.SpaceID == "" {
		return nil, fmt.Errorf("access.Grant: %w", domain.NewValidationError("space_id", "required"))
	}
	if g.Permissions.None() {
		return nil, fmt.Errorf("access.Grant: %w", domain.NewValidationError("permissions", "at least one permission is required"))
	}

	existing, err := s.grants.ListGrants(ctx, g.CollaboratorID, g.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("access.Grant check pair: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("access.Grant: %w", domain.ErrAlreadyExists)
	}

	created, err := s.grants.CreateGrant(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("access.Grant create: %w", err)
	}

	s.log.InfoContext(ctx, "grant created",
		slog.String("collaborator_id", g.CollaboratorID.String()),
		slog.String("space_id", g.SpaceID),
	)
	return created, nil
}

// RevokeGrant removes a single grant by ID within a space. The space is
// part of the delete filter so a caller can only revoke grants of the
// space they hold admin on.
func (s *Service) RevokeGrant(ctx context.Context, spaceID, id string) error {
	if spaceID == "" {
		return fmt.Errorf("access.RevokeGrant: %w", domain.NewValidationError("space_id", "required"))
	}
	if err := s.grants.DeleteGrant(ctx, spaceID, id); err != nil {
		return fmt.Errorf("access.RevokeGrant: %w", err)
	}
	return nil
}

// EffectiveAccess returns the union of all grants a collaborator holds
// on a space. No grants means no access, not an error.
func (s *Service) EffectiveAccess(ctx context.Context, collaboratorID uuid.UUID, spaceID string) (domain.Permissions, error) {
	grants, err := s.grants.ListGrants(ctx, collaboratorID, spaceID)
	if err != nil {
		return domain.Permissions{}, fmt.Errorf("access.EffectiveAccess: %w", err)
	}

	perms := domain.Permissions{}
	for _, g := range grants {
		perms = perms.Union(g.Permissions)
	}
	return perms, nil
}

// Authorize checks that a collaborator holds the needed permissions on a
// space, returning Forbidden otherwise.
func (s *Service) Authorize(ctx context.Context, collaboratorID uuid.UUID, spaceID string, need domain.Permissions) error {
	perms, err := s.EffectiveAccess(ctx, collaboratorID, spaceID)
	if err != nil {
		return err
	}
	if !perms.Allows(need) {
		return fmt.Errorf("access.Authorize: %w", domain.ErrForbidden)
	}
	return nil
}
