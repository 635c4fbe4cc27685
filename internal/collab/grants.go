package collab

import (
	"context"

	"github.com/google/uuid"

	"github.com/lbrode/clientspace/internal/domain"
)

// ListGrants returns every grant for a (collaborator, space) pair. The
// store does not enforce uniqueness on the pair, so multiple rows may
// come back; effective access is their union.
func (c *Client) ListGrants(ctx context.Context, collaboratorID uuid.UUID, spaceID string) ([]domain.SpaceGrant, error) {
	rows, err := c.Select(ctx, TableSpaceCollaborators, Filters{
		"collaborator_id": collaboratorID.String(),
		"space_id":        spaceID,
	})
	if err != nil {
		return nil, err
	}
	grants := make([]domain.SpaceGrant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, grantFromRow(row))
	}
	return grants, nil
}

// ListGrantsForSpace returns every grant on a space.
func (c *Client) ListGrantsForSpace(ctx context.Context, spaceID string) ([]domain.SpaceGrant, error) {
	rows, err := c.Select(ctx, TableSpaceCollaborators, Filters{"space_id": spaceID})
	if err != nil {
		return nil, err
	}
	grants := make([]domain.SpaceGrant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, grantFromRow(row))
	}
	return grants, nil
}

// CreateGrant inserts a grant row.
func (c *Client) CreateGrant(ctx context.Context, g domain.SpaceGrant) (*domain.SpaceGrant, error) {
	row, err := c.Insert(ctx, TableSpaceCollaborators, map[string]any{
		"collaborator_id": g.CollaboratorID.String(),
		"space_id":        g.SpaceID,
		"can_read":        g.Permissions.Read,
		"can_write":       g.Permissions.Write,
		"can_admin":       g.Permissions.Admin,
		"granted_by":      g.GrantedBy.String(),
	})
	if err != nil {
		return nil, err
	}
	created := grantFromRow(row)
	return &created, nil
}

// DeleteGrant removes a grant row by id. The space filter keeps the
// delete inside the space the caller was authorized on; a row id
// belonging to another space matches nothing.
func (c *Client) DeleteGrant(ctx context.Context, spaceID, id string) error {
	return c.DeleteRows(ctx, TableSpaceCollaborators, Filters{
		"id":       id,
		"space_id": spaceID,
	})
}

func grantFromRow(row map[string]any) domain.SpaceGrant {
	return domain.SpaceGrant{
		ID:             rowString(row, "id"),
		CollaboratorID: rowUUID(row, "collaborator_id"),
		SpaceID:        rowString(row, "space_id"),
		Permissions: domain.Permissions{
			Read:  rowBool(row, "can_read"),
			Write: rowBool(row, "can_write"),
			Admin: rowBool(row, "can_admin"),
		},
		GrantedBy: rowUUID(row, "granted_by"),
		CreatedAt: rowTime(row, "created_at"),
	}
}
