package collab

import (
	"context"

	"github.com/google/uuid"

	"github.com/lbrode/clientspace/internal/domain"
)

// CreateNotification inserts a portal notification.
func (c *Client) CreateNotification(ctx context.Context, n domain.Notification) (*domain.Notification, error) {
	row, err := c.Insert(ctx, TableNotifications, map[string]any{
		"space_id": n.SpaceID,
		"title":    n.Title,
		"body":     n.Body,
		"read":     false,
	})
	if err != nil {
		return nil, err
	}
	created := notificationFromRow(row)
	return &created, nil
}

// ListNotifications returns the notifications of a space, unread first is
// the store's default ordering.
func (c *Client) ListNotifications(ctx context.Context, spaceID string) ([]domain.Notification, error) {
	rows, err := c.Select(ctx, TableNotifications, Filters{"space_id": spaceID})
	if err != nil {
		return nil, err
	}
	notifications := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, notificationFromRow(row))
	}
	return notifications, nil
}

// MarkNotificationRead flags one notification as read. The space filter
// keeps the update inside the caller's space; ids from other spaces
// match nothing.
func (c *Client) MarkNotificationRead(ctx context.Context, spaceID, id string) error {
	_, err := c.Update(ctx, TableNotifications, Filters{
		"id":       id,
		"space_id": spaceID,
	}, map[string]any{"read": true})
	return err
}

// GetBranding returns the portal branding of an owner, or nil when none
// is configured.
func (c *Client) GetBranding(ctx context.Context, ownerID uuid.UUID) (*domain.Branding, error) {
	rows, err := c.Select(ctx, TableUserBranding, Filters{"owner_id": ownerID.String()})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &domain.Branding{
		OwnerID:     rowUUID(rows[0], "owner_id"),
		DisplayName: rowString(rows[0], "display_name"),
		LogoURL:     rowString(rows[0], "logo_url"),
		AccentColor: rowString(rows[0], "accent_color"),
	}, nil
}

func notificationFromRow(row map[string]any) domain.Notification {
	return domain.Notification{
		ID:        rowString(row, "id"),
		SpaceID:   rowString(row, "space_id"),
		Title:     rowString(row, "title"),
		Body:      rowString(row, "body"),
		Read:      rowBool(row, "read"),
		CreatedAt: rowTime(row, "created_at"),
	}
}
