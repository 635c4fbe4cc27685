package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus is the lifecycle state of a collaborator invitation.
// Transitions are forward-only: Pending may become Accepted or Declined,
// and neither terminal state ever reverts.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// CollaboratorRole is the coarse role of a collaborator.
type CollaboratorRole string

const (
	RoleAdmin        CollaboratorRole = "admin"
	RoleCollaborator CollaboratorRole = "collaborateur"
)

// Collaborator is an invited team member. The invitation token doubles as
// the login identifier until (and after) credentials are configured.
type Collaborator struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Role            CollaboratorRole
	InvitationToken string
	Status          InvitationStatus
	CreatedAt       time.Time
}

// IsAccepted reports whether the collaborator finished credential setup.
func (c *Collaborator) IsAccepted() bool { return c.Status == InvitationAccepted }

// Permissions is the set of capabilities granted on a space.
type Permissions struct {
	Read  bool
	Write bool
	Admin bool
}

// Union merges two permission sets. Effective access for a collaborator on
// a space is the union across all of their grants.
func (p Permissions) Union(o Permissions) Permissions {
	return Permissions{
		Read:  p.Read || o.Read,
		Write: p.Write || o.Write,
		Admin: p.Admin || o.Admin,
	}
}

// None reports whether the set grants nothing.
func (p Permissions) None() bool { return !p.Read && !p.Write && !p.Admin }

// Allows reports whether p satisfies the needed capabilities.
// Admin implies every other capability.
func (p Permissions) Allows(need Permissions) bool {
	if p.Admin {
		return true
	}
	if need.Admin {
		return false
	}
	return (!need.Read || p.Read) && (!need.Write || p.Write)
}

// SpaceGrant gives a collaborator access to a space. The (collaborator,
// space) pair is soft-unique: the store does not enforce it, so creation
// must reject duplicates.
type SpaceGrant struct {
	ID             string
	CollaboratorID uuid.UUID
	SpaceID        string
	Permissions    Permissions
	GrantedBy      uuid.UUID
	CreatedAt      time.Time
}

// Branding is the portal appearance configured by the account owner,
// shown on shared client views.
type Branding struct {
	OwnerID     uuid.UUID
	DisplayName string
	LogoURL     string
	AccentColor string
}

// Notification is a message delivered to the portal inbox, typically via
// the webhook ingress.
type Notification struct {
	ID        string
	SpaceID   string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}
