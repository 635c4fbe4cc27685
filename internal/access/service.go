// Package access resolves opaque tokens (space share links and
// collaborator invitations) to authorized resources, and manages the
// permission grants collaborators hold on spaces.
package access

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lbrode/clientspace/internal/cache"
	"github.com/lbrode/clientspace/internal/domain"
)

// spaceStore defines the record-store operations needed for share links.
type spaceStore interface {
	GetSpace(ctx context.Context, id string) (*domain.Space, error)
	FindSpaceByShareToken(ctx context.Context, token string) (*domain.Space, error)
	UpdateSpaceShare(ctx context.Context, id string, share domain.ShareConfig) (*domain.Space, error)
}

// collaboratorStore defines the collaboration-store operations needed for
// invitations and credential checks.
type collaboratorStore interface {
	VerifyCredentials(ctx context.Context, token, name, password string) (*domain.Collaborator, error)
	AcceptInvitation(ctx context.Context, token, name, password string) error
	GetCollaboratorByToken(ctx context.Context, token string) (*domain.Collaborator, error)
	InviteCollaborator(ctx context.Context, email string, role domain.CollaboratorRole, token string) (*domain.Collaborator, error)
}

// grantStore defines the grant operations of the collaboration store.
type grantStore interface {
	ListGrants(ctx context.Context, collaboratorID uuid.UUID, spaceID string) ([]domain.SpaceGrant, error)
	CreateGrant(ctx context.Context, g domain.SpaceGrant) (*domain.SpaceGrant, error)
	DeleteGrant(ctx context.Context, spaceID, id string) error
}

// tokenIssuer mints and validates collaborator access tokens.
type tokenIssuer interface {
	GenerateAccessToken(collaboratorID uuid.UUID, role string) (string, error)
	ValidateAccessToken(token string) (uuid.UUID, string, error)
}

// Config tunes the access service.
type Config struct {
	// ShareTTL bounds how long a resolved share-token lookup is cached.
	// The enable flag and password gate are re-applied on every
	// resolution; only the lookup itself is cached.
	ShareTTL time.Duration
	// HashCost is the bcrypt cost for share-link passwords.
	HashCost int
}

// Service implements access resolution.
type Service struct {
	log           *slog.Logger
	spaces        spaceStore
	collaborators collaboratorStore
	grants        grantStore
	jwt           tokenIssuer
	store         *cache.Store
	loader        *cache.Loader
	cfg           Config

	// shareMu serializes share-link read-modify-writes so concurrent
	// mints on the same space settle on one token.
	shareMu sync.Mutex
}

// NewService creates an access service instance.
func NewService(
	logger *slog.Logger,
	spaces spaceStore,
	collaborators collaboratorStore,
	grants grantStore,
	jwt tokenIssuer,
	store *cache.Store,
	cfg Config,
) *Service {
	if cfg.ShareTTL <= 0 {
		cfg.ShareTTL = time.Minute
	}
	if cfg.HashCost <= 0 {
		cfg.HashCost = 10
	}
	return &Service{
		log:           logger.With("service", "access"),
		spaces:        spaces,
		collaborators: collaborators,
		grants:        grants,
		jwt:           jwt,
		store:         store,
		loader:        cache.NewLoader(store),
		cfg:           cfg,
	}
}

// ValidateToken checks a collaborator access token and returns the
// collaborator ID. Used by the transport auth middleware.
func (s *Service) ValidateToken(_ context.Context, token string) (uuid.UUID, error) {
	id, _, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}
