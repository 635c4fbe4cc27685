package access

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lbrode/clientspace/internal/cache"
	"github.com/lbrode/clientspace/internal/domain"
)

type spaceStoreMock struct {
	GetSpaceFunc              func(ctx context.Context, id string) (*domain.Space, error)
	FindSpaceByShareTokenFunc func(ctx context.Context, token string) (*domain.Space, error)
	UpdateSpaceShareFunc      func(ctx context.Context, id string, share domain.ShareConfig) (*domain.Space, error)
}

func (m *spaceStoreMock) GetSpace(ctx context.Context, id string) (*domain.Space, error) {
	return m.GetSpaceFunc(ctx, id)
}

func (m *spaceStoreMock) FindSpaceByShareToken(ctx context.Context, token string) (*domain.Space, error) {
	return m.FindSpaceByShareTokenFunc(ctx, token)
}

func (m *spaceStoreMock) UpdateSpaceShare(ctx context.Context, id string, share domain.ShareConfig) (*domain.Space, error) {
	return m.UpdateSpaceShareFunc(ctx, id, share)
}

type collaboratorStoreMock struct {
	VerifyCredentialsFunc      func(ctx context.Context, token, name, password string) (*domain.Collaborator, error)
	AcceptInvitationFunc       func(ctx context.Context, token, name, password string) error
	GetCollaboratorByTokenFunc func(ctx context.Context, token string) (*domain.Collaborator, error)
	InviteCollaboratorFunc     func(ctx context.Context, email string, role domain.CollaboratorRole, token string) (*domain.Collaborator, error)
}

func (m *collaboratorStoreMock) VerifyCredentials(ctx context.Context, token, name, password string) (*domain.Collaborator, error) {
	return m.VerifyCredentialsFunc(ctx, token, name, password)
}

func (m *collaboratorStoreMock) AcceptInvitation(ctx context.Context, token, name, password string) error {
	return m.AcceptInvitationFunc(ctx, token, name, password)
}

func (m *collaboratorStoreMock) GetCollaboratorByToken(ctx context.Context, token string) (*domain.Collaborator, error) {
	return m.GetCollaboratorByTokenFunc(ctx, token)
}

func (m *collaboratorStoreMock) InviteCollaborator(ctx context.Context, email string, role domain.CollaboratorRole, token string) (*domain.Collaborator, error) {
	return m.InviteCollaboratorFunc(ctx, email, role, token)
}

type grantStoreMock struct {
	ListGrantsFunc  func(ctx context.Context, collaboratorID uuid.UUID, spaceID string) ([]domain.SpaceGrant, error)
	CreateGrantFunc func(ctx context.Context, g domain.SpaceGrant) (*domain.SpaceGrant, error)
	DeleteGrantFunc func(ctx context.Context, spaceID, id string) error
}

func (m *grantStoreMock) ListGrants(ctx context.Context, collaboratorID uuid.UUID, spaceID string) ([]domain.SpaceGrant, error) {
	return m.ListGrantsFunc(ctx, collaboratorID, spaceID)
}

func (m *grantStoreMock) CreateGrant(ctx context.Context, g domain.SpaceGrant) (*domain.SpaceGrant, error) {
	return m.CreateGrantFunc(ctx, g)
}

func (m *grantStoreMock) DeleteGrant(ctx context.Context, spaceID, id string) error {
	return m.DeleteGrantFunc(ctx, spaceID, id)
}

type tokenIssuerMock struct {
	GenerateAccessTokenFunc func(collaboratorID uuid.UUID, role string) (string, error)
	ValidateAccessTokenFunc func(token string) (uuid.UUID, string, error)
}

func (m *tokenIssuerMock) GenerateAccessToken(collaboratorID uuid.UUID, role string) (string, error) {
	return m.GenerateAccessTokenFunc(collaboratorID, role)
}

func (m *tokenIssuerMock) ValidateAccessToken(token string) (uuid.UUID, string, error) {
	return m.ValidateAccessTokenFunc(token)
}

func newTestService(t *testing.T, spaces spaceStore, collabs collaboratorStore, grants grantStore, jwt tokenIssuer) *Service {
	t.Helper()
	store := cache.NewStore(clockwork.NewFakeClock())
	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(logger, spaces, collabs, grants, jwt, store, Config{ShareTTL: time.Minute, HashCost: bcrypt.MinCost})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestEnsureShareToken_ReusesActiveToken(t *testing.T) {
	t.Parallel()

	updates := 0
	spaces := &spaceStoreMock{
		GetSpaceFunc: func(_ context.Context, id string) (*domain.Space, error) {
			return &domain.Space{ID: id, Share: domain.ShareConfig{Token: "tok-live", Enabled: true}}, nil
		},
		UpdateSpaceShareFunc: func(_ context.Context, id string, share domain.ShareConfig) (*domain.Space, error) {
			updates++
			return &domain.Space{ID: id, Share: share}, nil
		},
	}
	svc := newTestService(t, spaces, nil, nil, nil)

	first, err := svc.EnsureShareToken(context.Background(), "sp-1")
	require.NoError(t, err)
	second, err := svc.EnsureShareToken(context.Background(), "sp-1")
	require.NoError(t, err)

	require.Equal(t, "tok-live", first)
	require.Equal(t, first, second)
	require.Zero(t, updates, "reusing an active token must not write to the store")
}

// Two concurrent mints against a space with no active token must settle
// on a single token with a single store write; the second caller reuses
// the first one's mint instead of replacing it.
func TestEnsureShareToken_ConcurrentMintsAgree(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	current := domain.ShareConfig{}
	updates := 0
	spaces := &spaceStoreMock{
		GetSpaceFunc: func(_ context.Context, id string) (*domain.Space, error) {
			mu.Lock()
			defer mu.Unlock()
			return &domain.Space{ID: id, Share: current}, nil
		},
		UpdateSpaceShareFunc: func(_ context.Context, id string, share domain.ShareConfig) (*domain.Space, error) {
			mu.Lock()
			defer mu.Unlock()
			updates++
			current = share
			return &domain.Space{ID: id, Share: share}, nil
		},
	}
	svc := newTestService(t, spaces, nil, nil, nil)

	tokens := make([]string, 2)
	var wg sync.WaitGroup
	for i := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := svc.EnsureShareToken(context.Background(), "sp-1")
			assert.NoError(t, err)
			tokens[i] = tok
		}()
	}
	wg.Wait()

	require.Equal(t, tokens[0], tokens[1], "concurrent mints must return the same link")
	require.Equal(t, 1, updates, "only one mint may reach the store")
}

func TestEnsureShareToken_MintsFreshAfterRevoke(t *testing.T) {
	t.Parallel()

	space := &domain.Space{ID: "sp-1", Share: domain.ShareConfig{Token: "tok-old", Enabled: false}}
	spaces := &spaceStoreMock{
		GetSpaceFunc: func(context.Context, string) (*domain.Space, error) { return space, nil },
		UpdateSpaceShareFunc: func(_ context.Context, id string, share domain.ShareConfig) (*domain.Space, error) {
			return &domain.Space{ID: id, Share: share}, nil
		},
	}
	svc := newTestService(t, spaces, nil, nil, nil)

	token, err := svc.EnsureShareToken(context.Background(), "sp-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEqual(t, "tok-old", token, "a revoked token must never come back to life")
}

func TestResolveShareToken_DisabledWinsOverPassword(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	spaces := &spaceStoreMock{
		FindSpaceByShareTokenFunc: func(_ context.Context, token string) (*domain.Space, error) {
			return &domain.Space{
				ID:    "sp-1",
				Share: domain.ShareConfig{Token: token, Enabled: false, PasswordHash: string(hash)},
			}, nil
		},
	}
	svc := newTestService(t, spaces, nil, nil, nil)

	// Even the correct password cannot open a disabled link.
	_, err = svc.ResolveShareToken(context.Background(), "tok", "s3cret")
	require.ErrorIs(t, err, domain.ErrAccessDisabled)

	_, err = svc.ResolveShareToken(context.Background(), "tok", "")
	require.ErrorIs(t, err, domain.ErrAccessDisabled)
}

func TestResolveShareToken_PasswordGate(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	spaces := &spaceStoreMock{
		FindSpaceByShareTokenFunc: func(_ context.Context, token string) (*domain.Space, error) {
			return &domain.Space{
				ID:    "sp-1",
				Share: domain.ShareConfig{Token: token, Enabled: true, PasswordHash: string(hash)},
			}, nil
		},
	}
	svc := newTestService(t, spaces, nil, nil, nil)

	_, err = svc.ResolveShareToken(context.Background(), "tok", "")
	require.ErrorIs(t, err, domain.ErrPasswordRequired)

	_, err = svc.ResolveShareToken(context.Background(), "tok", "wrong")
	require.ErrorIs(t, err, domain.ErrPasswordMismatch)

	space, err := svc.ResolveShareToken(context.Background(), "tok", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "sp-1", space.ID)
}

func TestResolveShareToken_CachesLookupButRechecksGates(t *testing.T) {
	t.Parallel()

	lookups := 0
	spaces := &spaceStoreMock{
		FindSpaceByShareTokenFunc: func(_ context.Context, token string) (*domain.Space, error) {
			lookups++
			return &domain.Space{ID: "sp-1", Share: domain.ShareConfig{Token: token, Enabled: true}}, nil
		},
	}
	svc := newTestService(t, spaces, nil, nil, nil)

	for range 3 {
		_, err := svc.ResolveShareToken(context.Background(), "tok", "")
		require.NoError(t, err)
	}
	require.Equal(t, 1, lookups)
}

func TestResolveShareToken_UnknownToken(t *testing.T) {
	t.Parallel()

	spaces := &spaceStoreMock{
		FindSpaceByShareTokenFunc: func(context.Context, string) (*domain.Space, error) {
			return nil, domain.ErrTokenNotFound
		},
	}
	svc := newTestService(t, spaces, nil, nil, nil)

	_, err := svc.ResolveShareToken(context.Background(), "nope", "")
	require.ErrorIs(t, err, domain.ErrTokenNotFound)

	_, err = svc.ResolveShareToken(context.Background(), "", "")
	require.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestRevokeShareToken_InvalidatesCachedLookup(t *testing.T) {
	t.Parallel()

	enabled := true
	spaces := &spaceStoreMock{
		GetSpaceFunc: func(_ context.Context, id string) (*domain.Space, error) {
			return &domain.Space{ID: id, Share: domain.ShareConfig{Token: "tok", Enabled: enabled}}, nil
		},
		FindSpaceByShareTokenFunc: func(_ context.Context, token string) (*domain.Space, error) {
			return &domain.Space{ID: "sp-1", Share: domain.ShareConfig{Token: token, Enabled: enabled}}, nil
		},
		UpdateSpaceShareFunc: func(_ context.Context, id string, share domain.ShareConfig) (*domain.Space, error) {
			enabled = share.Enabled
			return &domain.Space{ID: id, Share: share}, nil
		},
	}
	svc := newTestService(t, spaces, nil, nil, nil)

	_, err := svc.ResolveShareToken(context.Background(), "tok", "")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeShareToken(context.Background(), "sp-1"))

	_, err = svc.ResolveShareToken(context.Background(), "tok", "")
	require.ErrorIs(t, err, domain.ErrAccessDisabled)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	collabID := uuid.New()

	tests := []struct {
		name    string
		status  domain.InvitationStatus
		verify  error
		wantErr error
	}{
		{name: "accepted collaborator logs in", status: domain.InvitationAccepted},
		{name: "pending invitation is rejected", status: domain.InvitationPending, wantErr: domain.ErrInvitationNotAccepted},
		{name: "bad credentials", verify: domain.ErrCredentialMismatch, wantErr: domain.ErrCredentialMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			collabs := &collaboratorStoreMock{
				VerifyCredentialsFunc: func(context.Context, string, string, string) (*domain.Collaborator, error) {
					if tt.verify != nil {
						return nil, tt.verify
					}
					return &domain.Collaborator{ID: collabID, Role: domain.RoleCollaborator, Status: tt.status}, nil
				},
			}
			jwt := &tokenIssuerMock{
				GenerateAccessTokenFunc: func(id uuid.UUID, role string) (string, error) {
					require.Equal(t, collabID, id)
					return "signed-jwt", nil
				},
			}
			svc := newTestService(t, nil, collabs, nil, jwt)

			token, err := svc.Login(context.Background(), "inv-tok", "Ana", "pass1234")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "signed-jwt", token)
		})
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil, nil, nil, nil)

	_, err := svc.Login(context.Background(), "", "Ana", "pass1234")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAcceptInvitation_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil, nil, nil, nil)

	_, err := svc.AcceptInvitation(context.Background(), "tok", "  ", "pass1234")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.AcceptInvitation(context.Background(), "tok", "Ana", "short")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAcceptInvitation_ReturnsCollaborator(t *testing.T) {
	t.Parallel()

	collabID := uuid.New()
	collabs := &collaboratorStoreMock{
		AcceptInvitationFunc: func(_ context.Context, token, name, password string) error {
			require.Equal(t, "inv-tok", token)
			require.Equal(t, "Ana", name)
			return nil
		},
		GetCollaboratorByTokenFunc: func(context.Context, string) (*domain.Collaborator, error) {
			return &domain.Collaborator{ID: collabID, Status: domain.InvitationAccepted}, nil
		},
	}
	svc := newTestService(t, nil, collabs, nil, nil)

	collab, err := svc.AcceptInvitation(context.Background(), "inv-tok", "Ana", "pass1234")
	require.NoError(t, err)
	require.Equal(t, collabID, collab.ID)
	require.True(t, collab.IsAccepted())
}

func TestAcceptInvitation_SecondAcceptConflicts(t *testing.T) {
	t.Parallel()

	accepted := false
	collabs := &collaboratorStoreMock{
		AcceptInvitationFunc: func(context.Context, string, string, string) error {
			if accepted {
				return domain.ErrConflict
			}
			accepted = true
			return nil
		},
		GetCollaboratorByTokenFunc: func(context.Context, string) (*domain.Collaborator, error) {
			return &domain.Collaborator{ID: uuid.New(), Status: domain.InvitationAccepted}, nil
		},
	}
	svc := newTestService(t, nil, collabs, nil, nil)

	_, err := svc.AcceptInvitation(context.Background(), "inv-tok", "Ana", "pass1234")
	require.NoError(t, err)

	_, err = svc.AcceptInvitation(context.Background(), "inv-tok", "Ana", "pass1234")
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestInvite(t *testing.T) {
	t.Parallel()

	var gotToken string
	collabs := &collaboratorStoreMock{
		InviteCollaboratorFunc: func(_ context.Context, email string, role domain.CollaboratorRole, token string) (*domain.Collaborator, error) {
			gotToken = token
			return &domain.Collaborator{ID: uuid.New(), Email: email, Role: role, InvitationToken: token, Status: domain.InvitationPending}, nil
		},
	}
	svc := newTestService(t, nil, collabs, nil, nil)

	collab, err := svc.Invite(context.Background(), " Ana@Example.COM ", domain.RoleCollaborator)
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", collab.Email)
	require.NotEmpty(t, gotToken)
	require.GreaterOrEqual(t, len(gotToken), 32, "invitation tokens carry at least 192 bits of entropy")

	_, err = svc.Invite(context.Background(), "not-an-email", domain.RoleCollaborator)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Invite(context.Background(), "ana@example.com", domain.CollaboratorRole("root"))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGrant_RejectsDuplicatePair(t *testing.T) {
	t.Parallel()

	collabID := uuid.New()
	grants := &grantStoreMock{
		ListGrantsFunc: func(context.Context, uuid.UUID, string) ([]domain.SpaceGrant, error) {
			return []domain.SpaceGrant{{ID: "g-1", CollaboratorID: collabID, SpaceID: "sp-1"}}, nil
		},
	}
	svc := newTestService(t, nil, nil, grants, nil)

	_, err := svc.Grant(context.Background(), domain.SpaceGrant{
		CollaboratorID: collabID,
		SpaceID:        "sp-1",
		Permissions:    domain.Permissions{Read: true},
	})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestGrant_RejectsEmptyPermissions(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil, nil, nil, nil)

	_, err := svc.Grant(context.Background(), domain.SpaceGrant{
		CollaboratorID: uuid.New(),
		SpaceID:        "sp-1",
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRevokeGrant_PassesSpaceToStore(t *testing.T) {
	t.Parallel()

	var gotSpace, gotID string
	grants := &grantStoreMock{
		DeleteGrantFunc: func(_ context.Context, spaceID, id string) error {
			gotSpace, gotID = spaceID, id
			return nil
		},
	}
	svc := newTestService(t, nil, nil, grants, nil)

	require.NoError(t, svc.RevokeGrant(context.Background(), "sp-1", "g-9"))
	require.Equal(t, "sp-1", gotSpace)
	require.Equal(t, "g-9", gotID)

	err := svc.RevokeGrant(context.Background(), "", "g-9")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestEffectiveAccess_UnionsGrants(t *testing.T) {
	t.Parallel()

	collabID := uuid.New()
	grants := &grantStoreMock{
		ListGrantsFunc: func(context.Context, uuid.UUID, string) ([]domain.SpaceGrant, error) {
			return []domain.SpaceGrant{
				{Permissions: domain.Permissions{Read: true}},
				{Permissions: domain.Permissions{Write: true}},
			}, nil
		},
	}
	svc := newTestService(t, nil, nil, grants, nil)

	perms, err := svc.EffectiveAccess(context.Background(), collabID, "sp-1")
	require.NoError(t, err)
	require.Equal(t, domain.Permissions{Read: true, Write: true}, perms)
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		held    []domain.SpaceGrant
		need    domain.Permissions
		wantErr error
	}{
		{
			name: "read grant allows read",
			held: []domain.SpaceGrant{{Permissions: domain.Permissions{Read: true}}},
			need: domain.Permissions{Read: true},
		},
		{
			name:    "read grant forbids write",
			held:    []domain.SpaceGrant{{Permissions: domain.Permissions{Read: true}}},
			need:    domain.Permissions{Write: true},
			wantErr: domain.ErrForbidden,
		},
		{
			name: "admin implies everything",
			held: []domain.SpaceGrant{{Permissions: domain.Permissions{Admin: true}}},
			need: domain.Permissions{Read: true, Write: true},
		},
		{
			name:    "no grants means no access",
			held:    nil,
			need:    domain.Permissions{Read: true},
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			grants := &grantStoreMock{
				ListGrantsFunc: func(context.Context, uuid.UUID, string) ([]domain.SpaceGrant, error) {
					return tt.held, nil
				},
			}
			svc := newTestService(t, nil, nil, grants, nil)

			err := svc.Authorize(context.Background(), uuid.New(), "sp-1", tt.need)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	collabID := uuid.New()
	jwt := &tokenIssuerMock{
		ValidateAccessTokenFunc: func(token string) (uuid.UUID, string, error) {
			if token != "good" {
				return uuid.Nil, "", domain.ErrUnauthorized
			}
			return collabID, "admin", nil
		},
	}
	svc := newTestService(t, nil, nil, nil, jwt)

	id, err := svc.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	require.Equal(t, collabID, id)

	_, err = svc.ValidateToken(context.Background(), "bad")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestNewToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 64 {
		tok, err := NewToken()
		require.NoError(t, err)
		require.NotContains(t, tok, "=")
		require.NotContains(t, tok, "/")
		require.NotContains(t, tok, "+")
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}
