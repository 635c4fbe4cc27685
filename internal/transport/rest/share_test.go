package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/lbrode/clientspace/internal/domain"
)

type shareResolverMock struct {
	ResolveShareTokenFunc func(ctx context.Context, token, password string) (*domain.Space, error)
}

func (m *shareResolverMock) ResolveShareToken(ctx context.Context, token, password string) (*domain.Space, error) {
	return m.ResolveShareTokenFunc(ctx, token, password)
}

type clientDataMock struct {
	TasksFunc      func(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Task, error)
	MilestonesFunc func(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Milestone, error)
	InvoicesFunc   func(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Invoice, error)
}

func (m *clientDataMock) Tasks(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Task, error) {
	return m.TasksFunc(ctx, spaceID, viewer)
}

func (m *clientDataMock) Milestones(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Milestone, error) {
	return m.MilestonesFunc(ctx, spaceID, viewer)
}

func (m *clientDataMock) Invoices(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Invoice, error) {
	return m.InvoicesFunc(ctx, spaceID, viewer)
}

func newShareRouter(h *ShareHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/share/{token}/resolve", h.Resolve)
	r.Post("/api/share/{token}/overview", h.Overview)
	return r
}

func TestShareResolve_Success(t *testing.T) {
	t.Parallel()

	resolver := &shareResolverMock{
		ResolveShareTokenFunc: func(_ context.Context, token, password string) (*domain.Space, error) {
			require.Equal(t, "tok-1", token)
			require.Equal(t, "s3cret", password)
			return &domain.Space{ID: "sp-1", Name: "Website redesign", ClientName: "Acme", Share: domain.ShareConfig{PasswordHash: "x"}}, nil
		},
	}
	h := NewShareHandler(resolver, nil, testLogger())

	rec := postJSON(t, newShareRouter(h), "/api/share/tok-1/resolve", map[string]string{"password": "s3cret"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp spaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "sp-1", resp.ID)
	require.True(t, resp.RequiresPassword)
	require.NotContains(t, rec.Body.String(), "x", "password hash must never leave the server")
}

func TestShareResolve_DenialMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "unknown token", err: domain.ErrTokenNotFound, wantStatus: http.StatusNotFound},
		{name: "disabled link", err: domain.ErrAccessDisabled, wantStatus: http.StatusForbidden},
		{name: "password required", err: domain.ErrPasswordRequired, wantStatus: http.StatusUnauthorized},
		{name: "wrong password", err: domain.ErrPasswordMismatch, wantStatus: http.StatusForbidden},
		{name: "store unavailable", err: domain.ErrRemoteUnavailable, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolver := &shareResolverMock{
				ResolveShareTokenFunc: func(context.Context, string, string) (*domain.Space, error) {
					return nil, tt.err
				},
			}
			h := NewShareHandler(resolver, nil, testLogger())

			rec := postJSON(t, newShareRouter(h), "/api/share/tok-1/resolve", map[string]string{})
			require.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestShareOverview_UsesClientViewer(t *testing.T) {
	t.Parallel()

	resolver := &shareResolverMock{
		ResolveShareTokenFunc: func(context.Context, string, string) (*domain.Space, error) {
			return &domain.Space{ID: "sp-1", Name: "Website redesign"}, nil
		},
	}
	data := &clientDataMock{
		TasksFunc: func(_ context.Context, spaceID string, viewer domain.Viewer) ([]domain.Task, error) {
			require.Equal(t, domain.ViewerClient, viewer)
			return []domain.Task{{ID: "t-1", SpaceID: spaceID, Title: "wireframes"}}, nil
		},
		MilestonesFunc: func(_ context.Context, _ string, viewer domain.Viewer) ([]domain.Milestone, error) {
			require.Equal(t, domain.ViewerClient, viewer)
			return nil, nil
		},
		InvoicesFunc: func(_ context.Context, _ string, viewer domain.Viewer) ([]domain.Invoice, error) {
			require.Equal(t, domain.ViewerClient, viewer)
			return nil, nil
		},
	}
	h := NewShareHandler(resolver, data, testLogger())

	rec := postJSON(t, newShareRouter(h), "/api/share/tok-1/overview", map[string]string{})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp overviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "sp-1", resp.Space.ID)
	require.Len(t, resp.Tasks, 1)
}
