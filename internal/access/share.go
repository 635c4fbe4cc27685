package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lbrode/clientspace/internal/cache"
	"github.com/lbrode/clientspace/internal/domain"
)

// EnsureShareToken returns the active share token for a space, creating
// one only when none is active. Find-or-create keeps previously shared
// links valid: generating twice without a revoke in between returns the
// same token. After a revoke a fresh token is minted so old links stay
// dead.
//
// shareMu makes the find-or-create atomic: of two concurrent calls
// observing no active token, the second reuses the first one's mint
// instead of silently replacing it.
func (s *Service) EnsureShareToken(ctx context.Context, spaceID string) (string, error) {
	s.shareMu.Lock()
	defer s.shareMu.Unlock()

	space, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return "", fmt.Errorf("access.EnsureShareToken get space: %w", err)
	}

	if space.Share.Token != "" && space.Share.Enabled {
		return space.Share.Token, nil
	}

	cfg := space.Share
	token, err := NewToken()
	if err != nil {
		return "", fmt.Errorf("access.EnsureShareToken: %w", err)
	}
	cfg.Token = token
	cfg.Enabled = true

	updated, err := s.spaces.UpdateSpaceShare(ctx, spaceID, cfg)
	if err != nil {
		return "", fmt.Errorf("access.EnsureShareToken update: %w", err)
	}

	s.log.InfoContext(ctx, "share token issued", slog.String("space_id", spaceID))
	return updated.Share.Token, nil
}

// RevokeShareToken disables the share link of a space. The token value
// remains on the record but resolves to AccessDisabled until a new link
// is generated.
func (s *Service) RevokeShareToken(ctx context.Context, spaceID string) error {
	s.shareMu.Lock()
	defer s.shareMu.Unlock()

	space, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("access.RevokeShareToken get space: %w", err)
	}
	if space.Share.Token == "" {
		return nil
	}

	cfg := space.Share
	cfg.Enabled = false
	if _, err := s.spaces.UpdateSpaceShare(ctx, spaceID, cfg); err != nil {
		return fmt.Errorf("access.RevokeShareToken update: %w", err)
	}

	// Drop the cached lookup so the disable takes effect immediately.
	s.store.Invalidate(cache.ShareKey(space.Share.Token))

	s.log.InfoContext(ctx, "share token revoked", slog.String("space_id", spaceID))
	return nil
}

// SetSharePassword sets or clears the password gate on a space's share
// link. An empty password removes the gate.
func (s *Service) SetSharePassword(ctx context.Context, spaceID, password string) error {
	s.shareMu.Lock()
	defer s.shareMu.Unlock()

	space, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("access.SetSharePassword get space: %w", err)
	}

	cfg := space.Share
	if password == "" {
		cfg.PasswordHash = ""
	} else {
		hash, err := hashPassword(password, s.cfg.HashCost)
		if err != nil {
			return fmt.Errorf("access.SetSharePassword: %w", err)
		}
		cfg.PasswordHash = hash
	}

	if _, err := s.spaces.UpdateSpaceShare(ctx, spaceID, cfg); err != nil {
		return fmt.Errorf("access.SetSharePassword update: %w", err)
	}
	if cfg.Token != "" {
		s.store.Invalidate(cache.ShareKey(cfg.Token))
	}
	return nil
}

// ResolveShareToken maps a share token to its space.
//
// The lookup is cached; the enable flag and password gate are re-applied
// on every call, cached or not. Denial order is fixed: a disabled link
// always reports AccessDisabled, regardless of password correctness.
func (s *Service) ResolveShareToken(ctx context.Context, token, password string) (*domain.Space, error) {
	if token == "" {
		return nil, fmt.Errorf("access.ResolveShareToken: %w", domain.ErrTokenNotFound)
	}

	v, err := s.loader.Load(ctx, cache.ShareKey(token), s.cfg.ShareTTL, func(ctx context.Context) (any, error) {
		return s.spaces.FindSpaceByShareToken(ctx, token)
	})
	if err != nil {
		return nil, fmt.Errorf("access.ResolveShareToken: %w", err)
	}
	space := v.(*domain.Space)

	if !space.Share.Enabled {
		return nil, fmt.Errorf("access.ResolveShareToken: %w", domain.ErrAccessDisabled)
	}
	if space.Share.HasPassword() {
		if password == "" {
			return nil, fmt.Errorf("access.ResolveShareToken: %w", domain.ErrPasswordRequired)
		}
		if !checkPassword(space.Share.PasswordHash, password) {
			return nil, fmt.Errorf("access.ResolveShareToken: %w", domain.ErrPasswordMismatch)
		}
	}

	return space, nil
}
