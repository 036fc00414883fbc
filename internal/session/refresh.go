package session

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
	"github.com/abdallahh166/Orangesites-sub000/internal/tokenstore"
)

const refreshKey = "refresh"

// EnsureValidAccessToken returns a bearer token for a protected call. A token
// that is expired (or about to be) is refreshed first. Concurrent callers
// share a single refresh request. Its signature matches client.TokenSource.
func (m *Manager) EnsureValidAccessToken(ctx context.Context) (string, error) {
	pair, _, ok, err := tokenstore.ReadFirst(m.store)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrStorageUnavailable, err)
	}
	if !ok {
		return "", apperr.ErrUnauthenticated
	}
	if !m.expired(pair.AccessToken) {
		return pair.AccessToken, nil
	}

	ch := m.flight.DoChan(refreshKey, func() (any, error) {
		return m.refresh()
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh rotates the stored pair. It runs detached from any caller's context
// and is bounded by the refresh timeout. Every failure tears the session down
// unless a sign-in, logout or teardown has happened since the flight began.
func (m *Manager) refresh() (string, error) {
	gen := m.generation()
	// A refresh that completed between the caller's read and this flight
	// starting has already stored a usable token.
	pair, tier, ok, err := tokenstore.ReadFirst(m.store)
	if err != nil {
		m.teardownSince(gen, "token store unreadable", err)
		return "", apperr.Wrap(apperr.ErrSessionExpired, err)
	}
	if !ok {
		m.teardownSince(gen, "tokens cleared during refresh", nil)
		return "", apperr.ErrSessionExpired
	}
	if !m.expired(pair.AccessToken) {
		return pair.AccessToken, nil
	}

	m.mu.Lock()
	if m.gen == gen {
		m.state = Refreshing
	}
	m.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), m.refreshTimeout)
	defer cancel()

	resp, err := m.api.Refresh(ctx, pair.RefreshToken)
	if err == nil && (resp == nil || resp.Token == "" || resp.RefreshToken == "") {
		err = errors.New("refresh response missing tokens")
	}
	if err != nil {
		m.teardownSince(gen, "refresh failed", err)
		return "", apperr.Wrap(apperr.ErrSessionExpired, err)
	}

	next := tokenstore.Pair{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
		RememberMe:   tier == tokenstore.Remembered,
	}

	// The write happens under mu so that Logout, teardown or a new sign-in
	// either sees the new pair and clears it, or has already moved gen on.
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.log.Info("refresh result dropped: session changed while refreshing")
		return "", apperr.ErrSessionExpired
	}
	if err := m.store.Write(tier, next); err != nil {
		m.mu.Unlock()
		m.teardownSince(gen, "store refreshed tokens", err)
		return "", apperr.Wrap(apperr.ErrSessionExpired, apperr.Wrap(apperr.ErrStorageUnavailable, err))
	}
	if resp.User != nil {
		m.user = resp.User
	}
	m.tier = tier
	m.state = Authenticated
	m.mu.Unlock()
	m.log.Info("access token refreshed", zap.Stringer("tier", tier))
	return resp.Token, nil
}

// teardownSince tears the session down unless it has been replaced or
// cleared since gen was taken.
func (m *Manager) teardownSince(gen uint64, reason string, cause error) {
	if m.generation() != gen {
		m.log.Info("refresh failure ignored: session changed while refreshing", zap.Error(cause))
		return
	}
	m.teardown(reason, cause)
}

// expired reports whether token's exp claim is at or before now plus the
// leeway. Tokens without exp, or that do not parse, count as expired.
func (m *Manager) expired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return !m.now().Add(m.leeway).Before(claims.ExpiresAt.Time)
}
