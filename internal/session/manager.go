// Package session owns the signed-in user and the token pair behind it.
//
// Every protected API call asks the Manager for a bearer token through
// EnsureValidAccessToken. Expired tokens are refreshed once, with concurrent
// callers sharing the in-flight refresh. Any refresh failure tears the
// session down.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
	"github.com/abdallahh166/Orangesites-sub000/internal/tokenstore"
	"github.com/abdallahh166/Orangesites-sub000/pkg/client"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// API is the subset of the REST client the session needs.
type API interface {
	Login(ctx context.Context, email, password string) (*domain.AuthResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetMe(ctx context.Context) (*domain.UserProfile, error)
	UpdateMe(ctx context.Context, req domain.UpdateProfileRequest) (*domain.UserProfile, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
}

// State is the session lifecycle position.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Refreshing
	Expired
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a consistent read of the session for the UI.
type Snapshot struct {
	User            *domain.UserProfile
	IsAuthenticated bool
	IsLoading       bool
	State           State
	Tier            tokenstore.Tier
}

// Options tunes a Manager. Zero values take the defaults.
type Options struct {
	RefreshTimeout time.Duration
	ExpiryLeeway   time.Duration
	Logger         *zap.Logger
	Now            func() time.Time
}

const (
	defaultRefreshTimeout = 15 * time.Second
	defaultExpiryLeeway   = 10 * time.Second
)

// Manager is the single owner of session state.
type Manager struct {
	api            API
	store          tokenstore.Store
	log            *zap.Logger
	now            func() time.Time
	refreshTimeout time.Duration
	leeway         time.Duration

	flight singleflight.Group

	mu      sync.RWMutex
	user    *domain.UserProfile
	tier    tokenstore.Tier
	state   State
	loading bool
	// gen changes whenever the stored pair is replaced or cleared outside a
	// refresh. A refresh that sees it change drops its result.
	gen uint64
}

// New creates a Manager over api and store.
func New(api API, store tokenstore.Store, opts Options) *Manager {
	m := &Manager{
		api:            api,
		store:          store,
		log:            opts.Logger,
		now:            opts.Now,
		refreshTimeout: opts.RefreshTimeout,
		leeway:         opts.ExpiryLeeway,
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.refreshTimeout <= 0 {
		m.refreshTimeout = defaultRefreshTimeout
	}
	switch {
	case m.leeway == 0:
		m.leeway = defaultExpiryLeeway
	case m.leeway < 0:
		m.leeway = 0
	}
	return m
}

// Snapshot returns the current user and lifecycle state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		User:            m.user,
		IsAuthenticated: m.user != nil && (m.state == Authenticated || m.state == Refreshing),
		IsLoading:       m.loading || m.state == Authenticating,
		State:           m.state,
		Tier:            m.tier,
	}
}

// User returns the in-memory profile, or nil when signed out.
func (m *Manager) User() *domain.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Init restores a stored session at startup. It returns a nil user and a nil
// error when nothing is stored. A stored session whose token cannot be made
// valid, or whose owner cannot be fetched, is torn down with ErrSessionExpired.
func (m *Manager) Init(ctx context.Context) (*domain.UserProfile, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	_, tier, ok, err := tokenstore.ReadFirst(m.store)
	if err != nil {
		m.teardown("token store unreadable", err)
		return nil, apperr.Wrap(apperr.ErrSessionExpired, apperr.Wrap(apperr.ErrStorageUnavailable, err))
	}
	if !ok {
		m.setState(Unauthenticated)
		return nil, nil
	}

	if _, err := m.EnsureValidAccessToken(ctx); err != nil {
		if !errors.Is(err, apperr.ErrSessionExpired) {
			m.teardown("stored token unusable", err)
			err = apperr.Wrap(apperr.ErrSessionExpired, err)
		}
		return nil, err
	}

	user, err := m.api.GetMe(ctx)
	if err != nil {
		m.teardown("profile fetch failed", err)
		return nil, apperr.Wrap(apperr.ErrSessionExpired, err)
	}

	m.mu.Lock()
	m.user = user
	m.tier = tier
	m.state = Authenticated
	m.mu.Unlock()
	m.log.Info("session restored", zap.Int64("user_id", user.ID), zap.Stringer("tier", tier))
	return user, nil
}

// Login exchanges credentials for a token pair stored in the tier selected by
// remember. Any pair in either tier is retired first.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) (*domain.UserProfile, error) {
	tier := tokenstore.Ephemeral
	if remember {
		tier = tokenstore.Remembered
	}

	prev := m.swapState(Authenticating)
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.setState(prev)
		m.log.Info("login failed", zap.Error(err))
		return nil, apperr.Classify(err, apperr.ErrInvalidCredentials)
	}
	user, err := m.establish(ctx, resp, tier)
	if err != nil {
		m.setState(prev)
		return nil, err
	}
	m.log.Info("signed in", zap.Int64("user_id", user.ID), zap.Stringer("tier", tier))
	return user, nil
}

// Register creates an account and signs in. Registration always uses the
// Remembered tier.
func (m *Manager) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserProfile, error) {
	prev := m.swapState(Authenticating)
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		m.setState(prev)
		return nil, apperr.Classify(err, apperr.ErrRejected)
	}
	user, err := m.establish(ctx, resp, tokenstore.Remembered)
	if err != nil {
		m.setState(prev)
		return nil, err
	}
	m.log.Info("registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Logout revokes the refresh token server-side on a best-effort basis, then
// clears both tiers and the in-memory user. Only a local storage failure is
// returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.bump()
	pair, _, ok, err := tokenstore.ReadFirst(m.store)
	if err != nil {
		m.log.Warn("logout: read tokens", zap.Error(err))
	}
	if ok {
		if err := m.api.Logout(ctx, pair.RefreshToken); err != nil {
			m.log.Warn("logout: server revocation failed", zap.Error(err))
		}
	}

	clearErr := m.store.ClearAll()
	m.mu.Lock()
	m.user = nil
	m.state = Unauthenticated
	m.mu.Unlock()
	if clearErr != nil {
		m.log.Error("logout: clear tokens", zap.Error(clearErr))
		return apperr.Wrap(apperr.ErrStorageUnavailable, clearErr)
	}
	m.log.Info("signed out")
	return nil
}

// HandleAPIError maps the error of a protected call onto the taxonomy. A 401
// on a token that looked valid locally tears the session down.
func (m *Manager) HandleAPIError(err error) error {
	if err == nil {
		return nil
	}
	if client.IsStatus(err, 401) {
		m.teardown("server rejected access token", err)
		return apperr.Wrap(apperr.ErrSessionExpired, err)
	}
	return apperr.Classify(err, apperr.ErrSessionExpired)
}

// establish stores resp's pair in tier and sets the user. The user is fetched
// when the auth response does not carry one.
func (m *Manager) establish(ctx context.Context, resp *domain.AuthResponse, tier tokenstore.Tier) (*domain.UserProfile, error) {
	if resp == nil || resp.Token == "" || resp.RefreshToken == "" {
		return nil, apperr.Wrap(apperr.ErrServerError, errors.New("auth response missing tokens"))
	}

	pair := tokenstore.Pair{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
		RememberMe:   tier == tokenstore.Remembered,
	}
	m.bump()
	if err := m.store.ClearAll(); err != nil {
		return nil, apperr.Wrap(apperr.ErrStorageUnavailable, err)
	}
	if err := m.store.Write(tier, pair); err != nil {
		return nil, apperr.Wrap(apperr.ErrStorageUnavailable, err)
	}

	user := resp.User
	if user == nil {
		u, err := m.api.GetMe(ctx)
		if err != nil {
			m.teardown("profile fetch after sign-in failed", err)
			return nil, apperr.Classify(err, apperr.ErrSessionExpired)
		}
		user = u
	}

	m.mu.Lock()
	m.user = user
	m.tier = tier
	m.state = Authenticated
	m.mu.Unlock()
	return user, nil
}

// teardown clears both tiers and the in-memory user and marks the session
// expired.
func (m *Manager) teardown(reason string, cause error) {
	m.bump()
	if err := m.store.ClearAll(); err != nil {
		m.log.Error("teardown: clear tokens", zap.Error(err))
	}
	m.mu.Lock()
	m.user = nil
	m.state = Expired
	m.mu.Unlock()
	m.log.Warn("session torn down", zap.String("reason", reason), zap.Error(cause))
}

// bump invalidates any refresh in flight.
func (m *Manager) bump() {
	m.mu.Lock()
	m.gen++
	m.mu.Unlock()
}

func (m *Manager) generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) swapState(s State) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state
	m.state = s
	return prev
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}
