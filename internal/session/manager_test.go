package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
	"github.com/abdallahh166/Orangesites-sub000/internal/tokenstore"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

func assertNoTokens(t *testing.T, store tokenstore.Store) {
	t.Helper()
	for _, tier := range tokenstore.Tiers {
		if p, ok, _ := store.Read(tier); ok {
			t.Errorf("%s tier still holds a pair: %+v", tier, p)
		}
	}
}

func TestLogin_RememberSelectsTier(t *testing.T) {
	tests := []struct {
		name     string
		remember bool
		want     tokenstore.Tier
		empty    tokenstore.Tier
	}{
		{"remember", true, tokenstore.Remembered, tokenstore.Ephemeral},
		{"session only", false, tokenstore.Ephemeral, tokenstore.Remembered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			store := tokenstore.NewMemoryStore()
			m := newTestManager(t, api.URL, store, Options{})

			user, err := m.Login(context.Background(), "eng@example.com", "pw", tt.remember)
			if err != nil {
				t.Fatalf("Login() error: %v", err)
			}
			if user.ID != testUser.ID {
				t.Errorf("user.ID = %d, want %d", user.ID, testUser.ID)
			}
			p, ok, _ := store.Read(tt.want)
			if !ok {
				t.Fatalf("%s tier empty after login", tt.want)
			}
			if p.RememberMe != tt.remember {
				t.Errorf("RememberMe = %v, want %v", p.RememberMe, tt.remember)
			}
			if _, ok, _ := store.Read(tt.empty); ok {
				t.Errorf("%s tier populated after login", tt.empty)
			}

			snap := m.Snapshot()
			if !snap.IsAuthenticated || snap.State != Authenticated || snap.Tier != tt.want {
				t.Errorf("Snapshot() = %+v, want authenticated in %s", snap, tt.want)
			}
		})
	}
}

func TestLogin_RetiresPairInOtherTier(t *testing.T) {
	api := newFakeAPI(t)
	store := tokenstore.NewMemoryStore()
	store.Write(tokenstore.Ephemeral, tokenstore.Pair{AccessToken: "old", RefreshToken: "old"}) //nolint:errcheck
	m := newTestManager(t, api.URL, store, Options{})

	if _, err := m.Login(context.Background(), "eng@example.com", "pw", true); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if _, ok, _ := store.Read(tokenstore.Ephemeral); ok {
		t.Error("ephemeral pair survived a remembered login")
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name        string
		password    string
		loginStatus int
		want        error
	}{
		{"wrong password", "nope", 0, apperr.ErrInvalidCredentials},
		{"server error", "pw", 503, apperr.ErrServerError},
		{"rejected", "pw", 422, apperr.ErrRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.set(func(f *fakeAPI) { f.loginStatus = tt.loginStatus })
			store := tokenstore.NewMemoryStore()
			m := newTestManager(t, api.URL, store, Options{})

			_, err := m.Login(context.Background(), "eng@example.com", tt.password, false)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Login() error = %v, want %v", err, tt.want)
			}
			assertNoTokens(t, store)
			if s := m.State(); s != Unauthenticated {
				t.Errorf("State() = %s, want unauthenticated", s)
			}
			if apperr.Message(err) == "" {
				t.Error("Message() is empty")
			}
		})
	}
}

func TestLogin_NetworkUnavailable(t *testing.T) {
	api := newFakeAPI(t)
	url := api.URL
	api.Close()

	m := newTestManager(t, url, tokenstore.NewMemoryStore(), Options{})
	_, err := m.Login(context.Background(), "eng@example.com", "pw", false)
	if !errors.Is(err, apperr.ErrNetworkUnavailable) {
		t.Fatalf("Login() error = %v, want ErrNetworkUnavailable", err)
	}
}

func TestRegister_AlwaysRemembered(t *testing.T) {
	api := newFakeAPI(t)
	store := tokenstore.NewMemoryStore()
	m := newTestManager(t, api.URL, store, Options{})

	_, err := m.Register(context.Background(), domain.RegisterRequest{
		FullName: "New Engineer",
		Email:    "new@example.com",
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	p, ok, _ := store.Read(tokenstore.Remembered)
	if !ok || !p.RememberMe {
		t.Errorf("Remembered tier = %+v (ok=%v), want a remembered pair", p, ok)
	}
	if _, ok, _ := store.Read(tokenstore.Ephemeral); ok {
		t.Error("Ephemeral tier populated by registration")
	}
}

func TestLogout_NetworkFailureStillClears(t *testing.T) {
	api := newFakeAPI(t)
	store := tokenstore.NewMemoryStore()
	m := newTestManager(t, api.URL, store, Options{})
	if _, err := m.Login(context.Background(), "eng@example.com", "pw", true); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	api.set(func(f *fakeAPI) { f.logoutStatus = 500 })
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v, want nil", err)
	}
	if api.logoutCalls.Load() != 1 {
		t.Errorf("logout calls = %d, want 1", api.logoutCalls.Load())
	}
	assertNoTokens(t, store)
	if snap := m.Snapshot(); snap.IsAuthenticated || snap.User != nil {
		t.Errorf("Snapshot() = %+v, want signed out", snap)
	}
}

func TestLogout_ServerUnreachable(t *testing.T) {
	api := newFakeAPI(t)
	url := api.URL
	api.Close()

	store := tokenstore.NewMemoryStore()
	store.Write(tokenstore.Remembered, tokenstore.Pair{AccessToken: "a", RefreshToken: "r"}) //nolint:errcheck
	m := newTestManager(t, url, store, Options{})

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v, want nil", err)
	}
	assertNoTokens(t, store)
}

func TestInit_NoStoredSession(t *testing.T) {
	api := newFakeAPI(t)
	m := newTestManager(t, api.URL, tokenstore.NewMemoryStore(), Options{})

	user, err := m.Init(context.Background())
	if err != nil || user != nil {
		t.Fatalf("Init() = (%v, %v), want (nil, nil)", user, err)
	}
	if api.meCalls.Load() != 0 {
		t.Errorf("profile fetched without a session")
	}
}

// Login with remember, restart the process, and the remembered pair restores
// the user without another login.
func TestInit_RememberedSessionSurvivesRestart(t *testing.T) {
	api := newFakeAPI(t)
	root := t.TempDir()
	newStore := func() tokenstore.Store {
		return tokenstore.NewFileStore(filepath.Join(root, "run"), filepath.Join(root, "home"))
	}

	first := newTestManager(t, api.URL, newStore(), Options{})
	if _, err := first.Login(context.Background(), "eng@example.com", "pw", true); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	second := newTestManager(t, api.URL, newStore(), Options{})
	user, err := second.Init(context.Background())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if user == nil || user.Email != testUser.Email {
		t.Fatalf("Init() user = %+v, want %s", user, testUser.Email)
	}
	if n := api.loginCalls.Load(); n != 1 {
		t.Errorf("login calls = %d, want 1", n)
	}
	if n := api.refreshCalls.Load(); n != 0 {
		t.Errorf("refresh calls = %d, want 0", n)
	}
	if n := api.meCalls.Load(); n != 1 {
		t.Errorf("profile fetches = %d, want 1", n)
	}
	if snap := second.Snapshot(); !snap.IsAuthenticated || snap.Tier != tokenstore.Remembered || snap.IsLoading {
		t.Errorf("Snapshot() = %+v, want authenticated in remembered tier", snap)
	}
}

func TestInit_ExpiredTokenIsRefreshed(t *testing.T) {
	api := newFakeAPI(t)
	store := tokenstore.NewMemoryStore()
	store.Write(tokenstore.Remembered, tokenstore.Pair{AccessToken: mintToken(t, -time.Minute), RefreshToken: "refresh-1", RememberMe: true}) //nolint:errcheck
	m := newTestManager(t, api.URL, store, Options{})

	user, err := m.Init(context.Background())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if user == nil {
		t.Fatal("Init() user = nil")
	}
	if n := api.refreshCalls.Load(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
	p, _, _ := store.Read(tokenstore.Remembered)
	if p.RefreshToken != "refresh-2" {
		t.Errorf("RefreshToken = %q, want rotated %q", p.RefreshToken, "refresh-2")
	}
}

func TestInit_ProfileFetchFailureExpiresSession(t *testing.T) {
	api := newFakeAPI(t)
	api.set(func(f *fakeAPI) { f.meStatus = 500 })
	store := tokenstore.NewMemoryStore()
	store.Write(tokenstore.Ephemeral, tokenstore.Pair{AccessToken: mintToken(t, time.Hour), RefreshToken: "r"}) //nolint:errcheck
	m := newTestManager(t, api.URL, store, Options{})

	_, err := m.Init(context.Background())
	if !errors.Is(err, apperr.ErrSessionExpired) {
		t.Fatalf("Init() error = %v, want ErrSessionExpired", err)
	}
	assertNoTokens(t, store)
	if s := m.State(); s != Expired {
		t.Errorf("State() = %s, want expired", s)
	}
}

func TestUpdateProfile(t *testing.T) {
	api := newFakeAPI(t)
	m := newTestManager(t, api.URL, tokenstore.NewMemoryStore(), Options{})
	if _, err := m.UpdateProfile(context.Background(), domain.UpdateProfileRequest{FullName: "x"}); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("UpdateProfile() before login error = %v, want ErrUnauthenticated", err)
	}
	if _, err := m.Login(context.Background(), "eng@example.com", "pw", false); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	user, err := m.UpdateProfile(context.Background(), domain.UpdateProfileRequest{FullName: "Renamed"})
	if err != nil {
		t.Fatalf("UpdateProfile() error: %v", err)
	}
	if user.FullName != "Renamed" || m.User().FullName != "Renamed" {
		t.Errorf("FullName = %q / %q, want Renamed", user.FullName, m.User().FullName)
	}
}

func TestChangePassword(t *testing.T) {
	api := newFakeAPI(t)
	m := newTestManager(t, api.URL, tokenstore.NewMemoryStore(), Options{})
	if _, err := m.Login(context.Background(), "eng@example.com", "pw", false); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if err := m.ChangePassword(context.Background(), "pw", "new-pw"); err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}
	err := m.ChangePassword(context.Background(), "wrong", "new-pw")
	if !errors.Is(err, apperr.ErrRejected) {
		t.Fatalf("ChangePassword() error = %v, want ErrRejected", err)
	}
	if got := apperr.Message(err); got != "current password is incorrect" {
		t.Errorf("Message() = %q, want server text", got)
	}
	if !m.Snapshot().IsAuthenticated {
		t.Error("rejected password change ended the session")
	}
}

func TestChangePassword_WrongCurrentAnswered401(t *testing.T) {
	api := newFakeAPI(t)
	api.set(func(f *fakeAPI) { f.wrongPasswordStatus = 401 })
	store := tokenstore.NewMemoryStore()
	m := newTestManager(t, api.URL, store, Options{})
	if _, err := m.Login(context.Background(), "eng@example.com", "pw", true); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	err := m.ChangePassword(context.Background(), "wrong", "new-pw")
	if !errors.Is(err, apperr.ErrRejected) {
		t.Fatalf("ChangePassword() error = %v, want ErrRejected", err)
	}
	if errors.Is(err, apperr.ErrSessionExpired) {
		t.Errorf("ChangePassword() error = %v, must not report an expired session", err)
	}
	if got := apperr.Message(err); got != "current password is incorrect" {
		t.Errorf("Message() = %q, want server text", got)
	}
	if snap := m.Snapshot(); !snap.IsAuthenticated || snap.State != Authenticated {
		t.Errorf("Snapshot() = %+v, want the session kept", snap)
	}
	if p, ok, _ := store.Read(tokenstore.Remembered); !ok || p.RefreshToken != "refresh-1" {
		t.Errorf("remembered tier = %+v, want the login pair kept", p)
	}
}

func TestResetPassword(t *testing.T) {
	api := newFakeAPI(t)
	m := newTestManager(t, api.URL, tokenstore.NewMemoryStore(), Options{})
	if err := m.ResetPassword(context.Background(), "eng@example.com"); err != nil {
		t.Fatalf("ResetPassword() error: %v", err)
	}
}

func TestUnexpected401TearsDown(t *testing.T) {
	api := newFakeAPI(t)
	store := tokenstore.NewMemoryStore()
	m := newTestManager(t, api.URL, store, Options{})
	if _, err := m.Login(context.Background(), "eng@example.com", "pw", true); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	api.set(func(f *fakeAPI) { f.meStatus = 401 })
	_, err := m.UpdateProfile(context.Background(), domain.UpdateProfileRequest{FullName: "x"})
	if !errors.Is(err, apperr.ErrSessionExpired) {
		t.Fatalf("UpdateProfile() error = %v, want ErrSessionExpired", err)
	}
	assertNoTokens(t, store)
	if m.Snapshot().IsAuthenticated {
		t.Error("IsAuthenticated = true after 401")
	}
}

func TestSnapshotConcurrentReads(t *testing.T) {
	api := newFakeAPI(t)
	m := newTestManager(t, api.URL, tokenstore.NewMemoryStore(), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = m.Snapshot()
			}
		}()
	}
	if _, err := m.Login(context.Background(), "eng@example.com", "pw", false); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	wg.Wait()
}
