package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zaptest"

	"github.com/abdallahh166/Orangesites-sub000/internal/tokenstore"
	"github.com/abdallahh166/Orangesites-sub000/pkg/client"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

var testSecret = []byte("test-secret")

// mintToken signs an HS256 access token expiring ttl from now.
func mintToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

var testUser = domain.UserProfile{ID: 7, Email: "eng@example.com", FullName: "Field Engineer", Role: domain.RoleEngineer, IsActive: true}

// fakeAPI is an in-process auth server. Status fields of zero mean success.
type fakeAPI struct {
	*httptest.Server
	t *testing.T

	loginCalls   atomic.Int32
	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
	meCalls      atomic.Int32

	mu            sync.Mutex
	loginStatus   int
	refreshStatus int
	refreshDelay  time.Duration
	logoutStatus  int
	meStatus      int
	// wrongPasswordStatus answers a wrong current password; zero means 400.
	wrongPasswordStatus int
	user                domain.UserProfile
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t, user: testUser}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", f.handleLogin)
	mux.HandleFunc("POST /auth/register", f.handleRegister)
	mux.HandleFunc("POST /auth/refresh", f.handleRefresh)
	mux.HandleFunc("POST /auth/logout", f.handleLogout)
	mux.HandleFunc("GET /users/me", f.handleMe)
	mux.HandleFunc("PATCH /users/me", f.handleUpdateMe)
	mux.HandleFunc("POST /auth/change-password", f.handleChangePassword)
	mux.HandleFunc("POST /auth/forgot-password", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) status(p *int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func (f *fakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	f.loginCalls.Add(1)
	if code := f.status(&f.loginStatus); code != 0 {
		writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
		return
	}
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad body"})
		return
	}
	if body["password"] != "pw" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	u := f.currentUser()
	writeJSON(w, http.StatusOK, domain.AuthResponse{Token: mintToken(f.t, time.Hour), RefreshToken: "refresh-1", User: &u})
}

func (f *fakeAPI) handleRegister(w http.ResponseWriter, _ *http.Request) {
	u := f.currentUser()
	writeJSON(w, http.StatusCreated, domain.AuthResponse{Token: mintToken(f.t, time.Hour), RefreshToken: "refresh-1", User: &u})
}

func (f *fakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.refreshCalls.Add(1)
	f.mu.Lock()
	delay, code := f.refreshDelay, f.refreshStatus
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if code != 0 {
		writeJSON(w, code, map[string]string{"error": "refresh rejected"})
		return
	}
	writeJSON(w, http.StatusOK, domain.AuthResponse{Token: mintToken(f.t, time.Hour), RefreshToken: "refresh-2"})
}

func (f *fakeAPI) handleLogout(w http.ResponseWriter, _ *http.Request) {
	f.logoutCalls.Add(1)
	if code := f.status(&f.logoutStatus); code != 0 {
		writeJSON(w, code, map[string]string{"error": "logout failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) authorized(w http.ResponseWriter, r *http.Request) bool {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return false
	}
	if code := f.status(&f.meStatus); code != 0 {
		writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
		return false
	}
	return true
}

func (f *fakeAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	f.meCalls.Add(1)
	if !f.authorized(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, f.currentUser())
}

func (f *fakeAPI) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad body"})
		return
	}
	f.mu.Lock()
	if req.FullName != "" {
		f.user.FullName = req.FullName
	}
	if req.Phone != "" {
		f.user.Phone = req.Phone
	}
	u := f.user
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (f *fakeAPI) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	var body map[string]string
	json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
	if body["currentPassword"] != "pw" {
		code := f.status(&f.wrongPasswordStatus)
		if code == 0 {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, map[string]string{"error": "current password is incorrect"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) currentUser() domain.UserProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

// newTestManager wires a Manager and a real client against url, the same way
// the CLI does.
func newTestManager(t *testing.T, url string, store tokenstore.Store, opts Options) *Manager {
	t.Helper()
	c := client.New(url)
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	m := New(c, store, opts)
	c.UseTokenSource(m.EnsureValidAccessToken)
	return m
}
