package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// fakeServer is the slice of the inspection API the commands talk to.
type fakeServer struct {
	*httptest.Server
	t *testing.T

	logoutCalls   atomic.Int32
	registerCalls atomic.Int32
	refreshStatus atomic.Int32

	mu   sync.Mutex
	user domain.UserProfile
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{t: t, user: domain.UserProfile{
		ID: 7, Email: "eng@example.com", FullName: "Field Engineer", Role: domain.RoleEngineer, IsActive: true,
	}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["email"] != "eng@example.com" || body["password"] != "pw" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		f.auth(w, http.StatusOK)
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		f.registerCalls.Add(1)
		var req domain.RegisterRequest
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		f.mu.Lock()
		f.user.FullName, f.user.Email, f.user.Phone = req.FullName, req.Email, req.Phone
		f.mu.Unlock()
		f.auth(w, http.StatusCreated)
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		if code := int(f.refreshStatus.Load()); code != 0 {
			writeJSON(w, code, map[string]string{"error": "refresh rejected"})
			return
		}
		writeJSON(w, http.StatusOK, domain.AuthResponse{Token: mintToken(t, time.Hour), RefreshToken: "refresh-2"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		f.logoutCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /auth/forgot-password", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["currentPassword"] != "pw" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "current password is incorrect"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, f.currentUser())
	})
	mux.HandleFunc("PATCH /users/me", func(w http.ResponseWriter, r *http.Request) {
		var req domain.UpdateProfileRequest
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		f.mu.Lock()
		if req.FullName != "" {
			f.user.FullName = req.FullName
		}
		if req.Phone != "" {
			f.user.Phone = req.Phone
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.currentUser())
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeServer) currentUser() domain.UserProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

func (f *fakeServer) auth(w http.ResponseWriter, status int) {
	u := f.currentUser()
	writeJSON(w, status, domain.AuthResponse{Token: mintToken(f.t, time.Hour), RefreshToken: "refresh-1", User: &u})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func mintToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "7", ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl))}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

// dirs are the per-test client directories.
type dirs struct {
	home    string
	runtime string
}

// testEnv points the client at srv with fresh directories.
func testEnv(t *testing.T, srv *fakeServer) dirs {
	t.Helper()
	d := dirs{home: t.TempDir(), runtime: t.TempDir()}
	t.Setenv("ORANGESITES_API_URL", srv.URL)
	t.Setenv("ORANGESITES_HOME", d.home)
	t.Setenv("ORANGESITES_RUNTIME_DIR", d.runtime)
	t.Setenv("ORANGESITES_LOG_FILE", filepath.Join(t.TempDir(), "test.log"))
	t.Setenv("ORANGESITES_DRAFT_BACKEND", "file")
	return d
}

func resetFlags() {
	envFile = ".env"
	noPersist = false
	loginEmail, loginRemember = "", false
	registerName, registerEmail, registerPhone = "", "", ""
	logoutDiscardDraft = false
	profileName, profilePhone = "", ""
	resetEmail = ""
	draftFormat = "text"
}

// execute runs the command tree with args, feeding stdin.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
