package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/inventario/internal/auth"
	"github.com/odyssey-erp/inventario/internal/shared"
	_ "github.com/odyssey-erp/inventario/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) UpsertUser(ctx context.Context, username, passwordHash string) (*auth.User, error) {
	s.user = &auth.User{ID: 1, Username: username, PasswordHash: passwordHash, IsActive: true}
	return s.user, nil
}

func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour)
	handler := auth.NewHandler(nil, auth.NewService(repo, sessionManager))
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

func TestLoginIssuesToken(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 1, Username: "admin", PasswordHash: hashed(t, "admin123"), IsActive: true}}
	router, sessions := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"admin123"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", res.Code, res.Body.String())
	}
	var body struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Token == "" || body.TokenType != "Bearer" {
		t.Fatalf("unexpected login response: %+v", body)
	}

	sess, err := sessions.Load(context.Background(), body.Token)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess.UserID != 1 || sess.Username != "admin" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	logout := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logout.Header.Set("Authorization", "Bearer "+body.Token)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, logout)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if _, err := sessions.Load(context.Background(), body.Token); err != shared.ErrUnauthorized {
		t.Fatalf("expected revoked token, got %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 1, Username: "admin", PasswordHash: hashed(t, "correctpass"), IsActive: true}}
	router, _ := newAuthRouter(t, repo)

	cases := []struct {
		body   string
		status int
	}{
		{`{"username":"admin","password":"wrongpass"}`, http.StatusUnauthorized},
		{`{"username":"nobody","password":"correctpass"}`, http.StatusUnauthorized},
		{`{"username":"admin"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))
		if res.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.body, tc.status, res.Code)
		}
	}
}

func TestInactiveUserCannotLogin(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 1, Username: "old", PasswordHash: hashed(t, "secret"), IsActive: false}}
	svc := auth.NewService(repo, nil)
	if _, err := svc.Authenticate(context.Background(), "old", "secret"); err != shared.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestEnsureUserHashesPassword(t *testing.T) {
	repo := &stubRepo{}
	svc := auth.NewService(repo, nil)

	user, err := svc.EnsureUser(context.Background(), " admin ", "admin123")
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if user.Username != "admin" {
		t.Fatalf("expected trimmed username, got %q", user.Username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("admin123")); err != nil {
		t.Fatalf("stored hash does not match: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.EnsureUser(context.Background(), "", "admin123"); err == nil {
		t.Fatal("expected validation error")
	}
}
