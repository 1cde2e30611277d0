package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/auth"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newManager(t *testing.T, ttl time.Duration) *auth.TokenManager {
	t.Helper()
	m, err := auth.NewTokenManager(testSecret, ttl, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return m
}

func TestNewTokenManager_RejectsShortSecret(t *testing.T) {
	if _, err := auth.NewTokenManager("too-short", time.Hour, zap.NewNop()); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := newManager(t, time.Hour)
	u := &models.User{
		ID:       primitive.NewObjectID(),
		FullName: "Asha Nair",
		Role:     models.RoleLead,
	}

	token, err := m.Issue(u)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	got, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.ID != u.ID.Hex() {
		t.Errorf("ID = %q, want %q", got.ID, u.ID.Hex())
	}
	if got.Name != "Asha Nair" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.Role != "lead" {
		t.Errorf("Role = %q, want lead", got.Role)
	}
}

func TestParse_RejectsBadTokens(t *testing.T) {
	m := newManager(t, time.Hour)
	u := &models.User{ID: primitive.NewObjectID(), FullName: "X", Role: models.RoleMember}

	if _, err := m.Parse("not-a-token"); err == nil {
		t.Error("malformed token accepted")
	}

	other, err := auth.NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	token, err := other.Issue(u)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}

	expired := newManager(t, -time.Minute)
	token, err = expired.Issue(u)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestLoadTokenUser(t *testing.T) {
	m := newManager(t, time.Hour)
	u := &models.User{ID: primitive.NewObjectID(), FullName: "Asha", Role: models.RoleAdmin}
	token, err := m.Issue(u)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var got *auth.TokenUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})
	handler := m.LoadTokenUser(next)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil {
		t.Fatal("user not injected for valid token")
	}
	if got.ID != u.ID.Hex() {
		t.Errorf("ID = %q, want %q", got.ID, u.ID.Hex())
	}

	got = nil
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got != nil {
		t.Error("user injected for invalid token")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("invalid token on public route should pass through, got %d", rec.Code)
	}
}

func TestRequireSignedIn(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := auth.RequireSignedIn(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous request: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.TokenUser{
		ID: primitive.NewObjectID().Hex(), Name: "X", Role: "member",
	})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("signed-in request: status = %d, want 204", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := auth.RequireRole("admin", "nodal_officer")(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.TokenUser{
		ID: primitive.NewObjectID().Hex(), Role: "member",
	})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong role: status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.TokenUser{
		ID: primitive.NewObjectID().Hex(), Role: "Admin",
	})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("role match should be case-insensitive: status = %d, want 204", rec.Code)
	}
}
