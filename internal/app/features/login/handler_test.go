package login_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/sarithdm/iedc-website-sub000/internal/app/features/login"
	userstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/users"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/auth"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/mailer"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"github.com/sarithdm/iedc-website-sub000/internal/testutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestHandler(t *testing.T) (*login.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tokens, err := auth.NewTokenManager(testSecret, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	mail := mailer.New(mailer.Config{Host: "localhost", Port: 1, From: "noreply@test"}, zap.NewNop())
	return login.NewHandler(db, tokens, mail, "IEDC", "http://localhost:3000", time.Hour, zap.NewNop()), db
}

// activeUser invites and activates an account, returning the stored user.
func activeUser(t *testing.T, db *mongo.Database, email, username, password string) *models.User {
	t.Helper()
	store := userstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, token, err := store.CreateInvited(ctx, models.User{
		FullName: "Asha Nair",
		Email:    email,
		Role:     models.RoleLead,
	}, time.Hour)
	if err != nil {
		t.Fatalf("CreateInvited failed: %v", err)
	}
	u, err := store.AcceptInvite(ctx, email, token, username, password)
	if err != nil {
		t.Fatalf("AcceptInvite failed: %v", err)
	}
	return u
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleLogin(t *testing.T) {
	h, db := newTestHandler(t)
	activeUser(t, db, "asha@college.edu", "asha", "hunter2hunter2")

	rec := postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"asha@college.edu","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email        string `json:"email"`
			PasswordHash string `json:"passwordHash"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Error("no token issued")
	}
	if resp.User.Email != "asha@college.edu" {
		t.Errorf("user email = %q", resp.User.Email)
	}
	if resp.User.PasswordHash != "" {
		t.Error("password hash leaked in login response")
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Errorf("credential material in response body: %s", rec.Body.String())
	}

	// Username works as the login too.
	rec = postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"asha","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("username login: status = %d", rec.Code)
	}
}

func TestHandleLogin_SameErrorForUnknownAndWrongPassword(t *testing.T) {
	h, db := newTestHandler(t)
	activeUser(t, db, "asha@college.edu", "asha", "hunter2hunter2")

	unknown := postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"nobody@college.edu","password":"hunter2hunter2"}`)
	wrongPass := postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"asha@college.edu","password":"wrong-password"}`)

	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("codes = %d, %d; want 401, 401", unknown.Code, wrongPass.Code)
	}
	if unknown.Body.String() != wrongPass.Body.String() {
		t.Error("unknown-account and wrong-password responses differ")
	}
}

func TestHandleLogin_InactiveAccountsRejected(t *testing.T) {
	h, db := newTestHandler(t)
	store := userstore.New(db)

	// Invited but never activated.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, _, err := store.CreateInvited(ctx, models.User{
		FullName: "Pending", Email: "pending@college.edu", Role: models.RoleMember,
	}, time.Hour); err != nil {
		t.Fatalf("CreateInvited failed: %v", err)
	}

	rec := postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"pending@college.edu","password":"anything-at-all"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("invited account login: status = %d, want 401", rec.Code)
	}

	// Deactivated account.
	u := activeUser(t, db, "gone@college.edu", "gone", "hunter2hunter2")
	if err := store.Deactivate(ctx, u.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	rec = postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"gone@college.edu","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("disabled account login: status = %d, want 401", rec.Code)
	}
}

func TestHandleMe(t *testing.T) {
	h, db := newTestHandler(t)
	u := activeUser(t, db, "asha@college.edu", "asha", "hunter2hunter2")

	req := testutil.NewAuthenticatedRequest("GET", "/api/auth/me", nil, testutil.UserFor(*u))
	rec := httptest.NewRecorder()
	h.HandleMe(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var me struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.Email != "asha@college.edu" {
		t.Errorf("email = %q", me.Email)
	}

	rec = httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest("GET", "/api/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous me: status = %d, want 401", rec.Code)
	}
}

func TestHandleAcceptInvite(t *testing.T) {
	h, db := newTestHandler(t)
	store := userstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, token, err := store.CreateInvited(ctx, models.User{
		FullName: "Asha Nair", Email: "asha@college.edu", Role: models.RoleLead,
	}, time.Hour)
	if err != nil {
		t.Fatalf("CreateInvited failed: %v", err)
	}

	body := fmt.Sprintf(`{"email":"asha@college.edu","token":%q,"username":"asha","password":"hunter2hunter2"}`, token)
	rec := postJSON(t, h.HandleAcceptInvite, "/api/auth/accept-invite", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Error("no session token issued on accept")
	}

	// Bad token and short password.
	rec = postJSON(t, h.HandleAcceptInvite, "/api/auth/accept-invite",
		`{"email":"asha@college.edu","token":"bogus","username":"asha2","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
	rec = postJSON(t, h.HandleAcceptInvite, "/api/auth/accept-invite",
		`{"email":"asha@college.edu","token":"x","username":"asha2","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short password: status = %d, want 400", rec.Code)
	}
}

func TestPasswordResetEndpoints(t *testing.T) {
	h, db := newTestHandler(t)
	u := activeUser(t, db, "asha@college.edu", "asha", "old-password-1")

	// Unknown emails still get a 202.
	rec := postJSON(t, h.HandleForgotPassword, "/api/auth/forgot-password", `{"email":"nobody@college.edu"}`)
	if rec.Code != http.StatusAccepted {
		t.Errorf("unknown email: status = %d, want 202", rec.Code)
	}
	rec = postJSON(t, h.HandleForgotPassword, "/api/auth/forgot-password", `{"email":"asha@college.edu"}`)
	if rec.Code != http.StatusAccepted {
		t.Errorf("known email: status = %d, want 202", rec.Code)
	}

	// Drive the reset with a token minted directly; the emailed link simply
	// carries the same token.
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	token, err := store.StartPasswordReset(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("StartPasswordReset failed: %v", err)
	}

	body := fmt.Sprintf(`{"email":"asha@college.edu","token":%q,"password":"new-password-1"}`, token)
	rec = postJSON(t, h.HandleResetPassword, "/api/auth/reset-password", body)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reset: status = %d; body: %s", rec.Code, rec.Body.String())
	}

	login := postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"asha","password":"new-password-1"}`)
	if login.Code != http.StatusOK {
		t.Errorf("login with new password: status = %d", login.Code)
	}
	old := postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"asha","password":"old-password-1"}`)
	if old.Code != http.StatusUnauthorized {
		t.Errorf("login with old password: status = %d, want 401", old.Code)
	}

	rec = postJSON(t, h.HandleResetPassword, "/api/auth/reset-password",
		`{"email":"asha@college.edu","token":"bogus-token","password":"whatever-12"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad reset token: status = %d, want 401", rec.Code)
	}
}

func TestHandleLogin_Throttled(t *testing.T) {
	h, db := newTestHandler(t)
	activeUser(t, db, "asha@college.edu", "asha", "hunter2hunter2")

	// Per-account window allows five attempts.
	for i := 0; i < 5; i++ {
		rec := postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"asha@college.edu","password":"wrong-password"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, rec.Code)
		}
	}

	rec := postJSON(t, h.HandleLogin, "/api/auth/login", `{"login":"asha@college.edu","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("throttled attempt: status = %d, want 429: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode throttle response: %v", err)
	}
	if body.Error.Kind != "rate_limited" {
		t.Errorf("kind = %q, want rate_limited", body.Error.Kind)
	}
}
