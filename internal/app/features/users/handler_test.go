package users_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sarithdm/iedc-website-sub000/internal/app/features/users"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/mailer"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"github.com/sarithdm/iedc-website-sub000/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*users.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	// Port 1 is never listening, so invite mail fails fast; the handlers
	// log the failure and carry on.
	mail := mailer.New(mailer.Config{Host: "localhost", Port: 1, From: "noreply@test"}, zap.NewNop())
	return users.NewHandler(db, mail, "IEDC", "http://localhost:3000", 48*time.Hour, zap.NewNop()), db
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHandleTeam(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	fx.CreateTeamUser(ctx, "Dr. Meera Pillai", "meera@college.edu", 2024, 1, models.RoleNodalOfficer, "Nodal Officer")
	fx.CreateTeamUser(ctx, "Asha Nair", "asha@college.edu", 2024, 2, models.RoleCEO, "Chief Executive Officer")
	fx.CreateTeamUser(ctx, "Bala Menon", "bala@college.edu", 2023, 1, models.RoleCEO, "Chief Executive Officer")

	rec := httptest.NewRecorder()
	h.HandleTeam(rec, testutil.NewRequest(http.MethodGet, "/api/users/team?year=2024", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if got := body["year"].(float64); int(got) != 2024 {
		t.Errorf("year = %v, want 2024", got)
	}
	members, ok := body["members"].([]any)
	if !ok || len(members) != 2 {
		t.Fatalf("members = %v, want 2 entries", body["members"])
	}

	first := members[0].(map[string]any)
	if first["fullName"] != "Dr. Meera Pillai" {
		t.Errorf("first member = %v, want nodal officer listed first", first["fullName"])
	}
	if first["role"] != "nodal_officer" {
		t.Errorf("role = %v, want nodal_officer", first["role"])
	}
	if first["teamRole"] != "Nodal Officer" {
		t.Errorf("teamRole = %v", first["teamRole"])
	}

	raw := rec.Body.String()
	for _, secret := range []string{"college.edu", "email", "phone", "status", "passwordHash"} {
		if strings.Contains(raw, secret) {
			t.Errorf("public team response leaks %q: %s", secret, raw)
		}
	}
}

func TestHandleTeam_BadYear(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleTeam(rec, testutil.NewRequest(http.MethodGet, "/api/users/team?year=twenty", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleInvite(t *testing.T) {
	h, _ := newTestHandler(t)

	payload := `{"fullName":"Asha Nair","email":"Asha@College.EDU","role":"lead","department":"cse"}`
	rec := httptest.NewRecorder()
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/api/users/invite",
		strings.NewReader(payload), testutil.AdminUser())
	h.HandleInvite(rec, req)

	// SMTP at port 1 is unreachable; the account is still created.
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["email"] != "asha@college.edu" {
		t.Errorf("email = %v, want normalized lowercase", body["email"])
	}
	if body["status"] != models.UserStatusInvited {
		t.Errorf("status = %v, want invited", body["status"])
	}
	raw := rec.Body.String()
	if strings.Contains(raw, "passwordHash") || strings.Contains(raw, "tokenHash") {
		t.Errorf("invite response leaks credentials: %s", raw)
	}

	// Same email again.
	rec = httptest.NewRecorder()
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/api/users/invite",
		strings.NewReader(payload), testutil.AdminUser())
	h.HandleInvite(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate invite status = %d, want 409", rec.Code)
	}
}

func TestHandleInvite_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/api/users/invite",
		strings.NewReader(`{"fullName":"  ","email":"not-an-email","role":"superuser"}`),
		testutil.AdminUser())
	h.HandleInvite(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	fields := body["error"].(map[string]any)["fields"].(map[string]any)
	for _, f := range []string{"fullName", "email", "role"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected violation for %q, got %v", f, fields)
		}
	}
}

func TestHandleGet(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Asha Nair", "asha@college.edu", models.RoleLead)

	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users/"+u.ID.Hex(), nil, testutil.AdminUser()),
		"id", u.ID.Hex())
	h.HandleGet(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Errorf("get response leaks password hash: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users/nope", nil, testutil.AdminUser()),
		"id", "nope")
	h.HandleGet(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("malformed id status = %d, want 404", rec.Code)
	}
}

func TestHandleUpdate_SelfProfile(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Asha Nair", "asha@college.edu", models.RoleLead)

	payload := `{"bio":"<b>Passionate</b> builder","phone":"+91 98765-43210","social":{"github":"https://github.com/asha"}}`
	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodPatch, "/api/users/"+u.ID.Hex(),
			strings.NewReader(payload), testutil.UserFor(u)),
		"id", u.ID.Hex())
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["bio"] != "Passionate builder" {
		t.Errorf("bio = %v, want markup stripped", body["bio"])
	}
	if body["phone"] != "+919876543210" {
		t.Errorf("phone = %v, want normalized", body["phone"])
	}
}

func TestHandleUpdate_Authorization(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Asha Nair", "asha@college.edu", models.RoleMember)

	// Anonymous.
	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodPatch, "/api/users/"+u.ID.Hex(), strings.NewReader(`{"bio":"hi"}`)),
		"id", u.ID.Hex())
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	// Another member editing someone else's profile.
	rec = httptest.NewRecorder()
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodPatch, "/api/users/"+u.ID.Hex(),
			strings.NewReader(`{"bio":"hi"}`), testutil.MemberUser()),
		"id", u.ID.Hex())
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger status = %d, want 403", rec.Code)
	}

	// Self edit attempting a role change.
	rec = httptest.NewRecorder()
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodPatch, "/api/users/"+u.ID.Hex(),
			strings.NewReader(`{"role":"admin"}`), testutil.UserFor(u)),
		"id", u.ID.Hex())
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("self role change status = %d, want 403", rec.Code)
	}

	// Self edit attempting yearly roles.
	rec = httptest.NewRecorder()
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodPatch, "/api/users/"+u.ID.Hex(),
			strings.NewReader(`{"yearlyRoles":[{"year":2024,"role":"ceo","order":1}]}`), testutil.UserFor(u)),
		"id", u.ID.Hex())
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("self yearly-roles change status = %d, want 403", rec.Code)
	}

	// Admin promoting the member.
	rec = httptest.NewRecorder()
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodPatch, "/api/users/"+u.ID.Hex(),
			strings.NewReader(`{"role":"lead"}`), testutil.AdminUser()),
		"id", u.ID.Hex())
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin role change status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["role"] != "lead" {
		t.Errorf("role = %v, want lead", body["role"])
	}
}

func TestHandleUpdate_Validation(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Asha Nair", "asha@college.edu", models.RoleLead)

	payload := `{"phone":"12345","social":{"website":"javascript:alert(1)"}}`
	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodPatch, "/api/users/"+u.ID.Hex(),
			strings.NewReader(payload), testutil.UserFor(u)),
		"id", u.ID.Hex())
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	fields := body["error"].(map[string]any)["fields"].(map[string]any)
	for _, f := range []string{"phone", "social.website"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected violation for %q, got %v", f, fields)
		}
	}
}

func TestHandleDeactivate(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Asha Nair", "asha@college.edu", models.RoleLead)

	// Self-deactivation is refused.
	rec := httptest.NewRecorder()
	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/users/"+u.ID.Hex(), nil, testutil.UserFor(u)),
		"id", u.ID.Hex())
	h.HandleDeactivate(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self-deactivate status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["error"].(map[string]any)["kind"] != "domain" {
		t.Errorf("kind = %v, want domain", body["error"])
	}

	// Admin deactivating someone else.
	rec = httptest.NewRecorder()
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/users/"+u.ID.Hex(), nil, testutil.AdminUser()),
		"id", u.ID.Hex())
	h.HandleDeactivate(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	getReq := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users/"+u.ID.Hex(), nil, testutil.AdminUser()),
		"id", u.ID.Hex())
	h.HandleGet(rec, getReq)
	if body := decodeBody(t, rec); body["status"] != models.UserStatusDisabled {
		t.Errorf("status after deactivate = %v, want disabled", body["status"])
	}
}

func TestHandleList(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	fx.CreateUser(ctx, "Asha Nair", "asha@college.edu", models.RoleLead)
	fx.CreateUser(ctx, "Bala Menon", "bala@college.edu", models.RoleMember)

	rec := httptest.NewRecorder()
	h.HandleList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users", nil, testutil.AdminUser()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if got := len(body["users"].([]any)); got != 2 {
		t.Errorf("users = %d, want 2", got)
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Errorf("list leaks password hashes: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.HandleList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users?role=Lead", nil, testutil.AdminUser()))
	body = decodeBody(t, rec)
	users := body["users"].([]any)
	if len(users) != 1 || users[0].(map[string]any)["fullName"] != "Asha Nair" {
		t.Errorf("role filter = %v, want only Asha Nair", users)
	}
}
