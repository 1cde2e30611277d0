// internal/app/features/users/handler.go
package users

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	userstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/users"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/htmlsanitize"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/httpjson"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/inputval"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/mailer"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/normalize"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/timeouts"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for member accounts and the public
// team directory.
type Handler struct {
	Users        *userstore.Store
	Mail         *mailer.Mailer
	Log          *zap.Logger
	SiteName     string
	BaseURL      string
	InviteExpiry time.Duration
}

func NewHandler(db *mongo.Database, mail *mailer.Mailer, siteName, baseURL string, inviteExpiry time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		Users:        userstore.New(db),
		Mail:         mail,
		Log:          logger,
		SiteName:     siteName,
		BaseURL:      baseURL,
		InviteExpiry: inviteExpiry,
	}
}

// teamMember is the public projection of a user for the team page.
type teamMember struct {
	ID           primitive.ObjectID `json:"id"`
	FullName     string             `json:"fullName"`
	Role         models.Role        `json:"role"`
	TeamRole     string             `json:"teamRole,omitempty"`
	Department   string             `json:"department,omitempty"`
	AcademicYear string             `json:"academicYear,omitempty"`
	Bio          string             `json:"bio,omitempty"`
	Social       models.SocialLinks `json:"social,omitempty"`
	PhotoPath    string             `json:"photoPath,omitempty"`
}

// HandleTeam handles GET /api/users/team?year=2024. With no year it serves
// the current membership year. Public endpoint: emails, phone numbers and
// account state stay out of the projection.
func (h *Handler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := query.Get(r, "year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpjson.ValidationError(w, map[string]string{"year": "must be a number"})
			return
		}
		year = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.ListTeamForYear(ctx, year)
	if err != nil {
		h.Log.Error("team: list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	out := make([]teamMember, 0, len(users))
	for i := range users {
		u := &users[i]
		role, teamRole := u.RoleForYear(year)
		out = append(out, teamMember{
			ID:           u.ID,
			FullName:     u.FullName,
			Role:         role,
			TeamRole:     teamRole,
			Department:   u.Department,
			AcademicYear: u.AcademicYear,
			Bio:          u.Bio,
			Social:       u.Social,
			PhotoPath:    u.PhotoPath,
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"year":    year,
		"members": out,
	})
}

// HandleList handles GET /api/users?role=&status= for admins.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx, normalize.Enum(query.Get(r, "role")), normalize.Enum(query.Get(r, "status")))
	if err != nil {
		h.Log.Error("users: list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.SafeCopy())
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"users": out})
}

type inviteRequest struct {
	FullName   string      `json:"fullName"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	Department string      `json:"department,omitempty"`
}

// HandleInvite handles POST /api/users/invite: creates an invited account
// and emails the acceptance link. A mail failure does not roll the account
// back; the invite can be re-sent.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}

	fields := map[string]string{}
	if normalize.Name(req.FullName) == "" {
		fields["fullName"] = "required"
	}
	if !inputval.IsValidEmail(req.Email) {
		fields["email"] = "valid email required"
	}
	if !models.IsValidRole(string(req.Role)) {
		fields["role"] = "unknown role"
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u := models.User{
		FullName:   normalize.Name(req.FullName),
		Email:      normalize.Email(req.Email),
		Role:       req.Role,
		Department: normalize.Department(req.Department),
	}
	created, token, err := h.Users.CreateInvited(ctx, u, h.InviteExpiry)
	switch {
	case err == nil:
	case err == userstore.ErrDuplicateEmail:
		httpjson.Conflict(w, err.Error())
		return
	default:
		h.Log.Error("invite: create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	msg := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:   h.SiteName,
		FullName:   created.FullName,
		AcceptLink: h.acceptLink(created.Email, token),
		ExpiresIn:  fmt.Sprintf("%d hours", int(h.InviteExpiry.Hours())),
	})
	msg.To = created.Email
	if err := h.Mail.Send(msg); err != nil {
		h.Log.Error("invite: email send failed", zap.Error(err), zap.String("email", created.Email))
	}

	httpjson.Write(w, http.StatusCreated, created.SafeCopy())
}

// HandleGet handles GET /api/users/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w, "user not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "user not found")
			return
		}
		h.Log.Error("users: get failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, u.SafeCopy())
}

type profileRequest struct {
	FullName     *string             `json:"fullName,omitempty"`
	Department   *string             `json:"department,omitempty"`
	AcademicYear *string             `json:"academicYear,omitempty"`
	Phone        *string             `json:"phone,omitempty"`
	Bio          *string             `json:"bio,omitempty"`
	Social       *models.SocialLinks `json:"social,omitempty"`

	// Admin only.
	Role        *models.Role        `json:"role,omitempty"`
	YearlyRoles []models.YearlyRole `json:"yearlyRoles,omitempty"`
}

// HandleUpdate handles PATCH /api/users/{id}. Users edit their own profile;
// admins edit anyone and may also change role and yearly roles.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w, "user not found")
		return
	}

	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w, "authentication required")
		return
	}
	isAdmin := authz.CanRequest(r, authz.ActionManageUsers)
	if id != userID && !isAdmin {
		httpjson.Forbidden(w, "you can only edit your own profile")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}

	fields := map[string]string{}
	if req.FullName != nil && normalize.Name(*req.FullName) == "" {
		fields["fullName"] = "cannot be blank"
	}
	if req.Phone != nil && *req.Phone != "" && !inputval.IsValidPhone(*req.Phone) {
		fields["phone"] = "invalid phone number"
	}
	if req.Social != nil {
		for label, link := range map[string]string{
			"social.linkedin":  req.Social.LinkedIn,
			"social.github":    req.Social.GitHub,
			"social.instagram": req.Social.Instagram,
			"social.website":   req.Social.Website,
		} {
			if link != "" && !inputval.IsValidHTTPURL(link) {
				fields[label] = "must be an http(s) URL"
			}
		}
	}
	if req.Role != nil {
		if !isAdmin {
			httpjson.Forbidden(w, "only admins can change roles")
			return
		}
		if !models.IsValidRole(string(*req.Role)) {
			fields["role"] = "unknown role"
		}
	}
	if req.YearlyRoles != nil && !isAdmin {
		httpjson.Forbidden(w, "only admins can change yearly roles")
		return
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	upd := userstore.ProfileUpdate{
		FullName:     req.FullName,
		Department:   req.Department,
		AcademicYear: req.AcademicYear,
		Phone:        req.Phone,
		Social:       req.Social,
		Role:         req.Role,
		YearlyRoles:  req.YearlyRoles,
	}
	if req.Bio != nil {
		bio := htmlsanitize.PlainText(*req.Bio)
		upd.Bio = &bio
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, id, upd)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "user not found")
			return
		}
		h.Log.Error("users: update failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, u.SafeCopy())
}

// HandleDeactivate handles DELETE /api/users/{id}: a soft disable so the
// account stops authenticating but history stays intact.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w, "user not found")
		return
	}

	_, _, userID, _ := authz.UserCtx(r)
	if id == userID {
		httpjson.DomainError(w, "you cannot deactivate your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.Deactivate(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "user not found")
			return
		}
		h.Log.Error("users: deactivate failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) acceptLink(email, token string) string {
	return fmt.Sprintf("%s/accept-invite?email=%s&token=%s",
		h.BaseURL, url.QueryEscape(email), url.QueryEscape(token))
}
