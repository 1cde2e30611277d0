// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	userstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/users"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/auth"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/httpjson"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/inputval"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/mailer"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/ratelimit"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/timeouts"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const minPasswordLength = 8

// Handler is the feature-level handler for authentication.
type Handler struct {
	Users       *userstore.Store
	Tokens      *auth.TokenManager
	Mail        *mailer.Mailer
	Limits      *ratelimit.LoginLimiter
	Log         *zap.Logger
	SiteName    string
	BaseURL     string
	ResetExpiry time.Duration
}

func NewHandler(db *mongo.Database, tokens *auth.TokenManager, mail *mailer.Mailer, siteName, baseURL string, resetExpiry time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       userstore.New(db),
		Tokens:      tokens,
		Mail:        mail,
		Limits:      ratelimit.NewLoginLimiter(),
		Log:         logger,
		SiteName:    siteName,
		BaseURL:     baseURL,
		ResetExpiry: resetExpiry,
	}
}

type loginRequest struct {
	Login    string `json:"login"` // email or username
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      any       `json:"user"`
}

// HandleLogin handles POST /api/auth/login.
//
// Wrong login and wrong password produce the same 401 so the endpoint does
// not leak which accounts exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}
	if req.Login == "" || req.Password == "" {
		httpjson.ValidationError(w, map[string]string{
			"login":    "required",
			"password": "required",
		})
		return
	}
	if ok, reason := h.Limits.Check(r, req.Login); !ok {
		httpjson.TooManyRequests(w, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByLogin(ctx, req.Login)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Unauthorized(w, "invalid credentials")
			return
		}
		h.Log.Error("login: lookup failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if u.Status != models.UserStatusActive || !h.Users.CheckPassword(u, req.Password) {
		httpjson.Unauthorized(w, "invalid credentials")
		return
	}
	h.Limits.ResetAccount(req.Login)

	token, err := h.Tokens.Issue(u)
	if err != nil {
		h.Log.Error("login: token issue failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	httpjson.Write(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.Tokens.TTL()),
		User:      u.SafeCopy(),
	})
}

// HandleMe handles GET /api/auth/me: the current user's fresh record.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Unauthorized(w, "account no longer exists")
			return
		}
		h.Log.Error("me: lookup failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, u.SafeCopy())
}

type acceptInviteRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleAcceptInvite handles POST /api/auth/accept-invite: an invitee picks
// a username and password using the emailed token.
func (h *Handler) HandleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}

	fields := map[string]string{}
	if !inputval.IsValidEmail(req.Email) {
		fields["email"] = "valid email required"
	}
	if req.Token == "" {
		fields["token"] = "required"
	}
	if !inputval.IsValidUsername(req.Username) {
		fields["username"] = "3-30 chars, lowercase letters, digits and underscores, starting with a letter"
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("at least %d characters", minPasswordLength)
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.AcceptInvite(ctx, req.Email, req.Token, req.Username, req.Password)
	switch {
	case err == nil:
	case err == userstore.ErrTokenInvalid || err == mongo.ErrNoDocuments:
		httpjson.Unauthorized(w, "invitation is invalid or has expired")
		return
	case err == userstore.ErrDuplicateUsername:
		httpjson.Conflict(w, err.Error())
		return
	default:
		h.Log.Error("accept-invite failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	token, err := h.Tokens.Issue(u)
	if err != nil {
		h.Log.Error("accept-invite: token issue failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.Tokens.TTL()),
		User:      u.SafeCopy(),
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword handles POST /api/auth/forgot-password. The response
// is 202 regardless of whether the email is known, and the reset email is
// sent out of band.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}
	if !inputval.IsValidEmail(req.Email) {
		httpjson.ValidationError(w, map[string]string{"email": "valid email required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Error("forgot-password: lookup failed", zap.Error(err))
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	token, err := h.Users.StartPasswordReset(ctx, u.ID, h.ResetExpiry)
	if err != nil {
		h.Log.Error("forgot-password: reset start failed", zap.Error(err))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	msg := mailer.BuildResetEmail(mailer.ResetEmailData{
		SiteName:  h.SiteName,
		ResetLink: h.resetLink(u.Email, token),
		ExpiresIn: expiryPhrase(h.ResetExpiry),
	})
	msg.To = u.Email
	if err := h.Mail.Send(msg); err != nil {
		// Logged, not surfaced: the 202 never reveals delivery status.
		h.Log.Error("forgot-password: email send failed", zap.Error(err), zap.String("email", u.Email))
	}
	w.WriteHeader(http.StatusAccepted)
}

type resetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleResetPassword handles POST /api/auth/reset-password.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}
	fields := map[string]string{}
	if !inputval.IsValidEmail(req.Email) {
		fields["email"] = "valid email required"
	}
	if req.Token == "" {
		fields["token"] = "required"
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("at least %d characters", minPasswordLength)
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Users.CompletePasswordReset(ctx, req.Email, req.Token, req.Password)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case err == userstore.ErrTokenInvalid || err == mongo.ErrNoDocuments:
		httpjson.Unauthorized(w, "reset link is invalid or has expired")
	default:
		h.Log.Error("reset-password failed", zap.Error(err))
		httpjson.Internal(w)
	}
}

func (h *Handler) resetLink(email, token string) string {
	return fmt.Sprintf("%s/reset-password?email=%s&token=%s",
		h.BaseURL, url.QueryEscape(email), url.QueryEscape(token))
}

func expiryPhrase(d time.Duration) string {
	if d >= 2*time.Hour {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
