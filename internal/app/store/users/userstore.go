// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/normalize"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateEmail is returned when a user with the email already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateUsername is returned when the username is taken.
	ErrDuplicateUsername = errors.New("this username is already taken")
	// ErrTokenInvalid is returned for unknown or expired invite/reset tokens.
	ErrTokenInvalid = errors.New("token is invalid or has expired")

	errBadRole = errors.New("role is not in the allowed set")
)

const bcryptCost = 10

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByLogin looks up an active-or-invited user by email or username.
func (s *Store) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	filter := bson.M{"$or": []bson.M{
		{"email": normalize.Email(login)},
		{"username": normalize.Username(login)},
	}}
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateInvited inserts a user created by the invitation flow: no password,
// a hashed time-limited token. Returns the plain token for the email link.
func (s *Store) CreateInvited(ctx context.Context, u models.User, expiry time.Duration) (models.User, string, error) {
	if !models.IsValidRole(string(u.Role)) {
		return models.User{}, "", errBadRole
	}

	token, err := newToken()
	if err != nil {
		return models.User{}, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	if err != nil {
		return models.User{}, "", err
	}

	now := time.Now().UTC()
	expires := now.Add(expiry)

	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Username = nil
	u.Status = models.UserStatusInvited
	u.PasswordHash = ""
	u.TokenHash = string(hash)
	u.TokenExpiresAt = &expires
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, "", ErrDuplicateEmail
		}
		return models.User{}, "", err
	}
	return u, token, nil
}

// AcceptInvite activates an invited account: verifies the token against the
// stored hash, sets username and password, clears the token.
func (s *Store) AcceptInvite(ctx context.Context, email, token, username, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if err := s.checkToken(u, token); err != nil {
		return nil, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	username = normalize.Username(username)

	update := bson.M{
		"$set": bson.M{
			"username":      username,
			"password_hash": string(passHash),
			"status":        models.UserStatusActive,
			"updated_at":    time.Now().UTC(),
		},
		"$unset": bson.M{"token_hash": "", "token_expires_at": ""},
	}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": u.ID}, update, after).Decode(&updated)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return &updated, nil
}

// StartPasswordReset stores a fresh hashed reset token and returns the
// plain token for the email link.
func (s *Store) StartPasswordReset(ctx context.Context, userID primitive.ObjectID, expiry time.Duration) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	if err != nil {
		return "", err
	}
	expires := time.Now().UTC().Add(expiry)

	_, err = s.c.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"token_hash":       string(hash),
		"token_expires_at": expires,
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		return "", err
	}
	return token, nil
}

// CompletePasswordReset verifies the token and sets a new password.
func (s *Store) CompletePasswordReset(ctx context.Context, email, token, password string) error {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTokenInvalid
		}
		return err
	}
	if err := s.checkToken(u, token); err != nil {
		return err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{
		"$set":   bson.M{"password_hash": string(passHash), "updated_at": time.Now().UTC()},
		"$unset": bson.M{"token_hash": "", "token_expires_at": ""},
	})
	return err
}

// CheckPassword verifies a login attempt against the stored hash.
func (s *Store) CheckPassword(u *models.User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (s *Store) checkToken(u *models.User, token string) error {
	if u.TokenHash == "" || u.TokenExpiresAt == nil || time.Now().After(*u.TokenExpiresAt) {
		return ErrTokenInvalid
	}
	if bcrypt.CompareHashAndPassword([]byte(u.TokenHash), []byte(token)) != nil {
		return ErrTokenInvalid
	}
	return nil
}

// ProfileUpdate holds the fields a user (or an admin) may change on a
// profile. Nil pointers leave the stored value untouched.
type ProfileUpdate struct {
	FullName     *string
	Department   *string
	AcademicYear *string
	Phone        *string
	Bio          *string
	Social       *models.SocialLinks
	PhotoPath    *string
	Role         *models.Role // admin only; validated by the caller
	YearlyRoles  []models.YearlyRole
}

// UpdateProfile applies a partial profile update.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.FullName != nil {
		set["full_name"] = normalize.Name(*upd.FullName)
	}
	if upd.Department != nil {
		set["department"] = normalize.Department(*upd.Department)
	}
	if upd.AcademicYear != nil {
		set["academic_year"] = *upd.AcademicYear
	}
	if upd.Phone != nil {
		set["phone"] = normalize.Phone(*upd.Phone)
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Social != nil {
		set["social"] = *upd.Social
	}
	if upd.PhotoPath != nil {
		set["photo_path"] = *upd.PhotoPath
	}
	if upd.Role != nil {
		if !models.IsValidRole(string(*upd.Role)) {
			return nil, errBadRole
		}
		set["role"] = *upd.Role
	}
	if upd.YearlyRoles != nil {
		set["yearly_roles"] = upd.YearlyRoles
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, after).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Deactivate soft-disables an account. Users are never hard-deleted by
// normal flows.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     models.UserStatusDisabled,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List returns users ordered by name, optionally filtered by role/status.
func (s *Store) List(ctx context.Context, role, status string) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListTeamForYear returns active users who held a role in the given year,
// ordered by their yearly display order.
func (s *Store) ListTeamForYear(ctx context.Context, year int) ([]models.User, error) {
	filter := bson.M{
		"status":            models.UserStatusActive,
		"yearly_roles.year": year,
	}
	opts := options.Find().SetSort(bson.D{{Key: "yearly_roles.order", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// newToken returns 32 random bytes hex-encoded.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
