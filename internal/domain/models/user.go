// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User statuses.
const (
	UserStatusInvited  = "invited" // created by invitation, no password yet
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// YearlyRole records the role a person held in one membership year, so the
// team page can show past lineups without rewriting history.
type YearlyRole struct {
	Year     int    `bson:"year" json:"year"`
	Role     Role   `bson:"role" json:"role"`
	TeamRole string `bson:"team_role,omitempty" json:"teamRole,omitempty"`
	Order    int    `bson:"order" json:"order"`
}

// SocialLinks holds optional profile links shown on the team page.
type SocialLinks struct {
	LinkedIn  string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	GitHub    string `bson:"github,omitempty" json:"github,omitempty"`
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Website   string `bson:"website,omitempty" json:"website,omitempty"`
}

// User represents a club member with a dashboard account (or a pending
// invitation to one).
//
// NOTE:
//   - PasswordHash and the invite/reset token hash are write-only: they
//     never carry a json tag other than "-" and list endpoints serialize
//     SafeCopy.
//   - Username is set only when an invitee accepts; it is unique and
//     lowercase-constrained (enforced by a sparse unique index).
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName string             `bson:"full_name" json:"fullName"`
	Email    string             `bson:"email" json:"email"`
	Username *string            `bson:"username,omitempty" json:"username,omitempty"`
	Role     Role               `bson:"role" json:"role"`
	Status   string             `bson:"status" json:"status"`

	YearlyRoles []YearlyRole `bson:"yearly_roles,omitempty" json:"yearlyRoles,omitempty"`

	Department   string      `bson:"department,omitempty" json:"department,omitempty"`
	AcademicYear string      `bson:"academic_year,omitempty" json:"academicYear,omitempty"`
	Phone        string      `bson:"phone,omitempty" json:"phone,omitempty"`
	Bio          string      `bson:"bio,omitempty" json:"bio,omitempty"`
	Social       SocialLinks `bson:"social,omitempty" json:"social,omitempty"`
	PhotoPath    string      `bson:"photo_path,omitempty" json:"photoPath,omitempty"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	// Invitation / password reset. The token itself is never stored;
	// only its bcrypt hash, with an expiry.
	TokenHash      string     `bson:"token_hash,omitempty" json:"-"`
	TokenExpiresAt *time.Time `bson:"token_expires_at,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// RoleForYear returns the role and team role the user held in the given
// year, falling back to the current role when no yearly entry exists.
func (u *User) RoleForYear(year int) (Role, string) {
	for _, yr := range u.YearlyRoles {
		if yr.Year == year {
			return yr.Role, yr.TeamRole
		}
	}
	return u.Role, ""
}

// SafeCopy returns the user with credential material blanked.
func (u User) SafeCopy() User {
	u.PasswordHash = ""
	u.TokenHash = ""
	u.TokenExpiresAt = nil
	return u
}
