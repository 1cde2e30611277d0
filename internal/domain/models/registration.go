// internal/domain/models/registration.go
package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration statuses.
const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// Departments maps each department in the closed set to the two-letter code
// used inside membership identifiers (CSE/2024 -> IEDC24CS001).
var Departments = map[string]string{
	"CSE": "CS",
	"ECE": "EC",
	"EEE": "EE",
	"ME":  "ME",
	"CE":  "CE",
	"IT":  "IT",
	"MCA": "MC",
	"MBA": "MB",
}

// DeptCode returns the membership-ID code for a department.
func DeptCode(dept string) (string, bool) {
	code, ok := Departments[strings.ToUpper(strings.TrimSpace(dept))]
	return code, ok
}

// JoiningYears is the closed set of accepted years of joining.
var JoiningYears = []int{2018, 2019, 2020, 2021, 2022, 2023, 2024, 2025, 2026, 2027, 2028}

// IsValidJoiningYear reports whether year is accepted on an application.
func IsValidJoiningYear(year int) bool {
	for _, y := range JoiningYears {
		if y == year {
			return true
		}
	}
	return false
}

// Semesters is the closed set of accepted semesters.
var Semesters = []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7", "S8"}

// IsValidSemester reports whether s is one of S1..S8.
func IsValidSemester(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, v := range Semesters {
		if s == v {
			return true
		}
	}
	return false
}

// Interests is the closed vocabulary for declared interests.
var Interests = []string{
	"iot",
	"ai_ml",
	"web_development",
	"app_development",
	"robotics",
	"entrepreneurship",
	"design",
	"cybersecurity",
	"blockchain",
	"other",
}

// IsValidInterest reports whether s is in the interests vocabulary.
func IsValidInterest(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range Interests {
		if s == v {
			return true
		}
	}
	return false
}

// MaxMotivationLength bounds the motivation free-text field.
const MaxMotivationLength = 2000

// MembershipID builds the deterministic membership identifier from the year
// of joining, the department code, and a 1-based sequence number.
func MembershipID(yearOfJoining int, deptCode string, seq int64) string {
	return fmt.Sprintf("IEDC%02d%s%03d", yearOfJoining%100, deptCode, seq)
}

// Registration is a prospective member's application. It is created once on
// submission and mutated only by admin status review or deletion; the
// applicant never edits it afterwards.
type Registration struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	FirstName string `bson:"first_name" json:"firstName"`
	LastName  string `bson:"last_name" json:"lastName"`
	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone" json:"phone"`

	Department      string `bson:"department" json:"department"`
	YearOfJoining   int    `bson:"year_of_joining" json:"yearOfJoining"`
	Semester        string `bson:"semester" json:"semester"`
	AdmissionNumber string `bson:"admission_number,omitempty" json:"admissionNumber,omitempty"`

	Interests  []string `bson:"interests" json:"interests"`
	Motivation string   `bson:"motivation" json:"motivation"`

	PhotoPath   string `bson:"photo_path,omitempty" json:"photoPath,omitempty"`
	IDCardPath  string `bson:"id_card_path,omitempty" json:"idCardPath,omitempty"`
	SearchIndex string `bson:"search_index" json:"-"` // folded name/email/numbers

	// Immutable once assigned.
	MembershipID string `bson:"membership_id" json:"membershipId"`

	Status        string              `bson:"status" json:"status"`
	ReviewedBy    *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time          `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	ReviewerNotes string              `bson:"reviewer_notes,omitempty" json:"reviewerNotes,omitempty"`

	SubmittedAt time.Time `bson:"submitted_at" json:"submittedAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// FullName joins the applicant's name parts for display and search.
func (r *Registration) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}
