package normalize_test

import (
	"testing"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/normalize"
)

func TestEmail(t *testing.T) {
	if got := normalize.Email("  Asha.Nair@College.EDU "); got != "asha.nair@college.edu" {
		t.Errorf("Email() = %q", got)
	}
}

func TestName(t *testing.T) {
	if got := normalize.Name("  Asha Nair "); got != "Asha Nair" {
		t.Errorf("Name() = %q", got)
	}
}

func TestPhone(t *testing.T) {
	tests := []struct{ in, want string }{
		{"+91 98765-43210", "+919876543210"},
		{"98765 43210", "9876543210"},
		{" 040-2345-6789 ", "04023456789"},
		{"98+76", "9876"},
	}
	for _, tt := range tests {
		if got := normalize.Phone(tt.in); got != tt.want {
			t.Errorf("Phone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDepartmentAndEnum(t *testing.T) {
	if got := normalize.Department(" cse "); got != "CSE" {
		t.Errorf("Department() = %q", got)
	}
	if got := normalize.Enum(" Published "); got != "published" {
		t.Errorf("Enum() = %q", got)
	}
}
