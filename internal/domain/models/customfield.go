// internal/domain/models/customfield.go
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/inputval"
)

// FieldType is the closed set of custom registration field types.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
	FieldDate     FieldType = "date"
)

// AllFieldTypes lists every valid field type.
var AllFieldTypes = []FieldType{
	FieldText, FieldEmail, FieldPhone, FieldNumber, FieldTextarea,
	FieldSelect, FieldRadio, FieldCheckbox, FieldFile, FieldDate,
}

// IsValidFieldType reports whether t names a type in the closed set.
func IsValidFieldType(t FieldType) bool {
	for _, v := range AllFieldTypes {
		if t == v {
			return true
		}
	}
	return false
}

// CustomFieldDef is one admin-defined registration field on an event. Each
// type variant carries its own validation knobs: Options for
// select/radio/checkbox, MaxLength for text/textarea, Min/Max for number.
type CustomFieldDef struct {
	ID        string    `bson:"id" json:"id"`
	Type      FieldType `bson:"type" json:"type"`
	Label     string    `bson:"label" json:"label"`
	Required  bool      `bson:"required" json:"required"`
	Options   []string  `bson:"options,omitempty" json:"options,omitempty"`
	MaxLength int       `bson:"max_length,omitempty" json:"maxLength,omitempty"`
	Min       *float64  `bson:"min,omitempty" json:"min,omitempty"`
	Max       *float64  `bson:"max,omitempty" json:"max,omitempty"`
}

// CustomFieldValue is one submitted value, keyed by field definition ID.
// For checkbox fields Value holds the chosen options comma-joined; for file
// fields Value holds the stored-file reference after upload resolution.
type CustomFieldValue struct {
	FieldID string `bson:"field_id" json:"fieldId"`
	Value   string `bson:"value" json:"value"`
}

// ValidateDef checks a field definition at event-creation time.
func (d CustomFieldDef) ValidateDef() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("custom field id is required")
	}
	if strings.TrimSpace(d.Label) == "" {
		return fmt.Errorf("custom field %q: label is required", d.ID)
	}
	if !IsValidFieldType(d.Type) {
		return fmt.Errorf("custom field %q: unknown type %q", d.ID, d.Type)
	}
	switch d.Type {
	case FieldSelect, FieldRadio, FieldCheckbox:
		if len(d.Options) == 0 {
			return fmt.Errorf("custom field %q: %s fields need options", d.ID, d.Type)
		}
	}
	return nil
}

// ValidateValue checks one submitted value against the definition's type
// rule. The empty string is rejected only when the field is required; file
// fields are validated upstream where the upload is resolved.
func (d CustomFieldDef) ValidateValue(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if d.Required {
			return fmt.Errorf("%s is required", d.Label)
		}
		return nil
	}

	switch d.Type {
	case FieldText, FieldTextarea:
		if d.MaxLength > 0 && len(value) > d.MaxLength {
			return fmt.Errorf("%s must be at most %d characters", d.Label, d.MaxLength)
		}
	case FieldEmail:
		if !inputval.IsValidEmail(value) {
			return fmt.Errorf("%s must be a valid email address", d.Label)
		}
	case FieldPhone:
		if !inputval.IsValidPhone(value) {
			return fmt.Errorf("%s must be a valid phone number", d.Label)
		}
	case FieldNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number", d.Label)
		}
		if d.Min != nil && n < *d.Min {
			return fmt.Errorf("%s must be at least %g", d.Label, *d.Min)
		}
		if d.Max != nil && n > *d.Max {
			return fmt.Errorf("%s must be at most %g", d.Label, *d.Max)
		}
	case FieldSelect, FieldRadio:
		if !d.hasOption(value) {
			return fmt.Errorf("%s must be one of the listed options", d.Label)
		}
	case FieldCheckbox:
		for _, part := range strings.Split(value, ",") {
			if !d.hasOption(strings.TrimSpace(part)) {
				return fmt.Errorf("%s contains an option that is not listed", d.Label)
			}
		}
	case FieldDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("%s must be a date in YYYY-MM-DD form", d.Label)
		}
	case FieldFile:
		// A non-empty value here is a stored-file reference set by the
		// upload step; nothing further to check.
	}
	return nil
}

func (d CustomFieldDef) hasOption(v string) bool {
	for _, o := range d.Options {
		if o == v {
			return true
		}
	}
	return false
}
