package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validator checks record payloads against an entity schema. A
// payload either passes in full or is rejected with every violation
// listed; no partial writes.
type Validator struct{}

// New creates a new validator
func New() *Validator {
	return &Validator{}
}

// Validate checks a payload against the entity's fields and returns a
// normalized copy: date and datetime strings become time values, and
// absent optional fields with defaults are filled in. Declared fields
// are checked; undeclared keys pass through untouched.
func (v *Validator) Validate(entity *domain.Entity, data domain.Payload) (domain.Payload, error) {
	verr := &domain.ValidationError{}
	out := data.Clone()

	for _, field := range entity.Fields {
		value, present := data[field.Name]
		if !present || value.IsNull() {
			if !present && field.Default != nil {
				out[field.Name] = *field.Default
				continue
			}
			if field.Required {
				verr.Add(field.Name, fmt.Sprintf("%s is required", field.Label))
			}
			continue
		}

		normalized, msg := checkField(field, value)
		if msg != "" {
			verr.Add(field.Name, msg)
			continue
		}
		out[field.Name] = normalized
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return out, nil
}

// checkField validates one value against its definition, returning
// the normalized value or an error message.
func checkField(field domain.FieldDefinition, value domain.Value) (domain.Value, string) {
	switch field.Type {
	case domain.FieldText, domain.FieldTextarea:
		if value.Kind != domain.KindString {
			return value, "must be text"
		}
		if msg := checkLength(field, value.Str); msg != "" {
			return value, msg
		}

	case domain.FieldEmail:
		if value.Kind != domain.KindString || !emailPattern.MatchString(value.Str) {
			return value, "must be a valid email address"
		}

	case domain.FieldPhone:
		if value.Kind != domain.KindString {
			return value, "must be a phone number"
		}
		digits := 0
		for _, r := range value.Str {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 10 {
			return value, "must contain at least 10 digits"
		}

	case domain.FieldURL:
		if value.Kind != domain.KindString {
			return value, "must be a URL"
		}
		u, err := url.Parse(value.Str)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return value, "must be a valid http or https URL"
		}

	case domain.FieldNumber, domain.FieldCurrency:
		if value.Kind != domain.KindNumber {
			return value, "must be a number"
		}
		if c := field.Constraints; c != nil {
			if c.Min != nil && value.Num < *c.Min {
				return value, fmt.Sprintf("must be at least %g", *c.Min)
			}
			if c.Max != nil && value.Num > *c.Max {
				return value, fmt.Sprintf("must be at most %g", *c.Max)
			}
		}

	case domain.FieldDate:
		return parseTime(value, "2006-01-02", "must be a date in YYYY-MM-DD format")

	case domain.FieldDatetime:
		return parseTime(value, time.RFC3339, "must be an RFC 3339 timestamp")

	case domain.FieldCheckbox:
		if value.Kind != domain.KindBool {
			return value, "must be true or false"
		}

	case domain.FieldSelect:
		if value.Kind != domain.KindString {
			return value, "must be one of the configured options"
		}
		if !optionAllowed(field.Options, value.Str) {
			return value, fmt.Sprintf("must be one of: %s", strings.Join(field.Options, ", "))
		}

	case domain.FieldMultiselect:
		if value.Kind != domain.KindArray {
			return value, "must be a list of options"
		}
		for _, item := range value.List {
			if item.Kind != domain.KindString || !optionAllowed(field.Options, item.Str) {
				return value, fmt.Sprintf("every item must be one of: %s", strings.Join(field.Options, ", "))
			}
		}

	default:
		return value, fmt.Sprintf("unsupported field type %q", field.Type)
	}

	return value, ""
}

func parseTime(value domain.Value, layout, msg string) (domain.Value, string) {
	if value.Kind == domain.KindTime {
		return value, ""
	}
	if value.Kind != domain.KindString {
		return value, msg
	}
	t, err := time.Parse(layout, value.Str)
	if err != nil {
		return value, msg
	}
	return domain.Timestamp(t), ""
}

func checkLength(field domain.FieldDefinition, s string) string {
	c := field.Constraints
	if c == nil {
		return ""
	}
	n := len([]rune(s))
	if c.MinLength != nil && n < *c.MinLength {
		return fmt.Sprintf("must be at least %d characters", *c.MinLength)
	}
	if c.MaxLength != nil && n > *c.MaxLength {
		return fmt.Sprintf("must be at most %d characters", *c.MaxLength)
	}
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err == nil && !re.MatchString(s) {
			return "does not match the required pattern"
		}
	}
	return ""
}

func optionAllowed(options []string, s string) bool {
	for _, opt := range options {
		if opt == s {
			return true
		}
	}
	return false
}

// CheckSchema validates an entity definition itself: types must be
// known, names unique and machine-friendly, and choice fields need
// options.
func (v *Validator) CheckSchema(fields []domain.FieldDefinition) error {
	verr := &domain.ValidationError{}
	seen := make(map[string]bool, len(fields))

	for _, field := range fields {
		if field.Name == "" || !fieldNamePattern.MatchString(field.Name) {
			verr.Add(field.Name, "field name must be lowercase letters, digits and underscores")
			continue
		}
		if seen[field.Name] {
			verr.Add(field.Name, "duplicate field name")
			continue
		}
		seen[field.Name] = true

		if !field.Type.Valid() {
			verr.Add(field.Name, fmt.Sprintf("unknown field type %q", field.Type))
			continue
		}
		switch field.Type {
		case domain.FieldSelect, domain.FieldMultiselect:
			if len(field.Options) == 0 {
				verr.Add(field.Name, "select fields require at least one option")
			}
		}
		if field.Default != nil {
			if _, msg := checkField(field, *field.Default); msg != "" {
				verr.Add(field.Name, "default value "+msg)
			}
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
