package core

import (
	"strings"
	"testing"
)

func row(values map[string]string) ParsedRow {
	return ParsedRow{Line: 2, Values: values}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.co", true},
		{"first.last@sub.example.com", true},
		{"", false},
		{"plain", false},
		{"a@b", false},
		{"a@@b.com", false},
		{"a b@c.com", false},
		{"@b.com", false},
		{"a@.com", false},
		{"a@b.", false},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.in); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"5550102000", true},
		{"+1 (555) 010-2000", true},
		{"123456789", false},
		{"1234567890123456", false},
		{"123456789012345", true},
		{"phone", false},
	}
	for _, tt := range tests {
		if got := ValidPhone(tt.in); got != tt.want {
			t.Errorf("ValidPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidWebsite(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://acme.com", true},
		{"http://acme.com/path?q=1", true},
		{"acme.com", false},
		{"https://", false},
		{"not a url", false},
	}
	for _, tt := range tests {
		if got := ValidWebsite(tt.in); got != tt.want {
			t.Errorf("ValidWebsite(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateRow_CollectsAllViolations(t *testing.T) {
	errs := ValidateRow(row(map[string]string{
		"name":       "A",
		"email":      "bad",
		"admin_name": "B",
		"phone":      "12",
		"website":    "nope",
	}), 7)

	fields := map[string]bool{}
	for _, e := range errs {
		if e.Row != 7 || e.Kind != KindValidation {
			t.Errorf("error = %+v, want row 7 validation", e)
		}
		fields[e.Field] = true
	}
	for _, f := range []string{"name", "email", "admin_name", "phone", "website"} {
		if !fields[f] {
			t.Errorf("missing violation for %s in %+v", f, errs)
		}
	}
}

func TestValidateRow_Valid(t *testing.T) {
	errs := ValidateRow(row(map[string]string{
		"name":       "Acme",
		"email":      "a@x.com",
		"admin_name": "Ann Owner",
		"phone":      "",
		"website":    "",
	}), 2)
	if len(errs) != 0 {
		t.Errorf("errors = %+v, want none", errs)
	}
}

func TestValidateRow_Messages(t *testing.T) {
	errs := ValidateRow(row(map[string]string{
		"name": "Acme", "email": "x@", "admin_name": "Ann",
	}), 2)
	if len(errs) != 1 || errs[0].Message != "Invalid email format: x@" {
		t.Errorf("errors = %+v", errs)
	}

	long := strings.Repeat("é", 101)
	errs = ValidateRow(row(map[string]string{
		"name": long, "email": "a@x.com", "admin_name": strings.Repeat("é", 100),
	}), 2)
	if len(errs) != 1 || errs[0].Message != "Business name must be between 2 and 100 characters" {
		t.Errorf("errors = %+v", errs)
	}
}
