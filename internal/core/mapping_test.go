package core

import "testing"

func strPtr(s string) *string { return &s }

func eqPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestMapRow(t *testing.T) {
	categories := []Category{
		{ID: "c-food", Name: "Food & Drink"},
		{ID: "c-health", Name: "Health"},
	}

	tests := []struct {
		name         string
		values       map[string]string
		batch        string
		wantCategory *string
	}{
		{"case-insensitive category", map[string]string{"category": "HEALTH"}, "", strPtr("c-health")},
		{"unknown category ignored", map[string]string{"category": "Plumbing"}, "", nil},
		{"no category column", map[string]string{}, "", nil},
		{"batch overrides row", map[string]string{"category": "Health"}, "c-food", strPtr("c-food")},
		{"batch applies without column", map[string]string{}, "c-food", strPtr("c-food")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := map[string]string{"name": "Acme", "email": "a@x.com", "admin_name": "Ann"}
			for k, v := range tt.values {
				values[k] = v
			}
			got := MapRow(ParsedRow{Line: 2, Values: values}, categories, tt.batch)
			if !eqPtr(got.CategoryID, tt.wantCategory) {
				t.Errorf("CategoryID = %v, want %v", deref(got.CategoryID), deref(tt.wantCategory))
			}
		})
	}
}

func TestMapRow_Fields(t *testing.T) {
	got := MapRow(ParsedRow{Line: 2, Values: map[string]string{
		"name":        "Acme",
		"email":       " Owner@Acme.COM ",
		"admin_name":  "Ann Owner",
		"description": "Bakery",
		"phone":       "",
		"website":     "https://acme.com",
		"address":     "",
		"unrelated":   "ignored",
	}}, nil, "")

	if got.Name != "Acme" || got.AdminName != "Ann Owner" {
		t.Errorf("names = %q/%q", got.Name, got.AdminName)
	}
	if got.Email != "owner@acme.com" {
		t.Errorf("Email = %q, want normalized", got.Email)
	}
	if !eqPtr(got.Description, strPtr("Bakery")) || !eqPtr(got.Website, strPtr("https://acme.com")) {
		t.Errorf("optional fields = %v/%v", deref(got.Description), deref(got.Website))
	}
	if got.Phone != nil || got.Address != nil {
		t.Errorf("empty optionals should be nil, got phone=%v address=%v", deref(got.Phone), deref(got.Address))
	}
}

func deref(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}
