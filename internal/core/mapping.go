package core

import "strings"

// MapRow converts a validated row into a business create request.
//
// A non-empty batchCategoryID applies to every row and takes precedence over
// the row's own "category" column. Category names are matched
// case-insensitively; an unknown name leaves the business uncategorized.
func MapRow(row ParsedRow, categories []Category, batchCategoryID string) BusinessRequest {
	req := BusinessRequest{
		Name:        row.Get("name"),
		Email:       NormalizeEmail(row.Get("email")),
		AdminName:   row.Get("admin_name"),
		Description: optional(row.Get("description")),
		Phone:       optional(row.Get("phone")),
		Website:     optional(row.Get("website")),
		Address:     optional(row.Get("address")),
	}

	if batchCategoryID != "" {
		req.CategoryID = &batchCategoryID
	} else if id, ok := lookupCategory(categories, row.Get("category")); ok {
		req.CategoryID = &id
	}

	return req
}

// NormalizeEmail trims and lower-cases an email for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func lookupCategory(categories []Category, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.ID, true
		}
	}
	return "", false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
