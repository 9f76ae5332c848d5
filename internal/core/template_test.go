package core

import (
	"strings"
	"testing"
)

func TestGenerateTemplate(t *testing.T) {
	tmpl := GenerateTemplate()

	lines := strings.Split(strings.TrimRight(tmpl, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("template has %d lines, want header plus 2 examples", len(lines))
	}
	if lines[0] != TemplateHeader {
		t.Errorf("header = %q, want %q", lines[0], TemplateHeader)
	}

	// The template must round-trip through the parser without errors.
	res := Parse(tmpl)
	if len(res.Errors) != 0 {
		t.Fatalf("template parse errors = %+v", res.Errors)
	}
	if res.Meta.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", res.Meta.RowCount)
	}
	if got := res.Data[0].Get("description"); got != "Fresh bread, pastries and cakes" {
		t.Errorf("quoted description = %q", got)
	}
}
