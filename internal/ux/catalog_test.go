package ux

import (
	"strings"
	"testing"

	"aipm/internal/rules"

	"github.com/stretchr/testify/assert"
)

func TestRenderCatalog(t *testing.T) {
	cat := &rules.Catalog{
		Name:        "house-style",
		Description: "Local conventions",
		Rules: []rules.Rule{
			rules.MustNew("Title", "Is there a title?"),
			rules.MustNew("Abstract", "Is there an abstract?"),
		},
	}

	out := RenderCatalog(cat, DefaultStyles())
	assert.Contains(t, out, "house-style")
	assert.Contains(t, out, "Local conventions")
	assert.Contains(t, out, "RULE")
	assert.Contains(t, out, "Abstract")
	assert.Contains(t, out, "Is there a title?")
	assert.Contains(t, out, "2 rules")
	assert.Less(t, strings.Index(out, "Is there a title?"), strings.Index(out, "Is there an abstract?"))
}

func TestRenderCatalog_Empty(t *testing.T) {
	out := RenderCatalog(&rules.Catalog{Name: "empty"}, DefaultStyles())
	assert.Contains(t, out, "No rules defined.")
}

func TestRenderCatalogNames(t *testing.T) {
	got := RenderCatalogNames([]string{"a", "b"}, "b")
	assert.Equal(t, "  a\n* b\n", got)
}

