package service

import (
	"strings"

	"shopify-variant-reset/internal/model"
)

// ExcludeFunc decides whether a captured variant is deleted but never
// recreated. Excluded variants take no further part in inventory work.
type ExcludeFunc func(snap model.VariantSnapshot) bool

// TitleContains returns a predicate matching variants whose title contains
// the given substring, case-insensitively.
func TitleContains(substr string) ExcludeFunc {
	lowered := strings.ToLower(substr)
	return func(snap model.VariantSnapshot) bool {
		return strings.Contains(strings.ToLower(snap.Variant.Title), lowered)
	}
}

// DefaultExclude matches personalized variants (title contains "perso").
var DefaultExclude = TitleContains("perso")
