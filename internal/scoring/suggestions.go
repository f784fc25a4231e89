package scoring

import (
	"strings"

	"github.com/mikey/subject-analyzer/internal/core"
)

const defaultPrefix = "Check Out:"

var suggestionPrefixes = map[core.Industry]string{
	core.IndustryECommerce:  "Shop Now:",
	core.IndustrySaaS:       "Try Now:",
	core.IndustryRetail:     "Visit Now:",
	core.IndustryHealthcare: "Learn More:",
	core.IndustryFinance:    "Discover:",
	core.IndustryEducation:  "Start Learning:",
}

// SuggestionPrefix returns the call-to-action prefix for an industry
func SuggestionPrefix(industry core.Industry) string {
	if prefix, ok := suggestionPrefixes[industry]; ok {
		return prefix
	}
	return defaultPrefix
}

// FallbackSuggestions returns three deterministic rewrites of the subject
func FallbackSuggestions(subject string, industry core.Industry) []string {
	base := strings.TrimSpace(subject)
	return []string{
		SuggestionPrefix(industry) + " " + base,
		"Limited Time: " + base,
		"Exclusive: " + base,
	}
}

// FallbackSuggestions lets the Scorer serve as the combiner's suggestion generator
func (s *Scorer) FallbackSuggestions(subject string, industry core.Industry) []string {
	return FallbackSuggestions(subject, industry)
}
