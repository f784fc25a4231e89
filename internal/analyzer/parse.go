package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/scoring"
)

const (
	defaultScore   = 50
	defaultInsight = "AI analysis unavailable. Consider making your subject line more specific and action-oriented."
)

var unableToAnalyze = []string{"Unable to analyze"}

var (
	// greedy: first '{' through last '}'
	jsonObject    = regexp.MustCompile(`(?s)\{.*\}`)
	leadingNumber = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseResponse extracts the JSON object from a free-text reply and normalizes every field
func ParseResponse(text, subject string, industry core.Industry) (*core.AIResult, error) {
	match := jsonObject.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in reply: %w", core.ErrAIMalformedResponse)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse reply JSON: %v: %w", err, core.ErrAIMalformedResponse)
	}

	return &core.AIResult{
		Score:       normalizeScore(raw["score"]),
		Issues:      normalizeIssues(raw["issues"]),
		Suggestions: normalizeSuggestions(raw["suggestions"], subject, industry),
		Insight:     normalizeInsight(raw),
	}, nil
}

func normalizeScore(v any) int {
	var n int
	switch s := v.(type) {
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return defaultScore
		}
		n = clampFloat(math.Trunc(s))
	case string:
		digits := leadingNumber.FindString(strings.TrimSpace(s))
		if digits == "" {
			return defaultScore
		}
		parsed, err := strconv.Atoi(digits)
		if err != nil {
			// too many digits to fit, sign decides the bound
			if strings.HasPrefix(digits, "-") {
				return 0
			}
			return 100
		}
		n = parsed
	default:
		return defaultScore
	}

	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func clampFloat(f float64) int {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return int(f)
}

func normalizeIssues(v any) []string {
	list, ok := stringList(v)
	if !ok {
		return append([]string(nil), unableToAnalyze...)
	}
	return list
}

func normalizeSuggestions(v any, subject string, industry core.Industry) []string {
	list, ok := stringList(v)
	if !ok || len(list) < 3 {
		return scoring.FallbackSuggestions(subject, industry)
	}
	return list[:3]
}

func normalizeInsight(raw map[string]any) string {
	for _, key := range []string{"ai_insights", "insight"} {
		if s, ok := raw[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return defaultInsight
}

// stringList accepts only a JSON array whose every element is a string
func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
