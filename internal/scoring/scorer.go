// Package scoring implements the deterministic, rule-based half of subject line analysis.
package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mikey/subject-analyzer/internal/core"
)

// spamTriggers are phrases historically associated with low-quality bulk mail
var spamTriggers = []string{
	"free",
	"urgent",
	"act now",
	"limited time",
	"click here",
	"buy now",
	"save money",
	"earn money",
	"make money",
	"work from home",
	"guaranteed",
	"no obligation",
	"risk free",
	"congratulations",
	"winner",
	"cash",
	"$$$",
	"!!!",
	"100% free",
	"act fast",
	"limited offer",
}

var personalizationMarkers = []string{
	"your",
	"you",
	"personal",
	"custom",
	"tailored",
	"exclusive",
	"insider",
	"vip",
	"member",
	"account",
	"profile",
}

var urgencyWords = []string{
	"now",
	"today",
	"limited",
	"expires",
	"deadline",
	"last chance",
	"final",
	"ending soon",
	"hurry",
	"quick",
	"immediate",
}

var industryKeywords = map[core.Industry][]string{
	core.IndustryECommerce:  {"shop", "buy", "sale", "deal", "product", "order", "cart", "checkout"},
	core.IndustrySaaS:       {"software", "app", "platform", "tool", "solution", "feature", "upgrade", "trial"},
	core.IndustryRetail:     {"store", "shop", "sale", "discount", "offer", "product", "brand", "fashion"},
	core.IndustryHealthcare: {"health", "medical", "doctor", "treatment", "wellness", "care", "patient"},
	core.IndustryFinance:    {"money", "investment", "bank", "credit", "loan", "financial", "wealth", "savings"},
	core.IndustryEducation:  {"learn", "course", "education", "training", "skill", "knowledge", "study", "class"},
}

// Weights of each dimension in the total. They sum to 1.0.
var Weights = map[core.Dimension]float64{
	core.DimensionLength:          0.15,
	core.DimensionSpam:            0.20,
	core.DimensionPersonalization: 0.15,
	core.DimensionUrgency:         0.15,
	core.DimensionClarity:         0.20,
	core.DimensionIndustry:        0.15,
}

var (
	punctuationRun = regexp.MustCompile(`[!?]{2,}`)
	upperLetter    = regexp.MustCompile(`[A-Z]`)
	symbolChar     = regexp.MustCompile(`[0-9$%&*]`)
)

// Scorer computes the weighted multi-metric score. It is stateless and safe for concurrent use.
type Scorer struct{}

// NewScorer creates a new deterministic scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// CalculateScore scores every dimension and combines them with the fixed weights
func (s *Scorer) CalculateScore(subject string, industry core.Industry) core.ScoringResult {
	breakdown := map[core.Dimension]int{
		core.DimensionLength:          ScoreLength(subject),
		core.DimensionSpam:            ScoreSpamTriggers(subject),
		core.DimensionPersonalization: ScorePersonalization(subject),
		core.DimensionUrgency:         ScoreUrgency(subject),
		core.DimensionClarity:         ScoreClarity(subject),
		core.DimensionIndustry:        ScoreIndustryRelevance(subject, industry),
	}

	weights := make(map[core.Dimension]float64, len(Weights))
	total := 0.0
	for _, dim := range core.Dimensions {
		total += float64(breakdown[dim]) * Weights[dim]
		weights[dim] = Weights[dim]
	}

	return core.ScoringResult{
		Total:     int(math.Round(total)),
		Breakdown: breakdown,
		Weights:   weights,
	}
}

// IdentifyIssues flags qualitative problems. It is derived independently of the numeric
// dimensions, so it can disagree with them at the margins.
func (s *Scorer) IdentifyIssues(subject string) []string {
	issues := []string{}
	length := utf8.RuneCountInString(subject)

	if length < 20 {
		issues = append(issues, "too short")
	}
	if length > 70 {
		issues = append(issues, "too long")
	}

	lower := strings.ToLower(subject)
	if countMatches(lower, spamTriggers) > 0 {
		issues = append(issues, "contains spam triggers")
	}
	if punctuationRun.MatchString(subject) {
		issues = append(issues, "excessive punctuation")
	}
	if capsRatio(subject) > 0.5 {
		issues = append(issues, "too many capital letters")
	}
	if !strings.Contains(lower, "your") && !strings.Contains(lower, "you") {
		issues = append(issues, "lacks personalization")
	}

	return issues
}

// ScoreLength favors 31-50 characters
func ScoreLength(subject string) int {
	length := utf8.RuneCountInString(subject)
	switch {
	case length < 20:
		return 40
	case length <= 30:
		return 80
	case length <= 50:
		return 100
	case length <= 70:
		return 85
	case length <= 100:
		return 60
	default:
		return 30
	}
}

// ScoreSpamTriggers penalizes each matched trigger phrase
func ScoreSpamTriggers(subject string) int {
	switch countMatches(strings.ToLower(subject), spamTriggers) {
	case 0:
		return 100
	case 1:
		return 70
	case 2:
		return 40
	default:
		return 10
	}
}

// ScorePersonalization rewards any personalization marker
func ScorePersonalization(subject string) int {
	if countMatches(strings.ToLower(subject), personalizationMarkers) > 0 {
		return 100
	}
	return 50
}

// ScoreUrgency rewards any urgency word
func ScoreUrgency(subject string) int {
	if countMatches(strings.ToLower(subject), urgencyWords) > 0 {
		return 100
	}
	return 60
}

// ScoreClarity penalizes punctuation runs, shouting and symbol clutter
func ScoreClarity(subject string) int {
	score := 100

	score -= len(punctuationRun.FindAllString(subject, -1)) * 20

	if capsRatio(subject) > 0.5 {
		score -= 30
	}

	if len(symbolChar.FindAllString(subject, -1)) > 3 {
		score -= 20
	}

	if score < 0 {
		return 0
	}
	return score
}

// ScoreIndustryRelevance counts industry keywords. Unknown industries have no keywords.
func ScoreIndustryRelevance(subject string, industry core.Industry) int {
	switch n := countMatches(strings.ToLower(subject), industryKeywords[industry]); {
	case n == 0:
		return 50
	case n == 1:
		return 75
	default:
		return 100
	}
}

// countMatches counts how many phrases occur in text as substrings
func countMatches(text string, phrases []string) int {
	count := 0
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			count++
		}
	}
	return count
}

// capsRatio is the share of ASCII uppercase letters over the character count
func capsRatio(subject string) float64 {
	length := utf8.RuneCountInString(subject)
	if length == 0 {
		return 0
	}
	return float64(len(upperLetter.FindAllString(subject, -1))) / float64(length)
}
