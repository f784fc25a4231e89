package core

import (
	"time"
)

// Industry is a tag from the closed set of supported industries
type Industry string

const (
	IndustryECommerce  Industry = "e-commerce"
	IndustrySaaS       Industry = "saas"
	IndustryRetail     Industry = "retail"
	IndustryHealthcare Industry = "healthcare"
	IndustryFinance    Industry = "finance"
	IndustryEducation  Industry = "education"
)

// SupportedIndustries lists every accepted industry tag in display order
var SupportedIndustries = []Industry{
	IndustryECommerce,
	IndustrySaaS,
	IndustryRetail,
	IndustryHealthcare,
	IndustryFinance,
	IndustryEducation,
}

// IsSupported reports whether the industry belongs to the closed set
func (i Industry) IsSupported() bool {
	for _, supported := range SupportedIndustries {
		if i == supported {
			return true
		}
	}
	return false
}

const (
	// MinSubjectLength is the minimum subject length after sanitization
	MinSubjectLength = 1
	// MaxSubjectLength is the maximum subject length after sanitization
	MaxSubjectLength = 200
)

// Dimension names one axis of the deterministic score
type Dimension string

const (
	DimensionLength          Dimension = "length"
	DimensionSpam            Dimension = "spam"
	DimensionPersonalization Dimension = "personalization"
	DimensionUrgency         Dimension = "urgency"
	DimensionClarity         Dimension = "clarity"
	DimensionIndustry        Dimension = "industry"
)

// Dimensions is the fixed evaluation order of the scoring dimensions
var Dimensions = []Dimension{
	DimensionLength,
	DimensionSpam,
	DimensionPersonalization,
	DimensionUrgency,
	DimensionClarity,
	DimensionIndustry,
}

// ScoringResult is the output of the deterministic scorer
type ScoringResult struct {
	Total     int                   `json:"total"`
	Breakdown map[Dimension]int     `json:"breakdown"`
	Weights   map[Dimension]float64 `json:"weights"`
}

// AIResult is the normalized reply of the language model
type AIResult struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Insight     string   `json:"ai_insights"`
}

// ScoringBreakdown records how the final score was assembled.
// AIBased is nil when the AI path failed.
type ScoringBreakdown struct {
	RuleBased int  `json:"rule_based"`
	AIBased   *int `json:"ai_based"`
	Combined  int  `json:"combined"`
}

// AnalysisResult is the cached and returned analysis of one subject line.
// It is treated as immutable once built.
type AnalysisResult struct {
	Original         string            `json:"original"`
	Score            int               `json:"score"`
	Issues           []string          `json:"issues"`
	Suggestions      []string          `json:"suggestions"`
	Insight          string            `json:"ai_insights"`
	ScoringBreakdown ScoringBreakdown  `json:"scoring_breakdown"`
	DetailedMetrics  map[Dimension]int `json:"detailed_metrics"`
	Industry         Industry          `json:"industry"`
	AnalyzedAt       time.Time         `json:"analyzed_at"`
}

// AnalysisRequest is the inbound request of the analysis service
type AnalysisRequest struct {
	Subject  string `json:"subject"`
	Industry string `json:"industry"`

	// SubjectMissing marks a request whose subject field was absent rather than empty
	SubjectMissing bool `json:"-"`
}

// AnalysisResponse wraps a result with its cache provenance
type AnalysisResponse struct {
	Result *AnalysisResult
	Cached bool
}

// CompletionRequest is what the analyzer sends to a text-generation provider
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
	Model       string
}

// CacheStats is the observability snapshot of a cache repository
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sets    int64 `json:"sets"`
	Expired int64 `json:"expired"`
}

// ValidationRules describes the request contract for clients
type ValidationRules struct {
	MaxSubjectLength    int        `json:"maxSubjectLength"`
	MinSubjectLength    int        `json:"minSubjectLength"`
	SupportedIndustries []Industry `json:"supportedIndustries"`
}
