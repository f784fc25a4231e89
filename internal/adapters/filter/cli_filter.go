package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/subject-analyzer/internal/core"
	"go.uber.org/zap"
)

// CliFilter analyzes subjects given on the command line and prints the results
type CliFilter struct {
	service    SubjectAnalyzer
	logger     *zap.Logger
	out        io.Writer
	verbose    bool
	jsonOutput bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service SubjectAnalyzer, logger *zap.Logger, out io.Writer, verbose, jsonOutput bool) *CliFilter {
	return &CliFilter{
		service:    service,
		logger:     logger,
		out:        out,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}
}

// ProcessSubject analyzes one subject line and writes the report
func (f *CliFilter) ProcessSubject(ctx context.Context, subject, industry string) (*core.AnalysisResponse, error) {
	f.logger.Debug("Processing subject", zap.String("industry", industry))

	start := time.Now()
	resp, err := f.service.Analyze(ctx, core.AnalysisRequest{Subject: subject, Industry: industry})
	if err != nil {
		f.logger.Error("Failed to analyze subject", zap.Error(err))
		return nil, err
	}
	duration := time.Since(start)

	if f.jsonOutput {
		enc := json.NewEncoder(f.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp.Result); err != nil {
			return nil, fmt.Errorf("failed to encode result: %w", err)
		}
		return resp, nil
	}

	r := resp.Result
	fmt.Fprintf(f.out, "\n=== Subject ===\n")
	fmt.Fprintf(f.out, "Subject: %s\n", r.Original)
	fmt.Fprintf(f.out, "Industry: %s\n", r.Industry)

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Score: %d\n", r.Score)
	fmt.Fprintf(f.out, "Rule-based: %d\n", r.ScoringBreakdown.RuleBased)
	if r.ScoringBreakdown.AIBased != nil {
		fmt.Fprintf(f.out, "AI-based: %d\n", *r.ScoringBreakdown.AIBased)
	} else {
		fmt.Fprintf(f.out, "AI-based: unavailable\n")
	}
	fmt.Fprintf(f.out, "Issues: %s\n", listOrNone(r.Issues))
	fmt.Fprintf(f.out, "Insight: %s\n", r.Insight)

	fmt.Fprintf(f.out, "\n=== Suggestions ===\n")
	for i, s := range r.Suggestions {
		fmt.Fprintf(f.out, "%d. %s\n", i+1, s)
	}

	if f.verbose {
		fmt.Fprintf(f.out, "\n=== Metrics ===\n")
		for _, d := range core.Dimensions {
			fmt.Fprintf(f.out, "%-22s %3d\n", d, r.DetailedMetrics[d])
		}
		fmt.Fprintf(f.out, "Processing time: %v\n", duration)
	}

	return resp, nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
