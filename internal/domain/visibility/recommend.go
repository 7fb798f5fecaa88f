package visibility

import (
	"fmt"
	"strings"
)

// Recommendation types
const (
	RecommendWarning = "warning"
	RecommendSuccess = "success"
	RecommendInfo    = "info"
)

// Thresholds for the recommendation rules.
const (
	lowOverallScore       = 50
	excellentOverallScore = 75
	lowEngineScore        = 40
	lowKeywordScore       = 30
	maxListedKeywords     = 3
)

// Recommendation is a rule-based hint shown on the dashboard.
type Recommendation struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Recommend derives dashboard hints from the aggregated stats.
func Recommend(sum Summary, engines, keywords []GroupStat) []Recommendation {
	out := []Recommendation{}
	if sum.TotalChecks == 0 {
		return out
	}

	switch {
	case sum.VisibilityScore < lowOverallScore:
		out = append(out, Recommendation{
			Type:    RecommendWarning,
			Title:   "Low Overall Visibility",
			Message: fmt.Sprintf("Your brand appears in only %d%% of AI responses. Consider improving content quality and relevance.", sum.VisibilityScore),
		})
	case sum.VisibilityScore >= excellentOverallScore:
		out = append(out, Recommendation{
			Type:    RecommendSuccess,
			Title:   "Excellent Visibility",
			Message: fmt.Sprintf("Great job! Your brand appears in %d%% of AI responses.", sum.VisibilityScore),
		})
	}

	for _, e := range engines {
		if e.Score < lowEngineScore {
			out = append(out, Recommendation{
				Type:    RecommendWarning,
				Title:   fmt.Sprintf("Low %s Visibility", e.Key),
				Message: fmt.Sprintf("Your brand rarely appears on %s. Focus on creating content that aligns with this platform's preferences.", e.Key),
			})
		}
	}

	var low []string
	for _, k := range keywords {
		if k.Score < lowKeywordScore {
			low = append(low, k.Key)
		}
	}
	if len(low) > 0 {
		listed := low
		if len(listed) > maxListedKeywords {
			listed = listed[:maxListedKeywords]
		}
		out = append(out, Recommendation{
			Type:    RecommendInfo,
			Title:   "Keyword Optimization Needed",
			Message: fmt.Sprintf("%d keywords have low visibility. Consider creating targeted content for: %s", len(low), strings.Join(listed, ", ")),
		})
	}

	return out
}
