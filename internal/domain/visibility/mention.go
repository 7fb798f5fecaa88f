package visibility

import (
	"regexp"
	"strings"
)

// SnippetLength is the number of characters of an answer kept as preview.
const SnippetLength = 500

var rxURL = regexp.MustCompile(`https?://[^\s]+`)

// Analysis is the brand-mention scan of one generated answer.
type Analysis struct {
	Presence             bool     `json:"presence"`
	Position             *int     `json:"position"`
	CitationsCount       int      `json:"citationsCount"`
	ObservedURLs         []string `json:"observedUrls"`
	CompetitorsMentioned []string `json:"competitorsMentioned"`
	AnswerSnippet        string   `json:"answerSnippet"`
}

// Analyze scans answer for brand and competitor mentions. It never fails.
//
// Position counts whitespace-delimited tokens, so a brand that itself contains
// whitespace can be present (substring match) while Position stays nil.
func Analyze(answer, brand string, competitors []string) Analysis {
	lowerAnswer := strings.ToLower(answer)
	lowerBrand := strings.ToLower(brand)

	res := Analysis{
		ObservedURLs:         []string{},
		CompetitorsMentioned: []string{},
		AnswerSnippet:        Snippet(answer),
	}

	if lowerBrand != "" && strings.Contains(lowerAnswer, lowerBrand) {
		res.Presence = true
		res.CitationsCount = strings.Count(lowerAnswer, lowerBrand)
		for i, word := range strings.Fields(answer) {
			if strings.Contains(strings.ToLower(word), lowerBrand) {
				pos := i + 1
				res.Position = &pos
				break
			}
		}
	}

	if urls := rxURL.FindAllString(answer, -1); urls != nil {
		res.ObservedURLs = urls
	}

	for _, comp := range competitors {
		if comp == "" {
			continue
		}
		if strings.Contains(lowerAnswer, strings.ToLower(comp)) {
			res.CompetitorsMentioned = append(res.CompetitorsMentioned, comp)
		}
	}

	return res
}

// Snippet returns the first SnippetLength characters of s.
func Snippet(s string) string {
	n := 0
	for i := range s {
		if n == SnippetLength {
			return s[:i]
		}
		n++
	}
	return s
}
