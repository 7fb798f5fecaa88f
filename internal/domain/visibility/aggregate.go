package visibility

import "sort"

// MaxKeywordStats caps the keyword performance list.
const MaxKeywordStats = 10

// Summary value object
type Summary struct {
	TotalChecks     int `json:"totalChecks"`
	PresenceCount   int `json:"presenceCount"`
	VisibilityScore int `json:"visibilityScore"`
}

// GroupStat is a derived per-engine, per-day or per-keyword score. Never stored.
type GroupStat struct {
	Key     string `json:"key"`
	Total   int    `json:"total"`
	Present int    `json:"present"`
	Score   int    `json:"score"`
}

// Score returns round(100*present/total), halves rounded away from zero.
// Integer arithmetic keeps it exact; 0 when total is 0.
func Score(present, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*present + total) / (2 * total)
}

// Summarize computes the overall visibility score.
func Summarize(checks []*Check) Summary {
	s := Summary{TotalChecks: len(checks)}
	for _, c := range checks {
		if c.Presence {
			s.PresenceCount++
		}
	}
	s.VisibilityScore = Score(s.PresenceCount, s.TotalChecks)
	return s
}

// ByEngine groups checks by engine in first-seen order.
func ByEngine(checks []*Check) []GroupStat {
	return groupBy(checks, func(c *Check) string { return c.Engine })
}

// ByDay groups checks by the calendar date of their timestamp, in the timestamp's
// own location, oldest day first.
func ByDay(checks []*Check) []GroupStat {
	out := groupBy(checks, func(c *Check) string { return c.Timestamp.Format("2006-01-02") })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// KeywordPerformance groups checks by keyword, best score first, top MaxKeywordStats.
// Ties keep first-seen order.
func KeywordPerformance(checks []*Check) []GroupStat {
	out := groupBy(checks, func(c *Check) string { return c.Keyword })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > MaxKeywordStats {
		out = out[:MaxKeywordStats]
	}
	return out
}

func groupBy(checks []*Check, key func(*Check) string) []GroupStat {
	out := []GroupStat{}
	index := make(map[string]int)
	for _, c := range checks {
		k := key(c)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, GroupStat{Key: k})
		}
		out[i].Total++
		if c.Presence {
			out[i].Present++
		}
	}
	for i := range out {
		out[i].Score = Score(out[i].Present, out[i].Total)
	}
	return out
}
