package visibility

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_Rounding(t *testing.T) {
	tests := []struct {
		present, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{3, 4, 75},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{5, 8, 63}, // 62.5 rounds up
		{1, 200, 1},
		{7, 7, 100},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.present, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.present, tt.total))
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		s := Summarize(nil)
		assert.Equal(t, Summary{}, s)
	})

	t.Run("three of four present", func(t *testing.T) {
		checks := []*Check{
			{Presence: true}, {Presence: true}, {Presence: true}, {Presence: false},
		}
		s := Summarize(checks)
		assert.Equal(t, 4, s.TotalChecks)
		assert.Equal(t, 3, s.PresenceCount)
		assert.Equal(t, 75, s.VisibilityScore)
	})
}

func TestByEngine(t *testing.T) {
	checks := []*Check{
		{Engine: EngineGemini, Presence: true},
		{Engine: EngineChatGPT, Presence: false},
		{Engine: EngineGemini, Presence: false},
		{Engine: EngineChatGPT, Presence: true},
		{Engine: EngineChatGPT, Presence: true},
	}

	got := ByEngine(checks)

	require.Len(t, got, 2)
	assert.Equal(t, GroupStat{Key: EngineGemini, Total: 2, Present: 1, Score: 50}, got[0])
	assert.Equal(t, GroupStat{Key: EngineChatGPT, Total: 3, Present: 2, Score: 67}, got[1])
	for _, g := range got {
		assert.NotEqual(t, EngineClaude, g.Key)
	}

	assert.Empty(t, ByEngine(nil))
}

func TestByDay_UsesTimestampLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	checks := []*Check{
		// 2024-03-02 06:30 in WIB, still March 1st in UTC
		{Timestamp: time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC).In(jakarta), Presence: true},
		{Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, jakarta), Presence: false},
		{Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, jakarta), Presence: true},
		{Timestamp: time.Date(2024, 2, 28, 10, 0, 0, 0, jakarta), Presence: true},
	}

	got := ByDay(checks)

	require.Len(t, got, 3)
	assert.Equal(t, GroupStat{Key: "2024-02-28", Total: 1, Present: 1, Score: 100}, got[0])
	assert.Equal(t, GroupStat{Key: "2024-03-01", Total: 2, Present: 1, Score: 50}, got[1])
	assert.Equal(t, GroupStat{Key: "2024-03-02", Total: 1, Present: 1, Score: 100}, got[2])
}

func TestKeywordPerformance_TopTenStable(t *testing.T) {
	var checks []*Check
	// kw00..kw11: even keywords fully present, odd keywords never present
	for i := 0; i < 12; i++ {
		kw := fmt.Sprintf("kw%02d", i)
		checks = append(checks,
			&Check{Keyword: kw, Presence: i%2 == 0},
			&Check{Keyword: kw, Presence: i%2 == 0},
		)
	}
	// one half-visible keyword seen last
	checks = append(checks,
		&Check{Keyword: "half", Presence: true},
		&Check{Keyword: "half", Presence: false},
	)

	got := KeywordPerformance(checks)

	require.Len(t, got, MaxKeywordStats)
	keys := make([]string, len(got))
	for i, g := range got {
		keys[i] = g.Key
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, g.Score)
		}
	}
	assert.Equal(t, []string{
		"kw00", "kw02", "kw04", "kw06", "kw08", "kw10",
		"half",
		"kw01", "kw03", "kw05",
	}, keys)
}

func TestAggregation_Deterministic(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var checks []*Check
	for i := 0; i < 40; i++ {
		checks = append(checks, &Check{
			Engine:    DefaultEngines()[i%4],
			Keyword:   fmt.Sprintf("k%d", i%7),
			Presence:  i%3 == 0,
			Timestamp: base.Add(time.Duration(i) * 5 * time.Hour),
		})
	}

	first := []any{ByEngine(checks), ByDay(checks), KeywordPerformance(checks), Summarize(checks)}
	for run := 0; run < 10; run++ {
		again := []any{ByEngine(checks), ByDay(checks), KeywordPerformance(checks), Summarize(checks)}
		assert.Equal(t, first, again)
	}
}
