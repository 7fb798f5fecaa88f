package stats

import (
	"context"
	"sort"
	"time"

	"github.com/bryanwahyu/aeo-tracker/internal/application"
	"github.com/bryanwahyu/aeo-tracker/internal/application/projects"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

// Window defaults and bounds, in days / rows.
const (
	DefaultDays       = 30
	MaxDays           = 365
	DashboardDays     = 30
	DefaultFailureCap = 20
	MaxFailureCap     = 100
)

// EngineStat is one row of the per-engine breakdown.
type EngineStat struct {
	Engine  string `json:"engine"`
	Total   int    `json:"total"`
	Present int    `json:"present"`
	Score   int    `json:"score"`
}

// DailyStat is one point of the trend chart.
type DailyStat struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Present int    `json:"present"`
	Score   int    `json:"score"`
}

// KeywordStat is one row of the keyword performance table.
type KeywordStat struct {
	Keyword string `json:"keyword"`
	Total   int    `json:"total"`
	Present int    `json:"present"`
	Score   int    `json:"score"`
}

// Dashboard is the GET /dashboard/stats payload.
type Dashboard struct {
	visibility.Summary
	EngineStats        []EngineStat                `json:"engineStats"`
	Trend              []DailyStat                 `json:"trend"`
	KeywordPerformance []KeywordStat               `json:"keywordPerformance"`
	Recommendations    []visibility.Recommendation `json:"recommendations"`
	Project            *visibility.Project         `json:"project"`
}

// Service serves read-only views over stored checks.
type Service struct {
	ProjectRepo visibility.ProjectRepository
	CheckRepo   visibility.CheckRepository
	FailureRepo visibility.FailureRepository
	Clock       application.Clock
}

// ClampDays maps a requested history window onto [1, MaxDays]; non-positive means default.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days > MaxDays:
		return MaxDays
	}
	return days
}

// ClampLimit maps a requested failure count onto [1, MaxFailureCap].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultFailureCap
	case limit > MaxFailureCap:
		return MaxFailureCap
	}
	return limit
}

// History returns checks from the last days days, newest first.
func (s *Service) History(ctx context.Context, userID string, projectID visibility.ProjectID, days int) ([]*visibility.Check, error) {
	if _, err := s.project(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.CheckRepo.Since(ctx, projectID, s.since(ClampDays(days)))
}

// Dashboard aggregates the last DashboardDays days of checks.
func (s *Service) Dashboard(ctx context.Context, userID string, projectID visibility.ProjectID) (*Dashboard, error) {
	p, err := s.project(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	checks, err := s.CheckRepo.Since(ctx, projectID, s.since(DashboardDays))
	if err != nil {
		return nil, err
	}
	// oldest first, ties keep store order
	ordered := append([]*visibility.Check(nil), checks...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp.Before(ordered[j].Timestamp) })

	sum := visibility.Summarize(ordered)
	engines := visibility.ByEngine(ordered)
	keywords := visibility.KeywordPerformance(ordered)

	d := &Dashboard{
		Summary:            sum,
		EngineStats:        make([]EngineStat, 0, len(engines)),
		Trend:              []DailyStat{},
		KeywordPerformance: make([]KeywordStat, 0, len(keywords)),
		Recommendations:    visibility.Recommend(sum, engines, keywords),
		Project:            p,
	}
	for _, g := range engines {
		d.EngineStats = append(d.EngineStats, EngineStat{Engine: g.Key, Total: g.Total, Present: g.Present, Score: g.Score})
	}
	for _, g := range visibility.ByDay(ordered) {
		d.Trend = append(d.Trend, DailyStat{Date: g.Key, Total: g.Total, Present: g.Present, Score: g.Score})
	}
	for _, g := range keywords {
		d.KeywordPerformance = append(d.KeywordPerformance, KeywordStat{Keyword: g.Key, Total: g.Total, Present: g.Present, Score: g.Score})
	}
	return d, nil
}

// Failures lists recent skipped batch items, newest first.
func (s *Service) Failures(ctx context.Context, userID string, projectID visibility.ProjectID, limit int) ([]*visibility.CheckFailure, error) {
	if _, err := s.project(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if s.FailureRepo == nil {
		return []*visibility.CheckFailure{}, nil
	}
	return s.FailureRepo.ListByProject(ctx, projectID, ClampLimit(limit))
}

func (s *Service) project(ctx context.Context, userID string, projectID visibility.ProjectID) (*visibility.Project, error) {
	if err := projects.ValidateID(projectID); err != nil {
		return nil, err
	}
	return s.ProjectRepo.Get(ctx, userID, projectID)
}

func (s *Service) since(days int) time.Time {
	return s.Clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
}
