package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/aeo-tracker/internal/application"
	appai "github.com/bryanwahyu/aeo-tracker/internal/application/ai"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
	"github.com/bryanwahyu/aeo-tracker/internal/metrics"
)

// DefaultConcurrency is the worker pool size when none is configured.
const DefaultConcurrency = 4

// Prober asks one engine about one keyword. Implemented by ai.Service.
type Prober interface {
	Engines() []string
	Check(ctx context.Context, engine, keyword, brand string, competitors []string) (appai.Probe, error)
}

// Service runs visibility check batches.
// Failures and Archive are optional.
type Service struct {
	Projects    visibility.ProjectRepository
	Checks      visibility.CheckRepository
	Failures    visibility.FailureRepository
	Archive     visibility.AnswerArchive
	Engines     Prober
	Clock       application.Clock
	Logger      *zap.Logger
	Concurrency int
}

// RunResult is what POST /checks/run returns.
type RunResult struct {
	Success       bool                `json:"success"`
	ChecksCreated int                 `json:"checksCreated"`
	Results       []*visibility.Check `json:"results"`
}

// Run probes every keyword on every engine for a project owned by userID.
func (s *Service) Run(ctx context.Context, userID string, projectID visibility.ProjectID) (RunResult, error) {
	project, err := s.Projects.Get(ctx, userID, projectID)
	if err != nil {
		return RunResult{}, err
	}
	return s.RunProject(ctx, project), nil
}

// RunProject runs one batch. Item failures are logged, recorded and skipped.
func (s *Service) RunProject(ctx context.Context, project *visibility.Project) RunResult {
	metrics.IncrementCheckRuns()
	engines := s.Engines.Engines()

	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make([]*visibility.Check, 0, len(project.Keywords)*len(engines))
	)
	g.SetLimit(limit)

	for _, keyword := range project.Keywords {
		for _, engine := range engines {
			g.Go(func() error {
				c, err := s.runOne(ctx, project, engine, keyword)
				if err != nil {
					return nil
				}
				mu.Lock()
				results = append(results, c)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Keyword != b.Keyword {
			return a.Keyword < b.Keyword
		}
		return a.Engine < b.Engine
	})

	s.logger().Info("check run finished",
		zap.String("project_id", string(project.ID)),
		zap.Int("checks_created", len(results)),
		zap.Int("planned", len(project.Keywords)*len(engines)),
	)

	return RunResult{Success: true, ChecksCreated: len(results), Results: results}
}

// RunAll runs every stored project one after another. Used by the scheduler.
func (s *Service) RunAll(ctx context.Context) (int, error) {
	projects, err := s.Projects.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}
	total := 0
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		total += s.RunProject(ctx, p).ChecksCreated
	}
	return total, nil
}

func (s *Service) runOne(ctx context.Context, project *visibility.Project, engine, keyword string) (*visibility.Check, error) {
	log := s.logger().With(
		zap.String("project_id", string(project.ID)),
		zap.String("engine", engine),
		zap.String("keyword", keyword),
	)

	probe, err := s.Engines.Check(ctx, engine, keyword, project.Brand, project.Competitors)
	if err != nil {
		log.Warn("engine check failed", zap.Error(err))
		s.recordFailure(ctx, project.ID, engine, keyword, visibility.PhaseGenerate, err)
		return nil, err
	}

	a := probe.Analysis
	c := &visibility.Check{
		ID:                   visibility.CheckID(uuid.New().String()),
		ProjectID:            project.ID,
		Engine:               engine,
		Keyword:              keyword,
		Presence:             a.Presence,
		Position:             a.Position,
		CitationsCount:       a.CitationsCount,
		ObservedURLs:         a.ObservedURLs,
		CompetitorsMentioned: a.CompetitorsMentioned,
		AnswerSnippet:        a.AnswerSnippet,
		Timestamp:            s.Clock.Now(),
	}

	if s.Archive != nil {
		key := fmt.Sprintf("%s/%s/%s.txt", project.ID, strings.ToLower(engine), c.ID)
		url, err := s.Archive.PutAnswer(ctx, key, probe.Answer)
		if err != nil {
			// snippet is enough to keep the check
			log.Warn("archive answer failed", zap.Error(err))
		} else {
			c.AnswerURL = url
		}
	}

	if err := s.Checks.Insert(ctx, c); err != nil {
		log.Error("persist check failed", zap.Error(err))
		s.recordFailure(ctx, project.ID, engine, keyword, visibility.PhasePersist, err)
		return nil, err
	}

	metrics.IncrementChecksCreated()
	return c, nil
}

func (s *Service) recordFailure(ctx context.Context, projectID visibility.ProjectID, engine, keyword, phase string, cause error) {
	metrics.IncrementChecksFailed()
	if s.Failures == nil {
		return
	}
	f := &visibility.CheckFailure{
		ProjectID: projectID,
		Engine:    engine,
		Keyword:   keyword,
		Phase:     phase,
		Message:   cause.Error(),
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Failures.Save(ctx, f); err != nil {
		s.logger().Warn("record check failure", zap.Error(err))
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
