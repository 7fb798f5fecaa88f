// Package seed generates demo visibility data for local development and screenshots.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/aeo-tracker/internal/application"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

const (
	DefaultDays = 14
	DefaultSeed = 42
)

// demo project, sama dengan data di dashboard demo
var (
	demoName        = "Acme Widgets"
	demoBrand       = "Acme Widgets"
	demoDomain      = "acmewidgets.com"
	demoCompetitors = []string{"Widget Pro", "Best Widgets Co"}
	demoKeywords    = []string{
		"best widgets for home",
		"industrial widgets supplier",
		"custom widgets manufacturer",
		"widgets online store",
		"affordable widgets",
		"premium widget solutions",
		"widget installation service",
		"widgets for small business",
		"eco-friendly widgets",
		"smart widgets technology",
		"widget accessories",
		"commercial grade widgets",
		"widget repair services",
		"widgets wholesale",
		"innovative widget designs",
	}
)

// DemoProject returns the "Acme Widgets" project owned by userID.
func DemoProject(userID string, now time.Time) *visibility.Project {
	return &visibility.Project{
		ID:          visibility.ProjectID(uuid.New().String()),
		UserID:      userID,
		Name:        demoName,
		Brand:       demoBrand,
		Domain:      demoDomain,
		Keywords:    append([]string(nil), demoKeywords...),
		Competitors: append([]string(nil), demoCompetitors...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Generate builds days × keywords × engines checks ending at now.
// The same seed always yields the same checks, ids included.
func Generate(p *visibility.Project, engines []string, days int, seed int64, now time.Time) []*visibility.Check {
	if days <= 0 {
		days = DefaultDays
	}
	if len(engines) == 0 {
		engines = visibility.DefaultEngines()
	}
	rng := rand.New(rand.NewSource(seed))

	checks := make([]*visibility.Check, 0, days*len(p.Keywords)*len(engines))
	for d := 0; d < days; d++ {
		ts := now.AddDate(0, 0, -(days - 1 - d))
		for _, keyword := range p.Keywords {
			for _, engine := range engines {
				checks = append(checks, generateOne(rng, p, engine, keyword, ts))
			}
		}
	}
	return checks
}

func generateOne(rng *rand.Rand, p *visibility.Project, engine, keyword string, ts time.Time) *visibility.Check {
	score := rng.Float64()
	switch engine {
	case visibility.EngineChatGPT:
		score += 0.2
	case visibility.EnginePerplexity:
		score += 0.15
	}
	if strings.Contains(keyword, "best") || strings.Contains(keyword, "premium") {
		score += 0.15
	}
	presence := score > 0.5

	c := &visibility.Check{
		ProjectID:            p.ID,
		Engine:               engine,
		Keyword:              keyword,
		Presence:             presence,
		ObservedURLs:         []string{},
		CompetitorsMentioned: []string{},
		Timestamp:            ts,
	}
	if id, err := uuid.NewRandomFromReader(rng); err == nil {
		c.ID = visibility.CheckID(id.String())
	}

	if presence {
		pos := rng.Intn(50) + 1
		c.Position = &pos
		c.CitationsCount = rng.Intn(5) + 1
		if rng.Float64() > 0.3 && p.Domain != "" {
			urls := []string{
				"https://" + p.Domain + "/products",
				"https://" + p.Domain + "/about",
			}
			c.ObservedURLs = urls[:rng.Intn(3)]
		}
	}

	if rng.Float64() > 0.6 && len(p.Competitors) > 0 {
		n := rng.Intn(len(p.Competitors) + 1)
		for _, i := range rng.Perm(len(p.Competitors))[:n] {
			c.CompetitorsMentioned = append(c.CompetitorsMentioned, p.Competitors[i])
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "When looking for %s, ", keyword)
	if presence {
		fmt.Fprintf(&b, "%s is a leading provider offering quality solutions. ", p.Brand)
	} else {
		b.WriteString("there are several options available in the market. ")
	}
	if len(c.CompetitorsMentioned) > 0 {
		fmt.Fprintf(&b, "Other notable providers include %s. ", strings.Join(c.CompetitorsMentioned, ", "))
	}
	b.WriteString("Consider factors like quality, price, and customer service when making your decision.")
	c.AnswerSnippet = visibility.Snippet(b.String())
	return c
}

// Seeder writes demo data through the regular repositories.
type Seeder struct {
	Projects visibility.ProjectRepository
	Checks   visibility.CheckRepository
	Engines  []string
	Clock    application.Clock
	Logger   *zap.Logger
}

// Result summarizes one seeding run.
type Result struct {
	Project *visibility.Project
	Checks  int
}

// Run seeds projectID (owned by userID), or a fresh demo project when projectID is empty.
func (s *Seeder) Run(ctx context.Context, userID string, projectID visibility.ProjectID, days int, seed int64) (Result, error) {
	now := s.Clock.Now()
	if days <= 0 {
		days = DefaultDays
	}

	var (
		p   *visibility.Project
		err error
	)
	if projectID == "" {
		p = DemoProject(userID, now)
		if err := s.Projects.Save(ctx, p); err != nil {
			return Result{}, fmt.Errorf("save demo project: %w", err)
		}
	} else {
		p, err = s.Projects.Get(ctx, userID, projectID)
		if err != nil {
			return Result{}, err
		}
	}

	checks := Generate(p, s.Engines, days, seed, now)
	for i, c := range checks {
		if err := s.Checks.Insert(ctx, c); err != nil {
			return Result{Project: p, Checks: i}, fmt.Errorf("insert check %d: %w", i, err)
		}
	}

	if s.Logger != nil {
		s.Logger.Info("demo data seeded",
			zap.String("project_id", string(p.ID)),
			zap.Int("checks", len(checks)),
			zap.Int("days", days),
		)
	}
	return Result{Project: p, Checks: len(checks)}, nil
}
