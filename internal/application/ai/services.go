package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bryanwahyu/aeo-tracker/internal/domain/ai"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/ai/prompt"
)

// DefaultTimeout bounds a single engine call.
const DefaultTimeout = 60 * time.Second

// Probe is one engine answer plus its mention analysis.
type Probe struct {
	Engine   string
	Keyword  string
	Answer   string
	Analysis visibility.Analysis
}

// Service keeps the engine label -> generator registry.
// Safe for concurrent use once registration is done.
type Service struct {
	mu           sync.RWMutex
	generators   map[string]ai.Generator
	order        []string
	systemPrompt string
	timeout      time.Duration
}

func NewService(systemPrompt string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		generators:   make(map[string]ai.Generator),
		systemPrompt: prompt.System(systemPrompt),
		timeout:      timeout,
	}
}

// Register binds an engine label to a generator. Re-registering replaces the
// generator but keeps the original position.
func (s *Service) Register(engine string, g ai.Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generators[engine]; !ok {
		s.order = append(s.order, engine)
	}
	s.generators[engine] = g
}

// Engines returns labels in registration order.
func (s *Service) Engines() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Check asks one engine about one keyword and analyzes the answer for the brand.
func (s *Service) Check(ctx context.Context, engine, keyword, brand string, competitors []string) (Probe, error) {
	s.mu.RLock()
	gen, ok := s.generators[engine]
	s.mu.RUnlock()
	if !ok {
		return Probe{}, fmt.Errorf("%w: %s", ai.ErrUnknownEngine, engine)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := gen.Generate(callCtx, s.systemPrompt, prompt.ForKeyword(keyword))
	if err != nil {
		return Probe{}, fmt.Errorf("%s: %w", engine, err)
	}

	return Probe{
		Engine:   engine,
		Keyword:  keyword,
		Answer:   answer,
		Analysis: visibility.Analyze(answer, brand, competitors),
	}, nil
}
