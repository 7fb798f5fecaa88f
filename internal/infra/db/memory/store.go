// Package memory is a process-local store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

// Store implements the project, check and failure repositories.
type Store struct {
	mu        sync.RWMutex
	projects  map[visibility.ProjectID]*visibility.Project
	checks    []*visibility.Check
	failures  []*visibility.CheckFailure
	failureID int64
}

func NewStore() *Store {
	return &Store{projects: make(map[visibility.ProjectID]*visibility.Project)}
}

// Projects returns the store as a ProjectRepository.
func (s *Store) Projects() visibility.ProjectRepository { return projectRepo{s} }

// Checks returns the store as a CheckRepository.
func (s *Store) Checks() visibility.CheckRepository { return checkRepo{s} }

// Failures returns the store as a FailureRepository.
func (s *Store) Failures() visibility.FailureRepository { return failureRepo{s} }

// Ping always succeeds; used by the health checker.
func (s *Store) Ping(context.Context) error { return nil }

type projectRepo struct{ s *Store }

func (r projectRepo) Save(_ context.Context, p *visibility.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.projects[p.ID] = cloneProject(p)
	return nil
}

func (r projectRepo) Get(_ context.Context, userID string, id visibility.ProjectID) (*visibility.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok || p.UserID != userID {
		return nil, domain.NewNotFound("Project not found")
	}
	return cloneProject(p), nil
}

func (r projectRepo) ListByUser(_ context.Context, userID string) ([]*visibility.Project, error) {
	return r.list(func(p *visibility.Project) bool { return p.UserID == userID }), nil
}

func (r projectRepo) ListAll(context.Context) ([]*visibility.Project, error) {
	return r.list(func(*visibility.Project) bool { return true }), nil
}

// list returns matches newest first.
func (r projectRepo) list(keep func(*visibility.Project) bool) []*visibility.Project {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*visibility.Project{}
	for _, p := range r.s.projects {
		if keep(p) {
			out = append(out, cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type checkRepo struct{ s *Store }

func (r checkRepo) Insert(_ context.Context, c *visibility.Check) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.checks = append(r.s.checks, &cp)
	return nil
}

func (r checkRepo) Since(_ context.Context, projectID visibility.ProjectID, since time.Time) ([]*visibility.Check, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*visibility.Check{}
	for _, c := range r.s.checks {
		if c.ProjectID == projectID && !c.Timestamp.Before(since) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

type failureRepo struct{ s *Store }

func (r failureRepo) Save(_ context.Context, f *visibility.CheckFailure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.failureID++
	f.ID = r.s.failureID
	cp := *f
	r.s.failures = append(r.s.failures, &cp)
	return nil
}

func (r failureRepo) ListByProject(_ context.Context, projectID visibility.ProjectID, limit int) ([]*visibility.CheckFailure, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*visibility.CheckFailure{}
	for i := len(r.s.failures) - 1; i >= 0; i-- {
		f := r.s.failures[i]
		if f.ProjectID != projectID {
			continue
		}
		cp := *f
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func cloneProject(p *visibility.Project) *visibility.Project {
	cp := *p
	cp.Keywords = cloneStrings(p.Keywords)
	cp.Competitors = cloneStrings(p.Competitors)
	return &cp
}

// cloneStrings copies a list; nil and empty both come back as an empty, non-nil slice.
func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
