package projects

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/aeo-tracker/internal/application"
	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
	"github.com/bryanwahyu/aeo-tracker/internal/middleware"
)

// Field limits
const (
	MaxNameLength    = 200
	MaxDomainLength  = 255
	MaxKeywords      = 100
	MaxKeywordLength = 300
	MaxCompetitors   = 50
)

// CreateProjectInput is the body of POST /projects.
type CreateProjectInput struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Domain      string   `json:"domain"`
	Keywords    []string `json:"keywords"`
	Competitors []string `json:"competitors"`
}

// UpdateProjectInput is the body of PATCH /projects/{id}. Nil fields are left unchanged.
// Brand is not editable.
type UpdateProjectInput struct {
	Name        *string   `json:"name"`
	Domain      *string   `json:"domain"`
	Keywords    *[]string `json:"keywords"`
	Competitors *[]string `json:"competitors"`
}

// Service handles project CRUD for the owning user.
type Service struct {
	Repo   visibility.ProjectRepository
	Clock  application.Clock
	Logger *zap.Logger
}

// Create validates and stores a new project for userID.
func (s *Service) Create(ctx context.Context, userID string, in CreateProjectInput) (*visibility.Project, error) {
	in = normalize(in)
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	p := &visibility.Project{
		ID:          visibility.ProjectID(uuid.New().String()),
		UserID:      userID,
		Name:        in.Name,
		Brand:       in.Brand,
		Domain:      in.Domain,
		Keywords:    in.Keywords,
		Competitors: in.Competitors,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger().Info("project created",
		zap.String("id", string(p.ID)),
		zap.String("brand", p.Brand),
		zap.String("user_id", userID),
		zap.Int("keywords", len(p.Keywords)),
	)
	return p, nil
}

// List returns the caller's projects, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*visibility.Project, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// Get returns a project owned by userID.
func (s *Service) Get(ctx context.Context, userID string, id visibility.ProjectID) (*visibility.Project, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, userID, id)
}

// Update applies the non-nil fields of in to a project owned by userID.
func (s *Service) Update(ctx context.Context, userID string, id visibility.ProjectID, in UpdateProjectInput) (*visibility.Project, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	candidate := CreateProjectInput{
		Name:        p.Name,
		Brand:       p.Brand,
		Domain:      p.Domain,
		Keywords:    p.Keywords,
		Competitors: p.Competitors,
	}
	if in.Name != nil {
		candidate.Name = *in.Name
	}
	if in.Domain != nil {
		candidate.Domain = *in.Domain
	}
	if in.Keywords != nil {
		candidate.Keywords = *in.Keywords
	}
	if in.Competitors != nil {
		candidate.Competitors = *in.Competitors
	}

	candidate = normalize(candidate)
	if err := validateInput(&candidate); err != nil {
		return nil, err
	}

	p.Name = candidate.Name
	p.Domain = candidate.Domain
	p.Keywords = candidate.Keywords
	p.Competitors = candidate.Competitors
	p.UpdatedAt = s.Clock.Now()

	if err := s.Repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger().Info("project updated", zap.String("id", string(p.ID)), zap.String("user_id", userID))
	return p, nil
}

// ValidateID rejects empty or malformed project ids before they reach the store.
func ValidateID(id visibility.ProjectID) error {
	if strings.TrimSpace(string(id)) == "" {
		return domain.NewValidation("projectId required")
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return domain.NewNotFound("Project not found")
	}
	return nil
}

func validateInput(in *CreateProjectInput) error {
	err := validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, MaxNameLength)),
		validation.Field(&in.Brand, validation.Required, validation.RuneLength(1, MaxNameLength)),
		validation.Field(&in.Domain, validation.RuneLength(0, MaxDomainLength)),
		validation.Field(&in.Keywords,
			validation.Required.Error("at least one keyword is required"),
			validation.Length(1, MaxKeywords),
			validation.Each(validation.RuneLength(1, MaxKeywordLength)),
		),
		validation.Field(&in.Competitors,
			validation.Length(0, MaxCompetitors),
			validation.Each(validation.RuneLength(1, MaxNameLength)),
		),
	)
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &domain.ValidationError{Message: "validation failed", Details: fields}
	}
	return err
}

func normalize(in CreateProjectInput) CreateProjectInput {
	in.Name = middleware.SanitizeString(in.Name)
	in.Brand = middleware.SanitizeString(in.Brand)
	in.Domain = middleware.SanitizeString(in.Domain)
	in.Keywords = dedupe(in.Keywords)
	in.Competitors = dedupe(in.Competitors)
	return in
}

// dedupe sanitizes entries, drops blanks and repeats, keeps first-seen order. Never nil.
func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, v := range list {
		v = middleware.SanitizeString(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
