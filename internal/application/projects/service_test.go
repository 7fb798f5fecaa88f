package projects

import (
	"context"
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/aeo-tracker/internal/application"
	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/db/memory"
)

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newService() *Service {
	return &Service{Repo: memory.NewStore().Projects(), Clock: application.FixedClock(now)}
}

func validInput() CreateProjectInput {
	return CreateProjectInput{
		Name:        "  Acme Widgets ",
		Brand:       "Acme",
		Domain:      "acmewidgets.com",
		Keywords:    []string{"best widgets", " best widgets", "", "widget reviews"},
		Competitors: []string{"Widget Pro", "Widget Pro", "Gadget Inc"},
	}
}

func TestCreate_NormalizesInput(t *testing.T) {
	svc := newService()

	p, err := svc.Create(context.Background(), "u1", validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Acme Widgets", p.Name)
	assert.Equal(t, []string{"best widgets", "widget reviews"}, p.Keywords)
	assert.Equal(t, []string{"Widget Pro", "Gadget Inc"}, p.Competitors)
	assert.Equal(t, now, p.CreatedAt)

	got, err := svc.Get(context.Background(), "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*CreateProjectInput)
		field string
	}{
		{"missing name", func(in *CreateProjectInput) { in.Name = "   " }, "name"},
		{"missing brand", func(in *CreateProjectInput) { in.Brand = "" }, "brand"},
		{"no keywords", func(in *CreateProjectInput) { in.Keywords = nil }, "keywords"},
		{"only blank keywords", func(in *CreateProjectInput) { in.Keywords = []string{" ", ""} }, "keywords"},
		{"keyword too long", func(in *CreateProjectInput) { in.Keywords = []string{strings.Repeat("k", MaxKeywordLength+1)} }, "keywords"},
		{"too many competitors", func(in *CreateProjectInput) {
			in.Competitors = nil
			for i := 0; i <= MaxCompetitors; i++ {
				in.Competitors = append(in.Competitors, strings.Repeat("c", i+1))
			}
		}, "competitors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mut(&in)

			_, err := newService().Create(context.Background(), "u1", in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			fields, ok := verr.Details.(validation.Errors)
			require.True(t, ok)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestList_OnlyCallersProjectsNewestFirst(t *testing.T) {
	store := memory.NewStore()
	svc := &Service{Repo: store.Projects(), Clock: application.FixedClock(now)}
	older, err := svc.Create(context.Background(), "u1", validInput())
	require.NoError(t, err)

	svc.Clock = application.FixedClock(now.Add(time.Hour))
	newer, err := svc.Create(context.Background(), "u1", validInput())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "u2", validInput())
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestGet_Ownership(t *testing.T) {
	svc := newService()
	p, err := svc.Create(context.Background(), "u1", validInput())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "u2", p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(context.Background(), "u1", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Get(context.Background(), "u1", "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	svc := newService()
	p, err := svc.Create(context.Background(), "u1", validInput())
	require.NoError(t, err)

	svc.Clock = application.FixedClock(now.Add(time.Minute))
	keywords := []string{"widget subscription", "widget subscription"}
	updated, err := svc.Update(context.Background(), "u1", p.ID, UpdateProjectInput{Keywords: &keywords})
	require.NoError(t, err)

	assert.Equal(t, []string{"widget subscription"}, updated.Keywords)
	assert.Equal(t, "Acme Widgets", updated.Name)
	assert.Equal(t, "Acme", updated.Brand)
	assert.Equal(t, now.Add(time.Minute), updated.UpdatedAt)
	assert.Equal(t, now, updated.CreatedAt)

	t.Run("other user", func(t *testing.T) {
		name := "Hijack"
		_, err := svc.Update(context.Background(), "u2", p.ID, UpdateProjectInput{Name: &name})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("emptying keywords rejected", func(t *testing.T) {
		empty := []string{}
		_, err := svc.Update(context.Background(), "u1", p.ID, UpdateProjectInput{Keywords: &empty})
		assert.ErrorIs(t, err, domain.ErrValidation)

		stored, err := svc.Get(context.Background(), "u1", p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"widget subscription"}, stored.Keywords)
	})
}

func TestCreate_StripsControlBytes(t *testing.T) {
	svc := newService()
	in := validInput()
	in.Name = "Acme\x00 Widgets\x07"
	in.Brand = " \x1bAcme"
	in.Keywords = []string{"best\x00 widgets", "best widgets", "\x07"}
	in.Competitors = []string{"Widget\x1b Pro"}

	p, err := svc.Create(context.Background(), "u1", in)
	require.NoError(t, err)

	assert.Equal(t, "Acme Widgets", p.Name)
	assert.Equal(t, "Acme", p.Brand)
	assert.Equal(t, []string{"best widgets"}, p.Keywords)
	assert.Equal(t, []string{"Widget Pro"}, p.Competitors)
}

func TestDedupeNeverNil(t *testing.T) {
	assert.NotNil(t, dedupe(nil))
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{" a", "b ", "a"}))
}
