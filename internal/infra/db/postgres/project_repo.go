package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

// Columns follow the Supabase schema: quoted camelCase, text[] lists.
const projectColumns = `id, "userId", name, brand, domain, keywords, competitors, "createdAt", "updatedAt"`

type ProjectRepository struct{ db *sql.DB }

func NewProjectRepository(db *sql.DB) *ProjectRepository { return &ProjectRepository{db: db} }

// Save insert/update Project record
func (r *ProjectRepository) Save(ctx context.Context, p *visibility.Project) error {
	const q = `
INSERT INTO projects (` + projectColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
 name = EXCLUDED.name,
 domain = EXCLUDED.domain,
 keywords = EXCLUDED.keywords,
 competitors = EXCLUDED.competitors,
 "updatedAt" = EXCLUDED."updatedAt";`

	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.UserID, p.Name, p.Brand, p.Domain,
		pq.Array(p.Keywords), pq.Array(p.Competitors),
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// Get by ID + owner
func (r *ProjectRepository) Get(ctx context.Context, userID string, id visibility.ProjectID) (*visibility.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id=$1 AND "userId"=$2 LIMIT 1;`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("Project not found")
	}
	return p, err
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]*visibility.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE "userId"=$1 ORDER BY "createdAt" DESC;`
	return r.list(ctx, q, userID)
}

func (r *ProjectRepository) ListAll(ctx context.Context) ([]*visibility.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects ORDER BY "createdAt" DESC;`
	return r.list(ctx, q)
}

func (r *ProjectRepository) list(ctx context.Context, q string, args ...any) ([]*visibility.Project, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*visibility.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*visibility.Project, error) {
	var p visibility.Project
	var domainName sql.NullString
	var keywords, competitors pq.StringArray
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Brand, &domainName,
		&keywords, &competitors,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Domain = domainName.String
	p.Keywords = nonNil(keywords)
	p.Competitors = nonNil(competitors)
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
