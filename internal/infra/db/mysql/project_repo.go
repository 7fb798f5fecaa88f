package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

const projectColumns = `id, user_id, name, brand, domain, keywords_json, competitors_json, created_at, updated_at`

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository { return &ProjectRepository{db: db} }

// Save insert/update Project record
func (r *ProjectRepository) Save(ctx context.Context, p *visibility.Project) error {
	const q = `
INSERT INTO projects (` + projectColumns + `)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  name = VALUES(name),
  domain = VALUES(domain),
  keywords_json = VALUES(keywords_json),
  competitors_json = VALUES(competitors_json),
  updated_at = VALUES(updated_at);`
	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.UserID, p.Name, p.Brand, p.Domain,
		encodeList(p.Keywords), encodeList(p.Competitors),
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// Get by ID + owner
func (r *ProjectRepository) Get(ctx context.Context, userID string, id visibility.ProjectID) (*visibility.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id = ? AND user_id = ? LIMIT 1;`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("Project not found")
	}
	return p, err
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]*visibility.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE user_id = ? ORDER BY created_at DESC;`
	return r.list(ctx, q, userID)
}

func (r *ProjectRepository) ListAll(ctx context.Context) ([]*visibility.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC;`
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

func scanProject(row interface{ Scan(...any) error }) (*visibility.Project, error) {
	var p visibility.Project
	var domainName sql.NullString
	var keywords, competitors string
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Brand, &domainName,
		&keywords, &competitors,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Domain = domainName.String
	p.Keywords = decodeList(keywords)
	p.Competitors = decodeList(competitors)
	return &p, nil
}
