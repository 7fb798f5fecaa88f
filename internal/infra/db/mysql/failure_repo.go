package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

func (r *FailureRepository) Save(ctx context.Context, f *visibility.CheckFailure) error {
	const q = `
INSERT INTO check_failures
  (project_id, engine, keyword, phase, message, created_at)
VALUES (?,?,?,?,?,?)
`
	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, q,
		f.ProjectID, dashIfEmpty(f.Engine), dashIfEmpty(f.Keyword), dashIfEmpty(f.Phase), msg, created)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		f.ID = id
	}
	return nil
}

func (r *FailureRepository) ListByProject(ctx context.Context, projectID visibility.ProjectID, limit int) ([]*visibility.CheckFailure, error) {
	if limit <= 0 { limit = 20 }
	const q = `
SELECT id, project_id, engine, keyword, phase, message, created_at
FROM check_failures
WHERE project_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*visibility.CheckFailure{}
	for rows.Next() {
		var f visibility.CheckFailure
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Engine, &f.Keyword, &f.Phase, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
