package postgres

import (
	"context"
	"database/sql"

	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

type FailureRepository struct{ db *sql.DB }

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

// Save records a skipped batch item and fills f.ID.
func (r *FailureRepository) Save(ctx context.Context, f *visibility.CheckFailure) error {
	const q = `
INSERT INTO check_failures ("projectId", engine, keyword, phase, message, "createdAt")
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id;`
	return r.db.QueryRowContext(ctx, q,
		f.ProjectID, f.Engine, f.Keyword, f.Phase, f.Message, f.CreatedAt,
	).Scan(&f.ID)
}

func (r *FailureRepository) ListByProject(ctx context.Context, projectID visibility.ProjectID, limit int) ([]*visibility.CheckFailure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, "projectId", engine, keyword, phase, message, "createdAt"
FROM check_failures
WHERE "projectId"=$1
ORDER BY "createdAt" DESC, id DESC
LIMIT $2;`
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
