package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

const checkColumns = `id, "projectId", engine, keyword, presence, position, "citationsCount",
       "observedUrls", "competitorsMentioned", "answerSnippet", "answerUrl", timestamp`

type CheckRepository struct{ db *sql.DB }

func NewCheckRepository(db *sql.DB) *CheckRepository { return &CheckRepository{db: db} }

// Insert appends a check. Checks are never updated.
func (r *CheckRepository) Insert(ctx context.Context, c *visibility.Check) error {
	const q = `
INSERT INTO visibility_checks (` + checkColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NULLIF($11,''),$12);`

	var position sql.NullInt64
	if c.Position != nil {
		position = sql.NullInt64{Int64: int64(*c.Position), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.ProjectID, c.Engine, c.Keyword, c.Presence, position, c.CitationsCount,
		pq.Array(c.ObservedURLs), pq.Array(c.CompetitorsMentioned), c.AnswerSnippet, c.AnswerURL,
		c.Timestamp,
	)
	return err
}

// Since returns checks newer than since, newest first.
func (r *CheckRepository) Since(ctx context.Context, projectID visibility.ProjectID, since time.Time) ([]*visibility.Check, error) {
	const q = `
SELECT ` + checkColumns + `
FROM visibility_checks
WHERE "projectId"=$1 AND timestamp >= $2
ORDER BY timestamp DESC;`
	rows, err := r.db.QueryContext(ctx, q, projectID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*visibility.Check{}
	for rows.Next() {
		var c visibility.Check
		var position sql.NullInt64
		var answerURL sql.NullString
		var urls, competitors pq.StringArray
		if err := rows.Scan(
			&c.ID, &c.ProjectID, &c.Engine, &c.Keyword, &c.Presence, &position, &c.CitationsCount,
			&urls, &competitors, &c.AnswerSnippet, &answerURL, &c.Timestamp,
		); err != nil {
			return nil, err
		}
		if position.Valid {
			v := int(position.Int64)
			c.Position = &v
		}
		c.AnswerURL = answerURL.String
		c.ObservedURLs = nonNil(urls)
		c.CompetitorsMentioned = nonNil(competitors)
		out = append(out, &c)
	}
	return out, rows.Err()
}
