package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

const checkColumns = `id, project_id, engine, keyword, presence, position, citations_count,
  observed_urls_json, competitors_json, answer_snippet, answer_url, checked_at`

type CheckRepository struct {
	db *sql.DB
}

func NewCheckRepository(db *sql.DB) *CheckRepository { return &CheckRepository{db: db} }

func (r *CheckRepository) Insert(ctx context.Context, c *visibility.Check) error {
	const q = `
INSERT INTO visibility_checks (` + checkColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?);`
	var position sql.NullInt64
	if c.Position != nil {
		position = sql.NullInt64{Int64: int64(*c.Position), Valid: true}
	}
	var answerURL sql.NullString
	if c.AnswerURL != "" {
		answerURL = sql.NullString{String: c.AnswerURL, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.ProjectID, c.Engine, c.Keyword, c.Presence, position, c.CitationsCount,
		encodeList(c.ObservedURLs), encodeList(c.CompetitorsMentioned), c.AnswerSnippet, answerURL,
		c.Timestamp,
	)
	return err
}

// Since returns checks newer than since, newest first.
func (r *CheckRepository) Since(ctx context.Context, projectID visibility.ProjectID, since time.Time) ([]*visibility.Check, error) {
	const q = `
SELECT ` + checkColumns + `
FROM visibility_checks
WHERE project_id = ? AND checked_at >= ?
ORDER BY checked_at DESC;`
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
		var urls, competitors string
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
		c.ObservedURLs = decodeList(urls)
		c.CompetitorsMentioned = decodeList(competitors)
		out = append(out, &c)
	}
	return out, rows.Err()
}
