package visibility

import (
	"context"
	"time"
)

// ProjectRepository port (persistence untuk Project)
type ProjectRepository interface {
	Save(ctx context.Context, p *Project) error
	// Get returns domain.ErrNotFound when the project does not exist for that user.
	Get(ctx context.Context, userID string, id ProjectID) (*Project, error)
	ListByUser(ctx context.Context, userID string) ([]*Project, error)
	ListAll(ctx context.Context) ([]*Project, error)
}

// CheckRepository port (persistence untuk VisibilityCheck)
type CheckRepository interface {
	Insert(ctx context.Context, c *Check) error
	// Since returns checks of a project with timestamp >= since, newest first.
	Since(ctx context.Context, projectID ProjectID, since time.Time) ([]*Check, error)
}

// FailureRepository persists skipped batch items.
type FailureRepository interface {
	Save(ctx context.Context, f *CheckFailure) error
	ListByProject(ctx context.Context, projectID ProjectID, limit int) ([]*CheckFailure, error)
}

// AnswerArchive stores the full generated answer and returns its location.
type AnswerArchive interface {
	PutAnswer(ctx context.Context, key, answer string) (string, error)
}
