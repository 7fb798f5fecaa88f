package visibility

import "time"

// ProjectID tipe untuk Project
type ProjectID string

// CheckID tipe untuk VisibilityCheck
type CheckID string

// Default engine set, same labels as the dashboard.
const (
	EngineChatGPT    = "ChatGPT"
	EnginePerplexity = "Perplexity"
	EngineGemini     = "Gemini"
	EngineClaude     = "Claude"
)

// DefaultEngines returns the engine names probed when nothing is configured.
func DefaultEngines() []string {
	return []string{EngineChatGPT, EnginePerplexity, EngineGemini, EngineClaude}
}

// Project is a brand being tracked, owned by exactly one user.
type Project struct {
	ID          ProjectID `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Domain      string    `json:"domain"`
	Keywords    []string  `json:"keywords"`
	Competitors []string  `json:"competitors"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Check is one (keyword, engine) probe. Never mutated after creation.
type Check struct {
	ID                   CheckID   `json:"id"`
	ProjectID            ProjectID `json:"projectId"`
	Engine               string    `json:"engine"`
	Keyword              string    `json:"keyword"`
	Presence             bool      `json:"presence"`
	Position             *int      `json:"position"`
	CitationsCount       int       `json:"citationsCount"`
	ObservedURLs         []string  `json:"observedUrls"`
	CompetitorsMentioned []string  `json:"competitorsMentioned"`
	AnswerSnippet        string    `json:"answerSnippet"`
	AnswerURL            string    `json:"answerUrl,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

// Failure phases
const (
	PhaseGenerate = "generate"
	PhasePersist  = "persist"
)

// CheckFailure records a batch item that was skipped during a run.
type CheckFailure struct {
	ID        int64     `json:"id"`
	ProjectID ProjectID `json:"projectId"`
	Engine    string    `json:"engine"`
	Keyword   string    `json:"keyword"`
	Phase     string    `json:"phase"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
