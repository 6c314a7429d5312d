package research

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Completer sends a prompt to the generative-text provider.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds the configuration for the pipeline.
type Config struct {
	Logger  *slog.Logger
	LLM     Completer
	Prompts *Prompts
	Clock   clockwork.Clock
}

// Stage names one templated provider call.
type Stage string

const (
	StageResearcher Stage = "researcher"
	StageSummarizer Stage = "summarizer"
	StageCritic     Stage = "critic"
	StageWriter     Stage = "writer"
)

// State is the lifecycle state of a run. Completed and Failed are terminal.
type State string

const (
	StatePending     State = "pending"
	StateResearching State = "researching"
	StateSummarizing State = "summarizing"
	StateCritiquing  State = "critiquing"
	StateWriting     State = "writing"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// PipelineRun is one research request and every stage output it produced.
type PipelineRun struct {
	ID    string
	Topic string
	State State

	// Stage outputs, in production order.
	Research string
	Summary  string
	Critique string
	Report   string

	StartedAt   time.Time
	CompletedAt time.Time
}

// Progress is reported on every state transition of a run.
type Progress struct {
	RunID string
	State State
	Stage Stage // Empty for pending and completed
	Err   error // Set when State is failed
}

// ProgressCallback is called synchronously at each transition.
type ProgressCallback func(Progress)
