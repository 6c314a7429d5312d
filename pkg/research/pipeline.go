// Package research implements the research pipeline: four provider calls
// (researcher, summarizer, critic, writer) run strictly in sequence, each
// stage's output feeding the next, aggregated into a single PipelineRun.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// stage is one step of the pipeline. render reads only outputs stored by
// earlier stages.
type stage struct {
	name   Stage
	state  State
	render func(p *Prompts, run *PipelineRun) (string, error)
	store  func(run *PipelineRun, output string)
}

var stages = []stage{
	{
		name:   StageResearcher,
		state:  StateResearching,
		render: func(p *Prompts, run *PipelineRun) (string, error) { return p.Researcher(run.Topic) },
		store:  func(run *PipelineRun, output string) { run.Research = output },
	},
	{
		name:   StageSummarizer,
		state:  StateSummarizing,
		render: func(p *Prompts, run *PipelineRun) (string, error) { return p.Summarizer(run.Research) },
		store:  func(run *PipelineRun, output string) { run.Summary = output },
	},
	{
		name:   StageCritic,
		state:  StateCritiquing,
		render: func(p *Prompts, run *PipelineRun) (string, error) { return p.Critic(run.Summary) },
		store:  func(run *PipelineRun, output string) { run.Critique = output },
	},
	{
		name:  StageWriter,
		state: StateWriting,
		render: func(p *Prompts, run *PipelineRun) (string, error) {
			return p.Writer(WriterInput{Topic: run.Topic, Summary: run.Summary, Critique: run.Critique})
		},
		store: func(run *PipelineRun, output string) { run.Report = output },
	},
}

// Pipeline runs research requests. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	cfg   *Config
	clock clockwork.Clock
}

// logInfo logs an info message if a logger is configured.
func (p *Pipeline) logInfo(msg string, args ...any) {
	if p.cfg.Logger != nil {
		p.cfg.Logger.Info(msg, args...)
	}
}

// New creates a new Pipeline.
func New(cfg *Config) (*Pipeline, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	if cfg.Prompts == nil {
		return nil, fmt.Errorf("prompts are required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Pipeline{
		cfg:   cfg,
		clock: clock,
	}, nil
}

// Run executes the pipeline for topic.
func (p *Pipeline) Run(ctx context.Context, topic string) (*PipelineRun, error) {
	return p.RunWithProgress(ctx, topic, nil)
}

// RunWithProgress executes the pipeline for topic, reporting each state
// transition to onProgress. On failure no partial run is returned and the
// error is a *StageError naming the failed stage.
func (p *Pipeline) RunWithProgress(ctx context.Context, topic string, onProgress ProgressCallback) (*PipelineRun, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}

	run := &PipelineRun{
		ID:        uuid.NewString(),
		Topic:     topic,
		State:     StatePending,
		StartedAt: p.clock.Now(),
	}
	notify(onProgress, Progress{RunID: run.ID, State: run.State})
	p.logInfo("research: run started", "runID", run.ID, "topicLen", len(topic))

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, p.fail(run, s.name, err, onProgress)
		}

		run.State = s.state
		notify(onProgress, Progress{RunID: run.ID, State: run.State, Stage: s.name})

		prompt, err := s.render(p.cfg.Prompts, run)
		if err != nil {
			return nil, p.fail(run, s.name, err, onProgress)
		}

		start := p.clock.Now()
		output, err := p.cfg.LLM.Complete(ctx, prompt)
		duration := p.clock.Since(start)
		StageDuration.WithLabelValues(string(s.name)).Observe(duration.Seconds())
		if err != nil {
			return nil, p.fail(run, s.name, err, onProgress)
		}

		s.store(run, output)
		p.logInfo("research: stage completed", "runID", run.ID, "stage", s.name, "duration", duration, "outputLen", len(output))
	}

	run.State = StateCompleted
	run.CompletedAt = p.clock.Now()
	RunsTotal.WithLabelValues("completed").Inc()
	notify(onProgress, Progress{RunID: run.ID, State: run.State})
	p.logInfo("research: run completed", "runID", run.ID, "duration", run.CompletedAt.Sub(run.StartedAt))

	return run, nil
}

func (p *Pipeline) fail(run *PipelineRun, name Stage, err error, onProgress ProgressCallback) error {
	run.State = StateFailed
	run.CompletedAt = p.clock.Now()
	stageErr := &StageError{Stage: name, Err: err}

	StageFailuresTotal.WithLabelValues(string(name)).Inc()
	RunsTotal.WithLabelValues("failed").Inc()
	notify(onProgress, Progress{RunID: run.ID, State: run.State, Stage: name, Err: stageErr})
	if p.cfg.Logger != nil {
		p.cfg.Logger.Error("research: run failed", "runID", run.ID, "stage", name, "error", err)
	}

	return stageErr
}

func notify(onProgress ProgressCallback, progress Progress) {
	if onProgress != nil {
		onProgress(progress)
	}
}
