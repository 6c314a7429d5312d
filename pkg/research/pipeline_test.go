package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// recordingCompleter answers each call with a per-stage marker and records
// the prompts it received, in order.
type recordingCompleter struct {
	mu      sync.Mutex
	prompts []string
	failAt  int // 1-based call index to fail at; 0 never fails
	err     error
}

func (c *recordingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	n := len(c.prompts)
	if n == c.failAt {
		return "", c.err
	}
	return fmt.Sprintf("OUTPUT-%d", n), nil
}

func (c *recordingCompleter) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

func newTestPipeline(t *testing.T, llm Completer, clock clockwork.Clock) *Pipeline {
	t.Helper()
	prompts, err := LoadPrompts()
	require.NoError(t, err)
	p, err := New(&Config{
		Logger:  slog.New(slog.NewTextHandler(os.Stderr, nil)),
		LLM:     llm,
		Prompts: prompts,
		Clock:   clock,
	})
	require.NoError(t, err)
	return p
}

func TestResearchChat_Research_New_RequiredFields(t *testing.T) {
	t.Parallel()

	prompts, err := LoadPrompts()
	require.NoError(t, err)

	_, err = New(&Config{Prompts: prompts})
	require.EqualError(t, err, "LLM client is required")

	_, err = New(&Config{LLM: &recordingCompleter{}})
	require.EqualError(t, err, "prompts are required")
}

func TestResearchChat_Research_Run_StagesInOrder(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	llm := &recordingCompleter{}
	p := newTestPipeline(t, llm, clock)

	run, err := p.Run(context.Background(), "quantum computing")
	require.NoError(t, err)

	want := &PipelineRun{
		Topic:       "quantum computing",
		State:       StateCompleted,
		Research:    "OUTPUT-1",
		Summary:     "OUTPUT-2",
		Critique:    "OUTPUT-3",
		Report:      "OUTPUT-4",
		StartedAt:   start,
		CompletedAt: start,
	}
	if diff := cmp.Diff(want, run, cmpopts.IgnoreFields(PipelineRun{}, "ID")); diff != "" {
		t.Fatalf("unexpected run (-want +got):\n%s", diff)
	}
	require.NotEmpty(t, run.ID)

	prompts := llm.Prompts()
	require.Len(t, prompts, 4)

	expected, err := p.cfg.Prompts.Researcher("quantum computing")
	require.NoError(t, err)
	require.Equal(t, expected, prompts[0])

	expected, err = p.cfg.Prompts.Summarizer("OUTPUT-1")
	require.NoError(t, err)
	require.Equal(t, expected, prompts[1])

	expected, err = p.cfg.Prompts.Critic("OUTPUT-2")
	require.NoError(t, err)
	require.Equal(t, expected, prompts[2])

	require.Contains(t, prompts[3], "quantum computing")
	require.Contains(t, prompts[3], "OUTPUT-2")
	require.Contains(t, prompts[3], "OUTPUT-3")
	require.NotContains(t, prompts[3], "OUTPUT-1")
}

func TestResearchChat_Research_Run_ProgressTransitions(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &recordingCompleter{}, nil)

	var got []Progress
	run, err := p.RunWithProgress(context.Background(), "topic", func(pr Progress) {
		got = append(got, pr)
	})
	require.NoError(t, err)

	want := []Progress{
		{RunID: run.ID, State: StatePending},
		{RunID: run.ID, State: StateResearching, Stage: StageResearcher},
		{RunID: run.ID, State: StateSummarizing, Stage: StageSummarizer},
		{RunID: run.ID, State: StateCritiquing, Stage: StageCritic},
		{RunID: run.ID, State: StateWriting, Stage: StageWriter},
		{RunID: run.ID, State: StateCompleted},
	}
	require.Equal(t, want, got)
}

func TestResearchChat_Research_Run_StageFailureShortCircuits(t *testing.T) {
	t.Parallel()

	order := []Stage{StageResearcher, StageSummarizer, StageCritic, StageWriter}
	for k, failing := range order {
		t.Run(string(failing), func(t *testing.T) {
			t.Parallel()

			cause := errors.New("upstream 500")
			llm := &recordingCompleter{failAt: k + 1, err: cause}
			p := newTestPipeline(t, llm, nil)

			var last Progress
			run, err := p.RunWithProgress(context.Background(), "topic", func(pr Progress) { last = pr })
			require.Nil(t, run)
			require.ErrorIs(t, err, cause)

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			require.Equal(t, failing, stageErr.Stage)
			require.Equal(t, fmt.Sprintf("research stage %s failed: upstream 500", failing), err.Error())

			require.Len(t, llm.Prompts(), k+1, "no stage may run after the failing one")
			require.Equal(t, StateFailed, last.State)
			require.Equal(t, failing, last.Stage)
			require.ErrorIs(t, last.Err, cause)
		})
	}
}

func TestResearchChat_Research_Run_EmptyTopic(t *testing.T) {
	t.Parallel()

	llm := &recordingCompleter{}
	p := newTestPipeline(t, llm, nil)

	for _, topic := range []string{"", "   ", "\n\t"} {
		run, err := p.Run(context.Background(), topic)
		require.Nil(t, run)
		require.ErrorIs(t, err, ErrEmptyTopic)
	}
	require.Empty(t, llm.Prompts())
}

type cancellingCompleter struct {
	recordingCompleter
	cancel context.CancelFunc
}

func (c *cancellingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := c.recordingCompleter.Complete(ctx, prompt)
	c.cancel()
	return out, err
}

func TestResearchChat_Research_Run_CancelledContextStopsBeforeNextStage(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	llm := &cancellingCompleter{cancel: cancel}
	p := newTestPipeline(t, llm, nil)

	run, err := p.Run(ctx, "topic")
	require.Nil(t, run)
	require.ErrorIs(t, err, context.Canceled)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageSummarizer, stageErr.Stage)
	require.Len(t, llm.Prompts(), 1)
}

func TestResearchChat_Research_Run_NoMemoization(t *testing.T) {
	t.Parallel()

	llm := &recordingCompleter{}
	p := newTestPipeline(t, llm, nil)

	first, err := p.Run(context.Background(), "same topic")
	require.NoError(t, err)
	second, err := p.Run(context.Background(), "same topic")
	require.NoError(t, err)

	require.Len(t, llm.Prompts(), 8)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, "OUTPUT-8", second.Report)
}

func TestResearchChat_Research_Run_ConcurrentRunsAreIndependent(t *testing.T) {
	t.Parallel()

	llm := &echoCompleter{}
	p := newTestPipeline(t, llm, nil)

	const n = 8
	var wg sync.WaitGroup
	runs := make([]*PipelineRun, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			runs[i], errs[i] = p.Run(context.Background(), fmt.Sprintf("topic-%d", i))
		}(i)
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		topic := fmt.Sprintf("topic-%d", i)
		require.Equal(t, topic, runs[i].Topic)
		require.True(t, strings.Contains(runs[i].Report, topic), "report for %s leaked from another run", topic)
	}
}

// echoCompleter returns the last line of the prompt that mentions a topic,
// so each run's outputs carry its own topic through every stage.
type echoCompleter struct{}

func (echoCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	for _, line := range strings.Split(prompt, "\n") {
		if strings.Contains(line, "topic-") {
			return strings.TrimSpace(line), nil
		}
	}
	return "", errors.New("no topic in prompt")
}

// Not parallel: the counters are process-wide and other tests fail stages.
func TestResearchChat_Research_Run_FailureMetrics(t *testing.T) {
	stageFailures := StageFailuresTotal.WithLabelValues(string(StageCritic))
	failedRuns := RunsTotal.WithLabelValues("failed")
	completedRuns := RunsTotal.WithLabelValues("completed")
	beforeStage := testutil.ToFloat64(stageFailures)
	beforeFailed := testutil.ToFloat64(failedRuns)
	beforeCompleted := testutil.ToFloat64(completedRuns)

	llm := &recordingCompleter{failAt: 3, err: errors.New("upstream 500")}
	p := newTestPipeline(t, llm, nil)
	_, err := p.Run(context.Background(), "topic")
	require.Error(t, err)

	require.Equal(t, beforeStage+1, testutil.ToFloat64(stageFailures))
	require.Equal(t, beforeFailed+1, testutil.ToFloat64(failedRuns))
	require.Equal(t, beforeCompleted, testutil.ToFloat64(completedRuns))

	_, err = newTestPipeline(t, &recordingCompleter{}, nil).Run(context.Background(), "topic")
	require.NoError(t, err)
	require.Equal(t, beforeCompleted+1, testutil.ToFloat64(completedRuns))
	require.Equal(t, beforeStage+1, testutil.ToFloat64(stageFailures))
}
