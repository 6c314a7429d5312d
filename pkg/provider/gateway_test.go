package provider

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mockClient struct {
	GenerateFunc   func(ctx context.Context, turns []Turn) (string, error)
	ListModelsFunc func(ctx context.Context) ([]string, error)
	calls          atomic.Int32
}

func (m *mockClient) Generate(ctx context.Context, turns []Turn) (string, error) {
	m.calls.Add(1)
	return m.GenerateFunc(ctx, turns)
}

func (m *mockClient) ListModels(ctx context.Context) ([]string, error) {
	m.calls.Add(1)
	return m.ListModelsFunc(ctx)
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestResearchChat_Provider_Gateway_Complete_ReturnsTextUnchanged(t *testing.T) {
	t.Parallel()

	client := &mockClient{GenerateFunc: func(ctx context.Context, turns []Turn) (string, error) {
		require.Equal(t, []Turn{{Role: RoleUser, Content: "hello"}}, turns)
		return "  raw completion\n", nil
	}}
	g := NewGateway(testLogger(t), KindOpenAI, client, time.Second)

	got, err := g.Complete(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "  raw completion\n", got)
	require.True(t, g.Configured())
	require.Equal(t, KindOpenAI, g.Kind())
}

func TestResearchChat_Provider_Gateway_Complete_EmptyCompletionIsNotAnError(t *testing.T) {
	t.Parallel()

	client := &mockClient{GenerateFunc: func(ctx context.Context, turns []Turn) (string, error) {
		return "", nil
	}}
	g := NewGateway(testLogger(t), KindAnthropic, client, time.Second)

	got, err := g.Complete(context.Background(), "hello")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestResearchChat_Provider_Gateway_EmptyPrompt(t *testing.T) {
	t.Parallel()

	client := &mockClient{GenerateFunc: func(ctx context.Context, turns []Turn) (string, error) {
		return "unexpected", nil
	}}
	g := NewGateway(testLogger(t), KindGemini, client, time.Second)

	_, err := g.Complete(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = g.Chat(context.Background(), nil, "")
	require.ErrorIs(t, err, ErrEmptyPrompt)

	require.Zero(t, client.calls.Load())
}

func TestResearchChat_Provider_Gateway_NotConfigured(t *testing.T) {
	t.Parallel()

	g := NewGateway(testLogger(t), Kind("bogus"), nil, 0)
	require.False(t, g.Configured())

	_, err := g.Complete(context.Background(), "hello")
	require.ErrorIs(t, err, ErrProviderNotConfigured)
	require.NotErrorIs(t, err, ErrProviderRequestFailed)
}

func TestResearchChat_Provider_Gateway_RequestFailed(t *testing.T) {
	t.Parallel()

	cause := errors.New("status 503")
	client := &mockClient{GenerateFunc: func(ctx context.Context, turns []Turn) (string, error) {
		return "", cause
	}}
	g := NewGateway(testLogger(t), KindAnthropic, client, time.Second)

	_, err := g.Complete(context.Background(), "hello")
	require.ErrorIs(t, err, ErrProviderRequestFailed)
	require.ErrorIs(t, err, cause)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, KindAnthropic, reqErr.Provider)
	require.Contains(t, err.Error(), "anthropic request failed: status 503")
	require.Equal(t, int32(1), client.calls.Load())
}

func TestResearchChat_Provider_Gateway_Timeout(t *testing.T) {
	t.Parallel()

	client := &mockClient{GenerateFunc: func(ctx context.Context, turns []Turn) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := NewGateway(testLogger(t), KindGemini, client, 20*time.Millisecond)

	_, err := g.Complete(context.Background(), "hello")
	require.ErrorIs(t, err, ErrProviderRequestFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Contains(t, err.Error(), "timed out after 20ms")
}

func TestResearchChat_Provider_Gateway_CallerCancellationAbortsCall(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	client := &mockClient{GenerateFunc: func(ctx context.Context, turns []Turn) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := NewGateway(testLogger(t), KindGemini, client, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := g.Complete(ctx, "hello")
		errCh <- err
	}()

	<-started
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
		require.NotContains(t, err.Error(), "timed out")
	case <-time.After(5 * time.Second):
		t.Fatal("call was not aborted by cancellation")
	}
}

func TestResearchChat_Provider_Gateway_ChatPreservesHistory(t *testing.T) {
	t.Parallel()

	history := []Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello, how can I help?"},
	}
	original := append([]Turn(nil), history...)

	client := &mockClient{GenerateFunc: func(ctx context.Context, turns []Turn) (string, error) {
		require.Equal(t, []Turn{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello, how can I help?"},
			{Role: RoleUser, Content: "what is Go?"},
		}, turns)
		return "a language", nil
	}}
	g := NewGateway(testLogger(t), KindOpenAI, client, time.Second)

	got, err := g.Chat(context.Background(), history, "what is Go?")
	require.NoError(t, err)
	require.Equal(t, "a language", got)
	require.Equal(t, original, history)
}

func TestResearchChat_Provider_New_Unconfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty selector", Config{APIKey: "key"}},
		{"unknown selector", Config{Kind: "llama", APIKey: "key"}},
		{"missing key", Config{Kind: KindOpenAI}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, err := New(context.Background(), testLogger(t), tt.cfg)
			require.NoError(t, err)
			require.False(t, g.Configured())
			require.Equal(t, tt.cfg.Kind, g.Kind())

			_, err = g.Complete(context.Background(), "hello")
			require.ErrorIs(t, err, ErrProviderNotConfigured)
		})
	}
}

func TestResearchChat_Provider_New_Configured(t *testing.T) {
	t.Parallel()

	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()
			g, err := New(context.Background(), testLogger(t), Config{Kind: kind, APIKey: "key", BaseURL: "http://127.0.0.1:1/"})
			require.NoError(t, err)
			require.True(t, g.Configured())
			require.Equal(t, kind, g.Kind())
		})
	}
}

func TestResearchChat_Provider_GeminiTranscript(t *testing.T) {
	t.Parallel()

	require.Equal(t, "just a prompt", geminiTranscript([]Turn{{Role: RoleUser, Content: "just a prompt"}}))
	require.Equal(t,
		"User: hi\nAssistant: hello\nUser: how are you?\nAssistant:",
		geminiTranscript([]Turn{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
			{Role: RoleUser, Content: "how are you?"},
		}),
	)
}

func TestResearchChat_Provider_Gateway_ListModels(t *testing.T) {
	t.Parallel()

	client := &mockClient{ListModelsFunc: func(ctx context.Context) ([]string, error) {
		return []string{"gpt-4o", "gpt-3.5-turbo", "gpt-4o-mini"}, nil
	}}
	g := NewGateway(testLogger(t), KindOpenAI, client, time.Second)

	models, err := g.ListModels(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"gpt-3.5-turbo", "gpt-4o", "gpt-4o-mini"}, models)
}

func TestResearchChat_Provider_Gateway_ListModels_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewGateway(testLogger(t), KindGemini, nil, 0).ListModels(context.Background())
	require.ErrorIs(t, err, ErrProviderNotConfigured)

	cause := errors.New("status 401")
	client := &mockClient{ListModelsFunc: func(ctx context.Context) ([]string, error) {
		return nil, cause
	}}
	_, err = NewGateway(testLogger(t), KindGemini, client, time.Second).ListModels(context.Background())
	require.ErrorIs(t, err, ErrProviderRequestFailed)
	require.ErrorIs(t, err, cause)
}
