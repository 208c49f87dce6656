package execute

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kayz/promptsmith/internal/ai"
	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/persist"
	"github.com/kayz/promptsmith/internal/promptbuild"
	"github.com/kayz/promptsmith/internal/state"
)

type fakeProvider struct {
	name  string
	delay func(req Request) time.Duration
	err   error
	calls []Request
	mu    sync.Mutex
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req Request) (Completion, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.delay != nil {
		time.Sleep(f.delay(req))
	}
	if f.err != nil {
		return Completion{}, f.err
	}
	return Completion{Content: "echo: " + req.UserPrompt, Model: req.Model, PromptTokens: 7, CompletionTokens: 3}, nil
}

type memRecorder struct {
	mu   sync.Mutex
	seen []*persist.Execution
}

func (m *memRecorder) RecordExecution(e *persist.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, e)
	return nil
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	t.Setenv("PROMPTSMITH_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	return NewDispatcher(config.DefaultConfig(), ai.NewRegistry())
}

func validRequest() Request {
	return Request{Provider: "OpenAI", Model: "gpt-4o", SystemPrompt: "be brief", UserPrompt: "say hi", Temperature: 0.7, MaxTokens: 100}
}

func ptr(v float64) *float64 { return &v }

func TestValidateRejectsOutOfRangeParams(t *testing.T) {
	cases := map[string]func(*Request){
		"temperature": func(r *Request) { r.Temperature = 1.5 },
		"max_tokens":  func(r *Request) { r.MaxTokens = 0 },
		"top_p":       func(r *Request) { r.TopP = ptr(1.1) },
		"frequency":   func(r *Request) { r.FrequencyPenalty = ptr(-2.5) },
		"presence":    func(r *Request) { r.PresencePenalty = ptr(3) },
		"empty":       func(r *Request) { r.SystemPrompt, r.UserPrompt = "", " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			require.ErrorIs(t, req.Validate(), ErrInvalidRequest)
		})
	}
	require.NoError(t, validRequest().Validate())
}

func TestDispatchWithoutBackendSimulates(t *testing.T) {
	d := newTestDispatcher(t)
	require.False(t, d.HasBackend("OpenAI"))

	req := Request{Provider: "OpenAI", Model: "gpt-4o", SystemPrompt: "a b", UserPrompt: "c d e", Temperature: 0.5, MaxTokens: 10}
	res, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.True(t, res.Metadata.Simulated)
	require.Equal(t, 5, res.Metadata.PromptTokens)
	require.Equal(t, wordCount(res.Content), res.Metadata.CompletionTokens)
	require.Equal(t, res.Metadata.PromptTokens+res.Metadata.CompletionTokens, res.Metadata.TotalTokens)
	require.Contains(t, res.Content, "**Generated content using gpt-4o**")

	again, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, res.Content, again.Content)
}

func TestDispatchInvalidRequestIsReturned(t *testing.T) {
	d := newTestDispatcher(t)
	req := validRequest()
	req.Temperature = 2
	_, err := d.Dispatch(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDispatchUsesProviderAndRecords(t *testing.T) {
	d := newTestDispatcher(t)
	fake := &fakeProvider{name: "Anthropic"}
	d.SetProvider(fake)
	rec := &memRecorder{}
	d.SetRecorder(rec)

	req := validRequest()
	req.Provider = "anthropic"
	req.Model = "claude-3-haiku"
	res, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.Metadata.Simulated)
	require.Equal(t, "echo: say hi", res.Content)
	require.Equal(t, 10, res.Metadata.TotalTokens)

	require.Len(t, fake.calls, 1)
	require.Equal(t, "claude-3-haiku-20240307", fake.calls[0].Model)

	require.Len(t, rec.seen, 1)
	require.Equal(t, res.ExecutionID, rec.seen[0].ID)
	require.Equal(t, "claude-3-haiku", rec.seen[0].Model)
	require.Equal(t, 0.7, rec.seen[0].Params["temperature"])
}

func TestDispatchFailureFallsBackAndCoolsDown(t *testing.T) {
	d := newTestDispatcher(t)
	fake := &fakeProvider{name: "OpenAI", err: errors.New("boom")}
	d.SetProvider(fake)

	for i := 0; i < cooldownThreshold; i++ {
		res, err := d.Dispatch(context.Background(), validRequest())
		require.NoError(t, err)
		require.Error(t, res.Err)
		require.True(t, res.Metadata.Simulated)
		require.Contains(t, res.Metadata.Error, "boom")
		require.NotEmpty(t, res.Content)
	}

	res, err := d.Dispatch(context.Background(), validRequest())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.True(t, res.Metadata.Simulated)
	require.Len(t, fake.calls, cooldownThreshold)
}

func TestDispatchAllKeepsInputOrder(t *testing.T) {
	d := newTestDispatcher(t)
	d.concurrency = 3
	d.SetProvider(&fakeProvider{
		name: "OpenAI",
		delay: func(req Request) time.Duration {
			if req.UserPrompt == "first" {
				return 30 * time.Millisecond
			}
			return 0
		},
	})

	var reqs []Request
	for _, p := range []string{"first", "second", "third", "fourth"} {
		r := validRequest()
		r.UserPrompt = p
		reqs = append(reqs, r)
	}

	results, err := d.DispatchAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, p := range []string{"first", "second", "third", "fourth"} {
		require.Equal(t, "echo: "+p, results[i].Content)
	}

	reqs[2].MaxTokens = -1
	_, err = d.DispatchAll(context.Background(), reqs)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRequestFromStore(t *testing.T) {
	s := state.New()
	require.NoError(t, s.Set(state.KeyExecProvider, "Anthropic"))
	require.NoError(t, s.Set(state.KeyExecModel, "claude-3-opus"))
	require.NoError(t, s.Set(state.KeyExecTemperature, 0.2))

	req := RequestFromStore(s, promptbuild.Prompt{Mode: promptbuild.ModeRoles, System: "sys", User: "usr"})
	require.Equal(t, "Anthropic", req.Provider)
	require.Equal(t, "claude-3-opus", req.Model)
	require.Equal(t, 0.2, req.Temperature)
	require.Equal(t, 2000, req.MaxTokens)
	require.Equal(t, "sys", req.SystemPrompt)
	require.Equal(t, "usr", req.UserPrompt)
	require.NotNil(t, req.TopP)
	require.Equal(t, 1.0, *req.TopP)

	combined := RequestFromStore(s, promptbuild.Prompt{Mode: promptbuild.ModeCombined, Text: "all"})
	require.Empty(t, combined.SystemPrompt)
	require.Equal(t, "all", combined.UserPrompt)
}

func TestSelectedProviderKeyDoesNotLeak(t *testing.T) {
	t.Setenv("PROMPTSMITH_API_KEY", "sk-shared")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := config.DefaultConfig()
	cfg.AI.Provider = "openai"
	cfg.AI.APIKey = "sk-shared"
	d := NewDispatcher(cfg, ai.NewRegistry())

	require.True(t, d.HasBackend("OpenAI"))
	require.False(t, d.HasBackend("Anthropic"))

	res, err := d.Dispatch(context.Background(), Request{Provider: "Anthropic", Model: "claude-3-haiku", UserPrompt: "hi", Temperature: 0.5, MaxTokens: 10})
	require.NoError(t, err)
	require.True(t, res.Metadata.Simulated)
	require.NoError(t, res.Err)
}
