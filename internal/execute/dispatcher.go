package execute

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kayz/promptsmith/internal/ai"
	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/persist"
)

// Metadata describes how a result was produced.
type Metadata struct {
	Model            string  `json:"model"`
	Provider         string  `json:"provider"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	GenerationTime   float64 `json:"generation_time_seconds"`
	Simulated        bool    `json:"simulated"`
	Error            string  `json:"error,omitempty"`
}

func (m Metadata) Map() map[string]any {
	out := map[string]any{
		"model":                   m.Model,
		"provider":                m.Provider,
		"prompt_tokens":           m.PromptTokens,
		"completion_tokens":       m.CompletionTokens,
		"total_tokens":            m.TotalTokens,
		"generation_time_seconds": m.GenerationTime,
		"simulated":               m.Simulated,
	}
	if m.Error != "" {
		out["error"] = m.Error
	}
	return out
}

// Result is the outcome of one dispatch. Err is set when the backend failed;
// Content then holds the simulated fallback.
type Result struct {
	ExecutionID string   `json:"execution_id"`
	Content     string   `json:"content"`
	Metadata    Metadata `json:"metadata"`
	Err         error    `json:"-"`
}

// Recorder stores finished executions.
type Recorder interface {
	RecordExecution(e *persist.Execution) error
}

const (
	cooldownThreshold = 3
	cooldownDuration  = 2 * time.Minute
)

// Dispatcher routes requests to providers and falls back to simulated
// content when no backend is configured or the backend fails.
type Dispatcher struct {
	registry    *ai.Registry
	providers   map[string]Provider
	cooldown    *ai.Cooldown
	recorder    Recorder
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

// NewDispatcher builds a provider for every catalog entry that has an API
// key, from the catalog itself, the ai config section or the environment.
func NewDispatcher(cfg *config.Config, registry *ai.Registry) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		providers:   make(map[string]Provider),
		cooldown:    ai.NewCooldown(cooldownThreshold, cooldownDuration),
		timeout:     time.Duration(cfg.Execution.TimeoutSeconds) * time.Second,
		concurrency: cfg.Execution.BatchConcurrency,
		now:         time.Now,
	}
	if d.concurrency <= 0 {
		d.concurrency = 1
	}

	for _, p := range registry.ListProviders() {
		selected := strings.EqualFold(p.Name, cfg.AI.Provider)

		apiKey := ""
		if keys := p.Keys(); len(keys) > 0 {
			apiKey = keys[0]
		} else if selected && cfg.AI.APIKey != "" {
			apiKey = cfg.AI.APIKey
		} else {
			apiKey = config.APIKeyFromEnv(p.Name)
		}
		baseURL := p.BaseURL
		if baseURL == "" && selected {
			baseURL = cfg.AI.BaseURL
		}

		switch p.Type {
		case ai.TypeOpenAI:
			if apiKey != "" {
				d.SetProvider(NewOpenAIProvider(p.Name, apiKey, baseURL))
			}
		case ai.TypeAnthropic:
			if apiKey != "" {
				d.SetProvider(NewAnthropicProvider(p.Name, apiKey, baseURL))
			}
		}
	}
	return d
}

// SetProvider registers or replaces the provider for p.Name().
func (d *Dispatcher) SetProvider(p Provider) {
	d.providers[strings.ToLower(p.Name())] = p
}

// SetRecorder makes every dispatch persist its execution.
func (d *Dispatcher) SetRecorder(r Recorder) {
	d.recorder = r
}

// HasBackend reports whether requests for provider reach a real backend.
func (d *Dispatcher) HasBackend(provider string) bool {
	_, ok := d.providers[strings.ToLower(provider)]
	return ok
}

// ProviderStats returns the success and failure counters of provider.
func (d *Dispatcher) ProviderStats(provider string) ai.ProviderStats {
	if p, ok := d.providers[strings.ToLower(provider)]; ok {
		provider = p.Name()
	}
	return d.cooldown.Stats(provider)
}

// Dispatch validates and runs req. Only validation errors are returned;
// backend failures are logged and reported in Result.Err alongside the
// simulated fallback.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	start := d.now()
	apiReq := req
	if m, ok := d.registry.GetModel(req.Model); ok {
		apiReq.Model = m.APIModel()
	}

	var (
		completion Completion
		callErr    error
		simulated  bool
	)

	provider, ok := d.providers[strings.ToLower(req.Provider)]
	switch {
	case !ok:
		logger.Debug("No backend for provider %q, simulating", req.Provider)
		completion, simulated = simulate(req), true
	case d.cooldown.IsInCooldown(provider.Name()):
		logger.Info("Provider %s is cooling down, simulating", provider.Name())
		completion, simulated = simulate(req), true
	default:
		callCtx := ctx
		if d.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		completion, callErr = provider.Complete(callCtx, apiReq)
		if callErr != nil {
			d.cooldown.RecordFailure(provider.Name())
			logger.Warn("Execution with %s/%s failed, using simulated content: %v", req.Provider, req.Model, callErr)
			completion, simulated = simulate(req), true
		} else {
			d.cooldown.RecordSuccess(provider.Name())
		}
	}

	model := completion.Model
	if model == "" {
		model = req.Model
	}
	result := Result{
		ExecutionID: uuid.NewString(),
		Content:     completion.Content,
		Err:         callErr,
		Metadata: Metadata{
			Model:            model,
			Provider:         req.Provider,
			PromptTokens:     completion.PromptTokens,
			CompletionTokens: completion.CompletionTokens,
			TotalTokens:      completion.PromptTokens + completion.CompletionTokens,
			GenerationTime:   d.now().Sub(start).Seconds(),
			Simulated:        simulated,
		},
	}
	if callErr != nil {
		result.Metadata.Error = callErr.Error()
	}

	d.record(req, result, start)
	return result, nil
}

func (d *Dispatcher) record(req Request, res Result, at time.Time) {
	if d.recorder == nil {
		return
	}
	e := &persist.Execution{
		ID:           res.ExecutionID,
		CreatedAt:    at,
		Provider:     req.Provider,
		Model:        req.Model,
		Params:       req.Params(),
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		Content:      res.Content,
		Metadata:     res.Metadata.Map(),
		Simulated:    res.Metadata.Simulated,
		Error:        res.Metadata.Error,
	}
	if err := d.recorder.RecordExecution(e); err != nil {
		logger.Warn("Failed to record execution %s: %v", res.ExecutionID, err)
	}
}

// DispatchAll runs independent requests on a bounded pool. Results are in
// input order. Any invalid request fails the whole batch before dispatch.
func (d *Dispatcher) DispatchAll(ctx context.Context, reqs []Request) ([]Result, error) {
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
	}

	results := make([]Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := d.Dispatch(ctx, req)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("Dispatched batch of %d requests", len(reqs))
	return results, nil
}
