package execute

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kayz/promptsmith/internal/promptbuild"
	"github.com/kayz/promptsmith/internal/state"
)

var ErrInvalidRequest = errors.New("invalid execution request")

// Request is one generation call.
type Request struct {
	Provider         string   `json:"provider"`
	Model            string   `json:"model"`
	SystemPrompt     string   `json:"system_prompt,omitempty"`
	UserPrompt       string   `json:"user_prompt"`
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
}

// Validate checks parameter ranges. The returned error wraps
// ErrInvalidRequest.
func (r Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.SystemPrompt) == "" && strings.TrimSpace(r.UserPrompt) == "" {
		problems = append(problems, "prompt is empty")
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		problems = append(problems, fmt.Sprintf("temperature %g not in [0, 1]", r.Temperature))
	}
	if r.MaxTokens <= 0 {
		problems = append(problems, fmt.Sprintf("max_tokens %d must be positive", r.MaxTokens))
	}
	if r.TopP != nil && (*r.TopP < 0 || *r.TopP > 1) {
		problems = append(problems, fmt.Sprintf("top_p %g not in [0, 1]", *r.TopP))
	}
	if r.FrequencyPenalty != nil && (*r.FrequencyPenalty < -2 || *r.FrequencyPenalty > 2) {
		problems = append(problems, fmt.Sprintf("frequency_penalty %g not in [-2, 2]", *r.FrequencyPenalty))
	}
	if r.PresencePenalty != nil && (*r.PresencePenalty < -2 || *r.PresencePenalty > 2) {
		problems = append(problems, fmt.Sprintf("presence_penalty %g not in [-2, 2]", *r.PresencePenalty))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// Params returns the generation parameters as a flat map.
func (r Request) Params() map[string]any {
	params := map[string]any{
		"provider":    r.Provider,
		"model":       r.Model,
		"temperature": r.Temperature,
		"max_tokens":  r.MaxTokens,
	}
	if r.TopP != nil {
		params["top_p"] = *r.TopP
	}
	if r.FrequencyPenalty != nil {
		params["frequency_penalty"] = *r.FrequencyPenalty
	}
	if r.PresencePenalty != nil {
		params["presence_penalty"] = *r.PresencePenalty
	}
	return params
}

// RequestFromStore builds a request from the execution_* keys of s and an
// assembled prompt. A combined prompt is sent as the user message.
func RequestFromStore(s *state.Store, p promptbuild.Prompt) Request {
	topP := s.Float(state.KeyExecTopP)
	freq := s.Float(state.KeyExecFrequencyPenalty)
	pres := s.Float(state.KeyExecPresencePenalty)

	req := Request{
		Provider:         s.String(state.KeyExecProvider),
		Model:            s.String(state.KeyExecModel),
		Temperature:      s.Float(state.KeyExecTemperature),
		MaxTokens:        s.Int(state.KeyExecMaxTokens),
		TopP:             &topP,
		FrequencyPenalty: &freq,
		PresencePenalty:  &pres,
	}
	if p.Mode == promptbuild.ModeRoles {
		req.SystemPrompt = p.System
		req.UserPrompt = p.User
	} else {
		req.UserPrompt = p.Text
	}
	return req
}
