package state

import (
	"fmt"
	"slices"
)

// Toggle names a workflow or agent and the key holding its enable flag.
type Toggle struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Workflows are the prompting strategies whose flags gate section rendering.
var Workflows = []Toggle{
	{Name: "Chain-of-Thought", Key: KeyThinkingSteps, Description: "Step-by-step reasoning instructions"},
	{Name: "Iterative Refinement", Key: KeyIterative, Description: "Repeated improvement passes over a draft"},
	{Name: "Few-Shot Learning", Key: KeyFewShot, Description: "Input/output examples that show the expected result"},
	{Name: "RAG", Key: KeyRAG, Description: "Grounding in configured knowledge sources"},
	{Name: "Self-Consistency", Key: KeySelfConsistency, Description: "Self-review of the generated content"},
	{Name: "Routing", Key: KeyRouting, Description: "Dispatch of requests to specialised routes"},
}

// Agents are the persona bundles whose flags gate instruction sections.
var Agents = []Toggle{
	{Name: "Content Creator", Key: KeyContentCreator, Description: "Drafts the primary content"},
	{Name: "Fact Checker", Key: KeyFactChecker, Description: "Verifies factual claims"},
	{Name: "Editor/Refiner", Key: KeyEditor, Description: "Improves clarity and flow"},
	{Name: "Critic", Key: KeyCritic, Description: "Scores output against weighted criteria"},
	{Name: "Audience Adapter", Key: KeyAudienceAdapter, Description: "Tailors content to the target audience"},
}

// ToggleState is a toggle with its current flag.
type ToggleState struct {
	Toggle
	Enabled bool `json:"enabled"`
}

// SetWorkflow flips a workflow flag and keeps selected_workflows in step.
func (s *Store) SetWorkflow(name string, on bool) error {
	return s.setToggle(Workflows, KeySelectedWorkflows, name, on)
}

// SetAgent flips an agent flag and keeps selected_agents in step.
func (s *Store) SetAgent(name string, on bool) error {
	return s.setToggle(Agents, KeySelectedAgents, name, on)
}

// WorkflowStates lists every workflow with its flag.
func (s *Store) WorkflowStates() []ToggleState { return s.states(Workflows) }

// AgentStates lists every agent with its flag.
func (s *Store) AgentStates() []ToggleState { return s.states(Agents) }

func (s *Store) states(list []Toggle) []ToggleState {
	out := make([]ToggleState, 0, len(list))
	for _, t := range list {
		out = append(out, ToggleState{Toggle: t, Enabled: s.Bool(t.Key)})
	}
	return out
}

func (s *Store) setToggle(list []Toggle, selectedKey, name string, on bool) error {
	idx := slices.IndexFunc(list, func(t Toggle) bool { return t.Name == name })
	if idx < 0 {
		return fmt.Errorf("%q: %w", name, ErrUnknownToggle)
	}
	if err := s.Set(list[idx].Key, on); err != nil {
		return err
	}
	selected := slices.DeleteFunc(s.Strings(selectedKey), func(n string) bool { return n == name })
	if on {
		selected = append(selected, name)
	}
	return s.Set(selectedKey, selected)
}
