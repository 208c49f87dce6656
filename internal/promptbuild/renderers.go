package promptbuild

import (
	"fmt"
	"strings"

	"github.com/kayz/promptsmith/internal/state"
)

// RenderFunc renders one section from the current configuration. An empty
// result means the section's preconditions are not met.
type RenderFunc func(s *state.Store) string

// Renderers maps section names to render functions. Registration order is
// the fixed order used by combined assembly.
type Renderers struct {
	funcs map[string]RenderFunc
	order []string
}

// NewRenderers returns a registry holding every built-in section.
func NewRenderers() *Renderers {
	r := &Renderers{funcs: make(map[string]RenderFunc)}
	r.Register(state.SectionContext, renderContext)
	r.Register(state.SectionTask, renderTask)
	r.Register(state.SectionIntent, renderIntent)
	r.Register(state.SectionSetup, renderSetup)
	r.Register(state.SectionDesign, renderDesign)
	r.Register(state.SectionDataSources, renderDataSources)
	r.Register(state.SectionInput, renderInput)
	r.Register(state.SectionOutput, renderOutput)
	r.Register(state.SectionExamples, renderExamples)
	r.Register(state.SectionCoT, renderChainOfThought)
	r.Register(state.SectionSelfReview, renderSelfReview)
	r.Register(state.SectionFactCheck, renderFactCheck)
	return r
}

// Register adds or replaces the renderer for name.
func (r *Renderers) Register(name string, fn RenderFunc) {
	if _, ok := r.funcs[name]; !ok {
		r.order = append(r.order, name)
	}
	r.funcs[name] = fn
}

// Known reports whether name has a bespoke renderer.
func (r *Renderers) Known(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Order returns the fixed section order.
func (r *Renderers) Order() []string {
	return append([]string(nil), r.order...)
}

// Render renders name, falling back to the custom-section stub.
func (r *Renderers) Render(name string, s *state.Store) string {
	if fn, ok := r.funcs[name]; ok {
		return fn(s)
	}
	return renderCustom(name)
}

func block(heading, body string) string {
	return "# " + heading + "\n" + body + "\n\n"
}

func renderContext(s *state.Store) string {
	text := s.String(state.KeyContext)
	if text == "" {
		return ""
	}
	return block("Context & Background", text)
}

func renderTask(s *state.Store) string {
	text := s.String(state.KeyTask)
	if text == "" {
		return ""
	}
	return block("Task Definition", text)
}

func renderInput(s *state.Store) string {
	desc := s.String(state.KeyInputDescription)
	if desc == "" {
		return ""
	}
	return block("Input Data Format", "Format: "+s.String(state.KeyInputFormat)+"\n"+desc)
}

func renderOutput(s *state.Store) string {
	var b strings.Builder
	b.WriteString("# Output Requirements\n")
	fmt.Fprintf(&b, "Format: %s\n", s.String(state.KeyOutputFormat))
	fmt.Fprintf(&b, "Tone: %s\n", s.String(state.KeyOutputTone))
	if req := s.String(state.KeyOutputRequirements); req != "" {
		b.WriteString(req + "\n\n")
	} else {
		b.WriteString("\n")
	}
	return b.String()
}

func renderExamples(s *state.Store) string {
	if !s.Bool(state.KeyFewShot) {
		return ""
	}
	var b strings.Builder
	for i, ex := range s.Examples() {
		if ex.Input == "" && ex.Output == "" {
			continue
		}
		fmt.Fprintf(&b, "[Example %d]\n", i+1)
		fmt.Fprintf(&b, "Input: %s\n", ex.Input)
		fmt.Fprintf(&b, "Output: %s\n\n", ex.Output)
	}
	if c := s.String(state.KeyConstraints); c != "" {
		b.WriteString("## Constraints\n")
		b.WriteString(c + "\n\n")
	}
	if b.Len() == 0 {
		return ""
	}
	return "# Examples & Constraints\n" + b.String()
}

func renderChainOfThought(s *state.Store) string {
	steps := s.Strings(state.KeyChainOfThought)
	if !s.Bool(state.KeyThinkingSteps) || len(steps) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("# Chain-of-Thought Instructions\n")
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	b.WriteString("\n")
	return b.String()
}

const selfReviewBody = "After generating content, review it to ensure:\n" +
	"- All claims are factually accurate\n" +
	"- Content is well-organized and flows logically\n" +
	"- Advice is practical and actionable\n" +
	"- Language is clear and professional\n" +
	"- Content follows specified output requirements"

func renderSelfReview(s *state.Store) string {
	if !s.Bool(state.KeySelfConsistency) {
		return ""
	}
	return block("Self-Review Requirements", selfReviewBody)
}

const factCheckBody = "Verify all factual claims and ensure accuracy of:\n" +
	"- Statistics and numerical data\n" +
	"- Historical information\n" +
	"- Technical specifications\n" +
	"- Citations and references"

func renderFactCheck(s *state.Store) string {
	if !s.Bool(state.KeyFactChecker) {
		return ""
	}
	return block("Fact Checking Instructions", factCheckBody)
}

func renderCustom(name string) string {
	return block(name, "Custom instructions for "+name+".")
}

func renderIntent(s *state.Store) string {
	var b strings.Builder
	b.WriteString("# Content Intent & Guidelines\n")
	fmt.Fprintf(&b, "**Intent:** %s\n\n", s.String(state.KeyContentIntent))
	fmt.Fprintf(&b, "**Mission Statement:** %s\n\n", s.String(state.KeyMissionStatement))
	fmt.Fprintf(&b, "**Voice & Tone:** %s\n\n", s.String(state.KeyVoiceChoice))
	if rules := s.Strings(state.KeyContentRules); len(rules) > 0 {
		b.WriteString("**Content Rules (Do NOT include):**\n")
		writeBullets(&b, rules)
		b.WriteString("\n")
	}
	return b.String()
}

func renderSetup(s *state.Store) string {
	var b strings.Builder
	b.WriteString("# Content Setup\n")
	fmt.Fprintf(&b, "**Content Description:** %s\n\n", s.String(state.KeyContentDescription))
	b.WriteString("**Business Context:**\n")
	fmt.Fprintf(&b, "- Name: %s\n", s.String(state.KeyBusinessName))
	fmt.Fprintf(&b, "- Display Location: %s\n", s.String(state.KeyBusinessWhere))
	fmt.Fprintf(&b, "- Target Audience: %s\n", s.String(state.KeyBusinessWho))
	fmt.Fprintf(&b, "- Content Format: %s\n", s.String(state.KeyBusinessLook))
	fmt.Fprintf(&b, "- Purpose: %s\n\n", s.String(state.KeyBusinessWhy))
	return b.String()
}

func renderDesign(s *state.Store) string {
	var b strings.Builder
	b.WriteString("# Design Requirements\n")
	if comps := s.Records(state.KeyComponents); len(comps) > 0 {
		b.WriteString("**Content Components:**\n")
		for _, c := range comps {
			fmt.Fprintf(&b, "- %v: %v\n", c["type"], c["description"])
			fmt.Fprintf(&b, "  Length: %v-%v chars, ~%v sentences\n", c["min_chars"], c["max_chars"], c["sentences"])
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "**Language & Locale:** %s\n\n", s.String(state.KeyLanguageChoice))
	if items := s.Strings(state.KeyGlobalization); len(items) > 0 {
		b.WriteString("**Globalization Considerations:**\n")
		writeBullets(&b, items)
		b.WriteString("\n")
	}
	return b.String()
}

func renderDataSources(s *state.Store) string {
	var b strings.Builder
	b.WriteString("# Data Sources & Examples\n")
	if list := s.Mappings(state.KeyFileMappings); len(list) > 0 {
		b.WriteString("**Data Fields:**\n")
		for _, m := range list {
			fmt.Fprintf(&b, "- %s: Corresponds to %s in the provided data\n", m.Placeholder, m.Field)
		}
		b.WriteString("\n")
	}
	if list := s.Mappings(state.KeyGraphQLMappings); len(list) > 0 {
		b.WriteString("**GraphQL Data Fields:**\n")
		for _, m := range list {
			fmt.Fprintf(&b, "- %s: Corresponds to %s in the GraphQL data\n", m.Placeholder, m.Field)
		}
		b.WriteString("\n")
	}
	if list := s.Records(state.KeyManualExamples); len(list) > 0 {
		b.WriteString("**Examples for Reference:**\n")
		for i, ex := range list {
			fmt.Fprintf(&b, "Example %d (%v):\n```\n%v\n```\n\n", i+1, ex["comment"], ex["text"])
		}
	}
	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}
