package promptbuild

import (
	"strings"
	"testing"

	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/state"
	"github.com/kayz/promptsmith/internal/structure"
)

func configForTest(dir string) config.PromptBuildConfig {
	return config.PromptBuildConfig{
		AuditEnabled:       false,
		AuditDir:           dir,
		AuditRetentionDays: 7,
		AuditFilePrefix:    "promptbuild",
	}
}

func newTestBuilder(t *testing.T) (*state.Store, *structure.Registry, *Builder) {
	t.Helper()
	s := state.New()
	reg := structure.New(s)
	return s, reg, NewBuilder(s, reg, configForTest(t.TempDir()))
}

func mustSet(t *testing.T, s *state.Store, key string, v any) {
	t.Helper()
	if err := s.Set(key, v); err != nil {
		t.Fatalf("set %s: %v", key, err)
	}
}

func onlyEnable(t *testing.T, reg *structure.Registry, names ...string) {
	t.Helper()
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	for _, n := range reg.Order() {
		if err := reg.SetEnabled(n, keep[n]); err != nil {
			t.Fatalf("set enabled %s: %v", n, err)
		}
	}
}

func TestCombinedContextAndTaskExact(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	mustSet(t, s, state.KeyContext, "Explain X")
	mustSet(t, s, state.KeyTask, "Summarize Y")
	onlyEnable(t, reg, state.SectionContext, state.SectionTask)

	want := "# Context & Background\nExplain X\n\n# Task Definition\nSummarize Y\n\n"
	if got := b.Combined(); got != want {
		t.Fatalf("unexpected combined prompt:\n%q\nwant\n%q", got, want)
	}
}

func TestCombinedIsDeterministic(t *testing.T) {
	_, _, b := newTestBuilder(t)
	first := b.Build(ModeCombined)
	second := b.Build(ModeCombined)
	if first.Text != second.Text || first.Text == "" {
		t.Fatalf("expected identical non-empty output")
	}
	sys1, user1 := b.RoleBased()
	sys2, user2 := b.RoleBased()
	if sys1 != sys2 || user1 != user2 {
		t.Fatalf("role-based output not deterministic")
	}
}

func TestCombinedUsesFixedOrder(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	mustSet(t, s, state.KeyContext, "ctx")
	mustSet(t, s, state.KeyTask, "task")
	if _, err := reg.Move(state.SectionTask, structure.Up, structure.Chronological); err != nil {
		t.Fatalf("move: %v", err)
	}

	out := b.Combined()
	if strings.Index(out, "# Context & Background") > strings.Index(out, "# Task Definition") {
		t.Fatalf("combined mode must ignore user order:\n%s", out)
	}
	sys, user := b.RoleBased()
	if !strings.Contains(sys, "# Context & Background") || !strings.HasPrefix(user, "# Task Definition") {
		t.Fatalf("unexpected role split:\nsystem=%q\nuser=%q", sys, user)
	}
}

func TestDisabledSectionsAreAbsent(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	mustSet(t, s, state.KeySelfConsistency, true)
	mustSet(t, s, state.KeyFactChecker, true)

	for _, name := range reg.Order() {
		if err := reg.SetEnabled(name, false); err != nil {
			t.Fatalf("disable %s: %v", name, err)
		}
		text := b.RenderSection(name)
		combined := b.Combined()
		sys, user := b.RoleBased()
		for label, out := range map[string]string{"combined": combined, "system": sys, "user": user} {
			if text != "" && strings.Contains(out, text) {
				t.Fatalf("%s output still contains disabled section %s", label, name)
			}
		}
		if err := reg.SetEnabled(name, true); err != nil {
			t.Fatalf("enable %s: %v", name, err)
		}
	}
}

func TestOutputRequirementsAlwaysHasFixedLines(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	onlyEnable(t, reg, state.SectionOutput)
	mustSet(t, s, state.KeyOutputRequirements, "")

	want := "# Output Requirements\nFormat: Markdown\nTone: Professional\n\n"
	if got := b.Combined(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	mustSet(t, s, state.KeyOutputRequirements, "Be brief")
	want = "# Output Requirements\nFormat: Markdown\nTone: Professional\nBe brief\n\n"
	if got := b.Combined(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestInputSuppressedWithoutDescription(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	onlyEnable(t, reg, state.SectionInput)
	mustSet(t, s, state.KeyInputDescription, "")
	if got := b.Combined(); got != "" {
		t.Fatalf("expected empty prompt, got %q", got)
	}
	mustSet(t, s, state.KeyInputDescription, "CSV rows")
	mustSet(t, s, state.KeyInputFormat, "CSV")
	if got := b.Combined(); got != "# Input Data Format\nFormat: CSV\nCSV rows\n\n" {
		t.Fatalf("unexpected input block %q", got)
	}
}

func TestExamplesBlock(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	onlyEnable(t, reg, state.SectionExamples)
	mustSet(t, s, state.KeyExamples, []state.Example{
		{Input: "q1", Output: "a1"},
		{},
		{Input: "q3"},
	})
	mustSet(t, s, state.KeyConstraints, "No jargon")

	want := "# Examples & Constraints\n" +
		"[Example 1]\nInput: q1\nOutput: a1\n\n" +
		"[Example 3]\nInput: q3\nOutput: \n\n" +
		"## Constraints\nNo jargon\n\n"
	if got := b.Combined(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	mustSet(t, s, state.KeyFewShot, false)
	if got := b.Combined(); got != "" {
		t.Fatalf("examples must be absent when few-shot is off, got %q", got)
	}
}

func TestExamplesWithoutContentIsOmitted(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	onlyEnable(t, reg, state.SectionExamples, state.SectionCoT)
	mustSet(t, s, state.KeyExamples, []state.Example{{}, {}})
	mustSet(t, s, state.KeyConstraints, "")
	mustSet(t, s, state.KeyChainOfThought, []string{"think"})

	want := "# Chain-of-Thought Instructions\n1. think\n\n"
	if got := b.Combined(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestChainOfThoughtNumbering(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	onlyEnable(t, reg, state.SectionCoT, state.SectionContext)
	mustSet(t, s, state.KeyChainOfThought, []string{"first", "second", "third"})

	out := b.Combined()
	if !strings.Contains(out, "# Chain-of-Thought Instructions\n1. first\n2. second\n3. third\n\n") {
		t.Fatalf("unexpected chain-of-thought block:\n%s", out)
	}

	mustSet(t, s, state.KeyChainOfThought, []string{})
	if strings.Contains(b.Combined(), "Chain-of-Thought") {
		t.Fatalf("empty step list must suppress the section")
	}
	mustSet(t, s, state.KeyChainOfThought, []string{"x"})
	mustSet(t, s, state.KeyThinkingSteps, false)
	if strings.Contains(b.Combined(), "Chain-of-Thought") {
		t.Fatalf("disabled workflow must suppress the section")
	}
}

func TestStaticChecklists(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	onlyEnable(t, reg, state.SectionSelfReview, state.SectionFactCheck)
	if got := b.Combined(); got != "" {
		t.Fatalf("checklists are gated by their workflow/agent, got %q", got)
	}
	mustSet(t, s, state.KeySelfConsistency, true)
	mustSet(t, s, state.KeyFactChecker, true)

	want := "# Self-Review Requirements\n" +
		"After generating content, review it to ensure:\n" +
		"- All claims are factually accurate\n" +
		"- Content is well-organized and flows logically\n" +
		"- Advice is practical and actionable\n" +
		"- Language is clear and professional\n" +
		"- Content follows specified output requirements\n\n" +
		"# Fact Checking Instructions\n" +
		"Verify all factual claims and ensure accuracy of:\n" +
		"- Statistics and numerical data\n" +
		"- Historical information\n" +
		"- Technical specifications\n" +
		"- Citations and references\n\n"
	if got := b.Combined(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestCustomSectionStubInRoleMode(t *testing.T) {
	_, reg, b := newTestBuilder(t)
	onlyEnable(t, reg)
	if err := reg.AddCustom("Brand Voice", state.RoleSystem); err != nil {
		t.Fatalf("add custom: %v", err)
	}

	sys, user := b.RoleBased()
	if sys != "# Brand Voice\nCustom instructions for Brand Voice.\n\n" {
		t.Fatalf("unexpected system prompt %q", sys)
	}
	if user != "" {
		t.Fatalf("expected empty user prompt, got %q", user)
	}
	if b.Combined() != "" {
		t.Fatalf("custom sections are not part of the fixed combined order")
	}
}

func TestRolePartitionCoversCombined(t *testing.T) {
	s, _, b := newTestBuilder(t)
	mustSet(t, s, state.KeySelfConsistency, true)

	p := b.Build(ModeRoles)
	for _, sec := range p.Sections {
		inSystem := strings.Contains(p.System, sec.Text)
		inUser := strings.Contains(p.User, sec.Text)
		if sec.Role == state.RoleSystem && (!inSystem || inUser) {
			t.Fatalf("system section %s leaked into user output", sec.Name)
		}
		if sec.Role == state.RoleUser && (!inUser || inSystem) {
			t.Fatalf("user section %s leaked into system output", sec.Name)
		}
	}
	for _, sec := range b.Build(ModeCombined).Sections {
		if !strings.Contains(p.Full(), sec.Text) {
			t.Fatalf("role output misses combined section %s", sec.Name)
		}
	}
}

func TestSupplementarySectionRendersWhenAdded(t *testing.T) {
	s, reg, b := newTestBuilder(t)
	onlyEnable(t, reg)
	mustSet(t, s, state.KeyContentRules, []string{"Pricing", "Competitors"})
	if err := reg.AddCustom(state.SectionIntent, state.RoleSystem); err != nil {
		t.Fatalf("add: %v", err)
	}

	want := "# Content Intent & Guidelines\n" +
		"**Intent:** Inform\n\n" +
		"**Mission Statement:** This content aims to inform the audience about [topic] by providing [specific value]. It will help readers to [desired outcome].\n\n" +
		"**Voice & Tone:** Professional\n\n" +
		"**Content Rules (Do NOT include):**\n- Pricing\n- Competitors\n\n"
	if got := b.Combined(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeCombined, "combined": ModeCombined, "roles": ModeRoles, "role-based": ModeRoles} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("chat"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
