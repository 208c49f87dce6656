package ai

import (
	"testing"
	"time"
)

func TestCooldownThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCooldown(2, time.Minute)
	c.now = func() time.Time { return now }

	c.RecordFailure("OpenAI")
	if c.IsInCooldown("OpenAI") {
		t.Fatalf("should not cool down before threshold")
	}
	c.RecordFailure("OpenAI")
	if !c.IsInCooldown("OpenAI") {
		t.Fatalf("should cool down at threshold")
	}

	now = now.Add(2 * time.Minute)
	if c.IsInCooldown("OpenAI") {
		t.Fatalf("cooldown should expire")
	}

	c.RecordSuccess("OpenAI")
	st := c.Stats("OpenAI")
	if st.Failures != 2 || st.Successes != 1 || st.Consecutive != 0 {
		t.Fatalf("unexpected stats: %#v", st)
	}
}
