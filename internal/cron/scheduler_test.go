package cron

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeCron(t *testing.T) {
	if got := normalizeCron("0 3 * * *"); got != "0 0 3 * * *" {
		t.Fatalf("unexpected 5-field conversion: %q", got)
	}
	if got := normalizeCron("*/10 * * * * *"); got != "*/10 * * * * *" {
		t.Fatalf("6-field expression should be unchanged: %q", got)
	}
}

func TestAddAndRunNow(t *testing.T) {
	s := NewScheduler()
	calls := 0
	if err := s.Add(&Task{Name: "cleanup", Schedule: "0 3 * * *", Run: func(context.Context) error {
		calls++
		return nil
	}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(&Task{Name: "cleanup", Schedule: "@daily", Run: func(context.Context) error { return nil }}); err == nil {
		t.Fatalf("duplicate name should fail")
	}
	if err := s.Add(&Task{Name: "bad", Schedule: "not a schedule", Run: func(context.Context) error { return nil }}); err == nil {
		t.Fatalf("invalid schedule should fail")
	}

	if err := s.RunNow("cleanup"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}

	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].LastRun == nil || tasks[0].LastError != "" {
		t.Fatalf("unexpected task status: %+v", tasks)
	}
	if err := s.RunNow("missing"); err == nil {
		t.Fatalf("expected error for unknown task")
	}
}

func TestRunNowRecordsError(t *testing.T) {
	s := NewScheduler()
	_ = s.Add(&Task{Name: "fail", Schedule: "@hourly", Run: func(context.Context) error {
		return errors.New("disk full")
	}})
	if err := s.RunNow("fail"); err == nil {
		t.Fatalf("expected task error")
	}
	if got := s.Tasks()[0].LastError; got != "disk full" {
		t.Fatalf("unexpected last error: %q", got)
	}
}
