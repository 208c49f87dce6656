// Package cron runs the periodic maintenance tasks of a long-running server.
package cron

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kayz/promptsmith/internal/logger"
)

// Task is a named periodic function.
type Task struct {
	Name      string
	Schedule  string
	Timeout   time.Duration
	Run       func(ctx context.Context) error
	LastRun   *time.Time
	LastError string

	entryID cron.EntryID
}

// TaskStatus is a read-only view of a Task.
type TaskStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   time.Time  `json:"next_run"`
	LastError string     `json:"last_error,omitempty"`
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron  *cron.Cron
	tasks map[string]*Task
	mu    sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()), // Support second-level precision
		tasks: make(map[string]*Task),
	}
}

// normalizeCron prepends "0 " to standard 5-field cron expressions
// so they work with the 6-field (with seconds) parser.
func normalizeCron(schedule string) string {
	if len(strings.Fields(schedule)) == 5 {
		return "0 " + schedule
	}
	return schedule
}

// Add registers a task. Names are unique.
func (s *Scheduler) Add(task *Task) error {
	if task.Name == "" || task.Run == nil {
		return fmt.Errorf("task needs a name and a run function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.Name]; exists {
		return fmt.Errorf("task %s already registered", task.Name)
	}

	entryID, err := s.cron.AddFunc(normalizeCron(task.Schedule), func() {
		s.execute(task)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", task.Schedule, task.Name, err)
	}
	task.entryID = entryID
	s.tasks[task.Name] = task
	return nil
}

// RunNow executes a task synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	task, ok := s.tasks[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("task not found: %s", name)
	}
	return s.execute(task)
}

func (s *Scheduler) execute(task *Task) error {
	timeout := task.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	now := time.Now()
	err := task.Run(ctx)

	s.mu.Lock()
	task.LastRun = &now
	if err != nil {
		task.LastError = err.Error()
	} else {
		task.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		logger.Warn("[CRON] Task %s failed: %v", task.Name, err)
	} else {
		logger.Debug("[CRON] Task %s completed", task.Name)
	}
	return err
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("[CRON] Scheduler started with %d tasks", len(s.Tasks()))
}

// Stop stops the scheduler and waits for running tasks
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("[CRON] Scheduler stopped")
}

// Tasks returns the status of every task, sorted by name.
func (s *Scheduler) Tasks() []TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TaskStatus, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, TaskStatus{
			Name:      t.Name,
			Schedule:  t.Schedule,
			LastRun:   t.LastRun,
			NextRun:   s.cron.Entry(t.entryID).Next,
			LastError: t.LastError,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
