package tasks

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

// RunStatus is the lifecycle state of one grading run.
type RunStatus string

// Run lifecycle states.
const (
	RunSubmitted RunStatus = "submitted"
	RunWorking   RunStatus = "working"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// Run records one grading invocation: the task graded, the artifact location,
// and the resulting report or failure.
type Run struct {
	ID         string         `json:"id"`
	TaskID     string         `json:"task_id"`
	OutputDir  string         `json:"output_dir"`
	Status     RunStatus      `json:"status"`
	Report     *domain.Report `json:"report,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Terminal reports whether the run is in a final state.
func (r *Run) Terminal() bool {
	switch r.Status {
	case RunCompleted, RunFailed, RunCanceled:
		return true
	}
	return false
}

// ErrRunNotFound is returned when a run id is unknown to the store.
var ErrRunNotFound = fmt.Errorf("run not found")

// Store persists grading runs. The service keeps every run for the lifetime
// of the process; there is no eviction.
type Store interface {
	Create(taskID, outputDir string) *Run
	Get(id string) (*Run, error)
	SetStatus(id string, status RunStatus) (*Run, error)
	Complete(id string, report *domain.Report) (*Run, error)
	Fail(id string, cause error) (*Run, error)
	List() []*Run
}

// MemoryStore is the in-memory Store used by the service and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// Create inserts a new run in the submitted state and returns a copy.
func (s *MemoryStore) Create(taskID, outputDir string) *Run {
	now := time.Now().UTC()
	run := &Run{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		OutputDir: outputDir,
		Status:    RunSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
	return run.clone()
}

// Get returns a copy of the run with the given id.
func (s *MemoryStore) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run.clone(), nil
}

// SetStatus transitions the run to status. Terminal runs stay terminal.
func (s *MemoryStore) SetStatus(id string, status RunStatus) (*Run, error) {
	return s.update(id, func(run *Run) {
		if run.Terminal() {
			return
		}
		run.Status = status
		if run.Terminal() {
			now := time.Now().UTC()
			run.FinishedAt = &now
		}
	})
}

// Complete marks the run completed and attaches its report.
func (s *MemoryStore) Complete(id string, report *domain.Report) (*Run, error) {
	return s.update(id, func(run *Run) {
		now := time.Now().UTC()
		run.Status = RunCompleted
		run.Report = report
		run.FinishedAt = &now
	})
}

// Fail marks the run failed with the cause.
func (s *MemoryStore) Fail(id string, cause error) (*Run, error) {
	return s.update(id, func(run *Run) {
		now := time.Now().UTC()
		run.Status = RunFailed
		run.Error = cause.Error()
		run.FinishedAt = &now
	})
}

// List returns copies of all runs, newest first.
func (s *MemoryStore) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) update(id string, fn func(*Run)) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	fn(run)
	run.UpdatedAt = time.Now().UTC()
	return run.clone(), nil
}

func (r *Run) clone() *Run {
	cp := *r
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}
