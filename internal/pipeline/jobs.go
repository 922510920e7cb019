package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/profilex/internal/browser"
)

// JobStatus is the externally visible state of an asynchronous run.
type JobStatus string

const (
	StatusQueued         JobStatus = "queued"
	StatusLoggingIn      JobStatus = "logging_in"
	StatusChallengeCheck JobStatus = "challenge_check"
	StatusAwaitingManual JobStatus = "awaiting_manual_challenge"
	StatusNavigating     JobStatus = "navigating"
	StatusExpanding      JobStatus = "expanding"
	StatusHarvesting     JobStatus = "harvesting"
	StatusPersisting     JobStatus = "persisting"
	StatusStructuring    JobStatus = "structuring"
	StatusRendering      JobStatus = "rendering"
	StatusCompleted      JobStatus = "completed"
	StatusPartial        JobStatus = "partial"
	StatusFailed         JobStatus = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// statusForStage maps a pipeline stage to a job status. Stages with no
// visible status leave the job unchanged.
func statusForStage(s Stage) (JobStatus, bool) {
	switch s {
	case Stage(browser.StateLoggingIn):
		return StatusLoggingIn, true
	case Stage(browser.StateChallengeCheck):
		return StatusChallengeCheck, true
	case Stage(browser.StateAwaitingManualChallenge):
		return StatusAwaitingManual, true
	case Stage(browser.StateNavigating):
		return StatusNavigating, true
	case Stage(browser.StateExpanding):
		return StatusExpanding, true
	case Stage(browser.StateHarvesting):
		return StatusHarvesting, true
	case StagePersisting:
		return StatusPersisting, true
	case StageStructuring:
		return StatusStructuring, true
	case StageRendering:
		return StatusRendering, true
	}
	return "", false
}

func statusForOutcome(o Outcome) JobStatus {
	switch o {
	case FullSuccess:
		return StatusCompleted
	case PartialSuccess:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// ErrNotAwaitingChallenge is returned when a challenge confirmation arrives
// for a job that is not paused on one.
var ErrNotAwaitingChallenge = errors.New("job is not awaiting a manual challenge")

// Job tracks one asynchronous extraction run.
type Job struct {
	mu sync.Mutex

	ID         string
	ProfileURL string
	Status     JobStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Internal: not serialized. Credentials are dropped once the browser
	// has them.
	creds     browser.Credentials
	challenge chan struct{}
	result    *Result
	errors    []string
}

// NewJob creates a queued job.
func NewJob(id, profileURL string, creds browser.Credentials) *Job {
	now := time.Now()
	return &Job{
		ID:         id,
		ProfileURL: profileURL,
		Status:     StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
		creds:      creds,
		challenge:  make(chan struct{}, 1),
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// finish records the run result and the terminal status it implies.
func (j *Job) finish(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.Status = statusForOutcome(res.Outcome)
	if res.Err != nil {
		j.errors = append(j.errors, res.Err.Error())
	}
	j.UpdatedAt = time.Now()
}

func (j *Job) takeCredentials() browser.Credentials {
	j.mu.Lock()
	defer j.mu.Unlock()
	c := j.creds
	j.creds = browser.Credentials{}
	return c
}

// ResolveChallenge releases a run paused on a manual challenge.
func (j *Job) ResolveChallenge() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusAwaitingManual {
		return ErrNotAwaitingChallenge
	}
	select {
	case j.challenge <- struct{}{}:
	default:
	}
	return nil
}

func (j *Job) awaitChallenge(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case <-j.challenge:
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("manual challenge not confirmed within %s", timeout)
		}
		return ctx.Err()
	}
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	ProfileURL string    `json:"profile_url"`
	Status     JobStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Errors     []string  `json:"errors"`
	Result     *Result   `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	return JobSnapshot{
		ID:         j.ID,
		ProfileURL: j.ProfileURL,
		Status:     j.Status,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
		Errors:     errs,
		Result:     j.result,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs older than the TTL. Running jobs stay.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
