package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/google/uuid"
)

// ManagerConfig sizes the job queue and worker pool.
type ManagerConfig struct {
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration
	// ChallengeTimeout bounds how long a job waits for an operator to
	// confirm a manual challenge.
	ChallengeTimeout time.Duration
	OutputDir        string
}

// runner is the part of Orchestrator a JobManager needs.
type runner interface {
	ExtractAndRender(ctx context.Context, req Request) *Result
}

// JobManager runs extraction pipelines on a bounded worker pool.
type JobManager struct {
	jobs  *JobStore
	queue chan *Job
	run   runner
	cfg   ManagerConfig
	log   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards stopped and the queue send against close in Stop.
	mu      sync.Mutex
	stopped bool
}

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("job manager is shutting down")

func NewJobManager(cfg ManagerConfig, run runner, log *slog.Logger) *JobManager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.ChallengeTimeout <= 0 {
		cfg.ChallengeTimeout = 10 * time.Minute
	}
	return &JobManager{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		run:   run,
		cfg:   cfg,
		log:   log,
	}
}

// Start launches worker goroutines.
func (m *JobManager) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for range m.cfg.WorkerCount {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-m.queue:
					if !ok {
						return
					}
					m.process(workerCtx, job)
				}
			}
		}()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				m.jobs.Cleanup()
			}
		}
	}()
}

// Stop cancels running jobs and waits for workers to exit. Later Submit
// calls fail with ErrStopped.
func (m *JobManager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.queue)
	m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Submit validates input and queues a new extraction job.
func (m *JobManager) Submit(profileURL string, creds browser.Credentials) (*Job, error) {
	if err := browser.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	if _, err := browser.ValidateProfileURL(profileURL); err != nil {
		return nil, err
	}

	job := NewJob(uuid.New().String(), profileURL, creds)
	m.jobs.Put(job)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		m.reject(job, ErrStopped.Error())
		return job, ErrStopped
	}
	select {
	case m.queue <- job:
		return job, nil
	default:
		m.reject(job, "queue full")
		return job, fmt.Errorf("job queue is full (%d)", m.cfg.MaxQueueSize)
	}
}

func (m *JobManager) reject(job *Job, reason string) {
	job.takeCredentials()
	job.AddError(reason)
	job.SetStatus(StatusFailed)
}

// Get returns a job by ID, or nil.
func (m *JobManager) Get(id string) *Job {
	return m.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (m *JobManager) QueueDepth() int {
	return len(m.queue)
}

func (m *JobManager) process(ctx context.Context, job *Job) {
	log := m.log.With("job_id", job.ID)
	log.Info("job.started", "profile_url", job.ProfileURL)

	res := m.run.ExtractAndRender(ctx, Request{
		ProfileURL:  job.ProfileURL,
		Credentials: job.takeCredentials(),
		OutputDir:   m.cfg.OutputDir,
		Resolver: browser.ResolverFunc(func(ctx context.Context) error {
			return job.awaitChallenge(ctx, m.cfg.ChallengeTimeout)
		}),
		Observe: func(s Stage) {
			if status, ok := statusForStage(s); ok {
				job.SetStatus(status)
			}
		},
	})
	job.finish(res)
	log.Info("job.finished", "outcome", res.Outcome, "stage", res.Stage)
}
