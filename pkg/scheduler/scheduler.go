package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"eventphoto-api/pkg/logger"
)

// Task is a scheduled unit of work. ctx is cancelled when the scheduler stops.
type Task func(ctx context.Context) error

type JobScheduler interface {
	Start()
	Stop()
	AddJob(id, cronExpr string, task Task) error
	RemoveJob(id string) error
	ListJobs() []JobStatus
	IsRunning() bool
}

// JobStatus is a snapshot of one registered job
type JobStatus struct {
	ID        string     `json:"id"`
	CronExpr  string     `json:"cronExpr"`
	Running   bool       `json:"running"`
	Runs      int        `json:"runs"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

type jobEntry struct {
	status JobStatus
	job    *gocron.Job
}

type GocronScheduler struct {
	scheduler *gocron.Scheduler
	jobs      map[string]*jobEntry
	mu        sync.RWMutex
	running   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewJobScheduler creates a UTC scheduler. A job never overlaps with its own
// previous run.
func NewJobScheduler() JobScheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &GocronScheduler{
		scheduler: s,
		jobs:      make(map[string]*jobEntry),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *GocronScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		logger.SchedulerWarn("start", "Scheduler is already running", nil)
		return
	}

	s.scheduler.StartAsync()
	s.running = true
	logger.Scheduler("started", "Job scheduler started", map[string]interface{}{"jobs": len(s.jobs)})
}

func (s *GocronScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		logger.SchedulerWarn("stop", "Scheduler is not running", nil)
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.scheduler.Stop()
	logger.Scheduler("stopped", "Job scheduler stopped", nil)
}

func (s *GocronScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *GocronScheduler) AddJob(id, cronExpr string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job with ID %s already exists", id)
	}

	job, err := s.scheduler.Cron(cronExpr).Do(s.execute, id, task)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	nextRun := job.NextRun()
	s.jobs[id] = &jobEntry{
		status: JobStatus{ID: id, CronExpr: cronExpr, NextRun: &nextRun},
		job:    job,
	}

	logger.Scheduler("job_added", "Job added", map[string]interface{}{
		"job_id":    id,
		"cron_expr": cronExpr,
		"next_run":  nextRun.Format(time.RFC3339),
	})
	return nil
}

func (s *GocronScheduler) execute(id string, task Task) {
	start := time.Now()

	s.mu.Lock()
	entry, ok := s.jobs[id]
	if ok {
		entry.status.Running = true
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	logger.Scheduler("job_executing", "Executing job", map[string]interface{}{"job_id": id})
	err := task(s.ctx)

	s.mu.Lock()
	entry.status.Running = false
	entry.status.Runs++
	entry.status.LastRun = &start
	entry.status.LastError = ""
	if err != nil {
		entry.status.LastError = err.Error()
	}
	s.mu.Unlock()

	data := map[string]interface{}{"job_id": id, "duration": time.Since(start).String()}
	if err != nil {
		logger.SchedulerError("job_failed", "Job failed", err, data)
		return
	}
	logger.Scheduler("job_completed", "Job completed", data)
}

func (s *GocronScheduler) RemoveJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job with ID %s not found", id)
	}

	s.scheduler.RemoveByReference(entry.job)
	delete(s.jobs, id)
	logger.Scheduler("job_removed", "Job removed", map[string]interface{}{"job_id": id})
	return nil
}

// ListJobs returns copies sorted by ID
func (s *GocronScheduler) ListJobs() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		status := entry.status
		if status.LastRun != nil {
			lastRun := *status.LastRun
			status.LastRun = &lastRun
		}
		nextRun := entry.job.NextRun()
		status.NextRun = &nextRun
		jobs = append(jobs, status)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}

func ValidateCronExpression(cronExpr string) error {
	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Cron(cronExpr).Do(func() {}); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
