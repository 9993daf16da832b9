// Package worker runs aggregation jobs asynchronously. A buffered pool
// decouples job submission from the CPU-bound profile computation, with
// per-job stall detection and partial-failure semantics for batches.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/aggregation"
	"github.com/fraghub/metrics-api/internal/models"
)

// Prometheus metrics
var (
	jobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraghub_aggregation_jobs_enqueued_total",
		Help: "Total number of aggregation jobs accepted into the queue",
	})

	jobsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraghub_aggregation_jobs_rejected_total",
		Help: "Total number of aggregation jobs rejected (full queue or invalid payload)",
	})

	jobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraghub_aggregation_jobs_completed_total",
		Help: "Total number of aggregation jobs completed",
	})

	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraghub_aggregation_jobs_failed_total",
		Help: "Total number of aggregation jobs failed",
	})

	jobsStalled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraghub_aggregation_jobs_stalled_total",
		Help: "Total number of stall windows expired across all jobs",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fraghub_aggregation_queue_depth",
		Help: "Current depth of the aggregation job queue",
	})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraghub_aggregation_job_duration_seconds",
		Help:    "Duration of aggregation jobs",
		Buckets: prometheus.DefBuckets,
	})
)

// PoolConfig configures the aggregation worker pool.
type PoolConfig struct {
	Concurrency  int
	QueueSize    int
	StallTimeout time.Duration
	MaxStalled   int
	Service      aggregation.Service
	Logger       *zap.Logger
}

// Pool manages the aggregation workers and the status of every job it has
// seen since startup.
type Pool struct {
	config    PoolConfig
	jobQueue  chan *models.AggregationJob
	statuses  map[uuid.UUID]*models.JobStatus
	mu        sync.RWMutex
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	validator *validator.Validate
	logger    *zap.SugaredLogger
}

func NewPool(cfg PoolConfig) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = 5 * time.Minute
	}
	if cfg.MaxStalled <= 0 {
		cfg.MaxStalled = 2
	}

	return &Pool{
		config:    cfg,
		jobQueue:  make(chan *models.AggregationJob, cfg.QueueSize),
		statuses:  make(map[uuid.UUID]*models.JobStatus),
		validator: validator.New(),
		logger:    cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.Concurrency; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Infow("Aggregation pool started",
		"workers", p.config.Concurrency,
		"queueSize", p.config.QueueSize,
		"stallTimeout", p.config.StallTimeout,
	)
}

// Stop drains the queue and waits for in-flight jobs.
func (p *Pool) Stop() {
	p.logger.Info("Stopping aggregation pool...")
	p.cancel()
	close(p.jobQueue)
	p.wg.Wait()
	p.logger.Info("Aggregation pool stopped")
}

// Enqueue validates and queues a job. The returned ID tracks it through
// Status. A full queue rejects rather than blocks.
func (p *Pool) Enqueue(job *models.AggregationJob) (uuid.UUID, error) {
	if err := p.validator.Struct(job); err != nil {
		jobsRejected.Inc()
		return uuid.Nil, fmt.Errorf("invalid job payload: %w", err)
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.EnqueuedAt = time.Now().UTC()

	p.setStatus(&models.JobStatus{
		ID:        job.ID,
		Type:      job.Type,
		State:     models.JobStateQueued,
		UpdatedAt: job.EnqueuedAt,
	})

	select {
	case p.jobQueue <- job:
		jobsEnqueued.Inc()
		queueDepth.Set(float64(len(p.jobQueue)))
		return job.ID, nil
	default:
		jobsRejected.Inc()
		p.deleteStatus(job.ID)
		return uuid.Nil, fmt.Errorf("job queue full (%d)", p.config.QueueSize)
	}
}

// Remove withdraws a job that has not started. Active jobs cannot be
// cancelled mid-computation.
func (p *Pool) Remove(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.statuses[id]
	if !ok || st.State != models.JobStateQueued {
		return false
	}
	st.State = models.JobStateFailed
	st.Error = "removed before start"
	st.UpdatedAt = time.Now().UTC()
	return true
}

// Status returns a copy of the job's current status.
func (p *Pool) Status(id uuid.UUID) (models.JobStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.statuses[id]
	if !ok {
		return models.JobStatus{}, false
	}
	return *st, true
}

// QueueDepth returns the number of jobs waiting to start.
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		queueDepth.Set(float64(len(p.jobQueue)))
		if p.removed(job.ID) {
			continue
		}
		p.runWithStallWatch(job)
	}
	p.logger.Debugw("Worker exited", "worker", id)
}

func (p *Pool) removed(id uuid.UUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.statuses[id]
	return ok && st.State == models.JobStateFailed
}

// runWithStallWatch executes the job and enforces the lock duration. The
// computation itself cannot be cancelled, so a stall grants another window;
// once the stall budget is spent the job is failed and the late result
// discarded.
func (p *Pool) runWithStallWatch(job *models.AggregationJob) {
	p.updateStatus(job.ID, func(st *models.JobStatus) {
		st.State = models.JobStateActive
	})

	start := time.Now()
	done := make(chan *models.JobResult, 1)
	go func() {
		done <- p.execute(job)
	}()

	timer := time.NewTimer(p.config.StallTimeout)
	defer timer.Stop()

	stalls := 0
	for {
		select {
		case result := <-done:
			jobDuration.Observe(time.Since(start).Seconds())
			p.finish(job, result)
			return
		case <-timer.C:
			stalls++
			jobsStalled.Inc()
			p.logger.Warnw("Aggregation job stalled",
				"job_id", job.ID, "type", job.Type, "stalls", stalls)
			if stalls >= p.config.MaxStalled {
				jobsFailed.Inc()
				p.updateStatus(job.ID, func(st *models.JobStatus) {
					st.State = models.JobStateFailed
					st.StallCount = stalls
					st.Error = fmt.Sprintf("stalled %d times, giving up", stalls)
				})
				return
			}
			p.updateStatus(job.ID, func(st *models.JobStatus) {
				st.State = models.JobStateStalled
				st.StallCount = stalls
			})
			timer.Reset(p.config.StallTimeout)
		}
	}
}

func (p *Pool) finish(job *models.AggregationJob, result *models.JobResult) {
	allFailed := result.PlayersUpdated == 0 && result.TeamsUpdated == 0 && len(result.Errors) > 0
	if allFailed {
		jobsFailed.Inc()
		p.updateStatus(job.ID, func(st *models.JobStatus) {
			st.State = models.JobStateFailed
			st.Progress = 100
			st.Result = result
			st.Error = result.Errors[0]
		})
		p.logger.Errorw("Aggregation job failed",
			"job_id", job.ID, "type", job.Type, "errors", result.Errors)
		return
	}

	jobsCompleted.Inc()
	p.updateStatus(job.ID, func(st *models.JobStatus) {
		st.State = models.JobStateCompleted
		st.Progress = 100
		st.Result = result
	})
	p.logger.Infow("Aggregation job completed",
		"job_id", job.ID,
		"type", job.Type,
		"players", result.PlayersUpdated,
		"teams", result.TeamsUpdated,
		"item_errors", len(result.Errors),
		"duration", result.Duration,
	)
}

// execute dispatches by job type. Batch jobs process items sequentially and
// report integer progress after each one; per-item failures are collected
// and the batch keeps going.
func (p *Pool) execute(job *models.AggregationJob) *models.JobResult {
	start := time.Now()
	result := &models.JobResult{Type: job.Type}

	switch job.Type {
	case models.JobUpdatePlayer:
		p.updatePlayers(job, []string{job.SteamID}, result, 0, 1)
	case models.JobUpdateTeam:
		p.updateTeams(job, []string{job.TeamID}, result, 0, 1)
	case models.JobBatchPlayers:
		p.updatePlayers(job, job.SteamIDs, result, 0, len(job.SteamIDs))
	case models.JobBatchTeams:
		p.updateTeams(job, job.TeamIDs, result, 0, len(job.TeamIDs))
	case models.JobFullRecompute:
		p.fullRecompute(job, result)
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("unknown job type %q", job.Type))
	}

	result.Duration = time.Since(start)
	return result
}

func (p *Pool) updatePlayers(job *models.AggregationJob, steamIDs []string, result *models.JobResult, doneSoFar, total int) {
	for i, steamID := range steamIDs {
		if _, err := p.config.Service.PlayerProfile(p.ctx, steamID, job.Window, true); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("player %s: %v", steamID, err))
		} else {
			result.PlayersUpdated++
		}
		p.reportProgress(job.ID, doneSoFar+i+1, total)
	}
}

func (p *Pool) updateTeams(job *models.AggregationJob, teamIDs []string, result *models.JobResult, doneSoFar, total int) {
	for i, teamID := range teamIDs {
		if _, err := p.config.Service.TeamProfile(p.ctx, teamID, job.Window, true); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("team %s: %v", teamID, err))
		} else {
			result.TeamsUpdated++
		}
		p.reportProgress(job.ID, doneSoFar+i+1, total)
	}
}

func (p *Pool) fullRecompute(job *models.AggregationJob, result *models.JobResult) {
	players, err := p.config.Service.ActivePlayers(p.ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list players: %v", err))
	}
	teams, err := p.config.Service.ActiveTeams(p.ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list teams: %v", err))
	}

	total := len(players) + len(teams)
	if total == 0 {
		return
	}
	p.updatePlayers(job, players, result, 0, total)
	p.updateTeams(job, teams, result, len(players), total)
}

func (p *Pool) reportProgress(id uuid.UUID, done, total int) {
	if total <= 0 {
		return
	}
	p.updateStatus(id, func(st *models.JobStatus) {
		st.Progress = done * 100 / total
	})
}

func (p *Pool) setStatus(st *models.JobStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[st.ID] = st
}

func (p *Pool) deleteStatus(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.statuses, id)
}

func (p *Pool) updateStatus(id uuid.UUID, fn func(*models.JobStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.statuses[id]
	if !ok {
		return
	}
	fn(st)
	st.UpdatedAt = time.Now().UTC()
}
