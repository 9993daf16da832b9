// Package handlers exposes the aggregation engine over HTTP: profile
// lookups with cache-aside reads, job submission and job status.
package handlers

import (
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/aggregation"
	"github.com/fraghub/metrics-api/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// JobQueue is the slice of the worker pool the handlers use.
type JobQueue interface {
	Enqueue(job *models.AggregationJob) (uuid.UUID, error)
	Remove(id uuid.UUID) bool
	Status(id uuid.UUID) (models.JobStatus, bool)
	QueueDepth() int
}

type Config struct {
	Aggregation aggregation.Service
	Jobs        JobQueue
	Postgres    *pgxpool.Pool
	ClickHouse  driver.Conn
	Redis       *redis.Client
	Logger      *zap.Logger

	AllowedOrigins []string
}

type Handler struct {
	aggregation aggregation.Service
	jobs        JobQueue
	pg          *pgxpool.Pool
	ch          driver.Conn
	redis       *redis.Client
	logger      *zap.SugaredLogger

	allowedOrigins []string
}

func New(cfg Config) *Handler {
	return &Handler{
		aggregation:    cfg.Aggregation,
		jobs:           cfg.Jobs,
		pg:             cfg.Postgres,
		ch:             cfg.ClickHouse,
		redis:          cfg.Redis,
		logger:         cfg.Logger.Sugar(),
		allowedOrigins: cfg.AllowedOrigins,
	}
}

// Routes builds the service router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/players/{steamID}/profile", h.GetPlayerProfile)
		r.Get("/teams/{teamID}/profile", h.GetTeamProfile)

		r.Post("/jobs", h.EnqueueJob)
		r.Get("/jobs/{jobID}", h.GetJobStatus)
		r.Delete("/jobs/{jobID}", h.RemoveJob)
	})

	return r
}
