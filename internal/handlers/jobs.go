package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fraghub/metrics-api/internal/models"
)

// EnqueueJob accepts an aggregation job and queues it for the worker pool.
func (h *Handler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	var job models.AggregationJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Malformed job payload")
		return
	}

	id, err := h.jobs.Enqueue(&job)
	if err != nil {
		h.logger.Warnw("Job rejected", "type", job.Type, "error", err)
		h.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.jsonResponse(w, http.StatusAccepted, map[string]interface{}{
		"id":    id,
		"state": models.JobStateQueued,
	})
}

// GetJobStatus reports the state, progress and result of a job.
func (h *Handler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	status, ok := h.jobs.Status(id)
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Unknown job")
		return
	}
	h.jsonResponse(w, http.StatusOK, status)
}

// RemoveJob withdraws a job that has not started yet.
func (h *Handler) RemoveJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	if !h.jobs.Remove(id) {
		h.errorResponse(w, http.StatusConflict, "Job already started or unknown")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"state": "removed"})
}
