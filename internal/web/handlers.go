package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type EnrichRequest struct {
	Artist string `json:"artist"`
}

type JobResponse struct {
	ID          string    `json:"id"`
	Artist      string    `json:"artist"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	Label       string    `json:"label,omitempty"`
	Error       string    `json:"error,omitempty"`
	Complete    int       `json:"complete"`
	Partial     int       `json:"partial"`
	Unenriched  int       `json:"unenriched"`
	CreatedAt   string    `json:"created_at"`
	StartedAt   *string   `json:"started_at,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"`
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EnrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Artist == "" {
		http.Error(w, "Artist is required", http.StatusBadRequest)
		return
	}

	job := s.jobMgr.CreateJob(req.Artist)
	s.logger.Info("Created job %s for artist %s", job.ID, req.Artist)

	// Run the batch in the background
	go s.processJob(job)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = jobToResponse(job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id} or /api/jobs/{id}/cancel
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	// Handle GET /api/jobs/{id}
	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jobToResponse(job))
		return
	}

	// Handle POST /api/jobs/{id}/cancel
	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel" {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if job.Cancel != nil {
			job.Cancel()
		}

		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

func (s *Server) processJob(job *Job) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Cancel = cancel
		j.Status = StatusRunning
	})

	s.logger.Info("Starting job %s", job.ID)

	stats, err := s.enrich(ctx, job.Artist, func(processed, total int, label string) {
		s.jobMgr.UpdateJob(job.ID, func(j *Job) {
			j.Progress = processed
			j.Total = total
			j.Label = label
		})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				j.Status = StatusCancelled
			})
			return
		}
		s.logger.Error("Job %s failed: %v", job.ID, err)
		s.jobMgr.UpdateJob(job.ID, func(j *Job) {
			j.Status = StatusFailed
			j.Error = err.Error()
		})
		return
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusCompleted
		j.Complete = len(stats.Complete)
		j.Partial = len(stats.Partial)
		j.Unenriched = len(stats.Unenriched)
	})

	s.logger.Info("Job %s completed: %d complete, %d partial, %d unenriched",
		job.ID, len(stats.Complete), len(stats.Partial), len(stats.Unenriched))
}

func jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:         job.ID,
		Artist:     job.Artist,
		Status:     job.Status,
		Progress:   job.Progress,
		Total:      job.Total,
		Label:      job.Label,
		Error:      job.Error,
		Complete:   job.Complete,
		Partial:    job.Partial,
		Unenriched: job.Unenriched,
		CreatedAt:  job.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format("2006-01-02 15:04:05")
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format("2006-01-02 15:04:05")
		resp.CompletedAt = &completed
	}

	return resp
}
