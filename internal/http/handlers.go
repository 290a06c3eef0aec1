package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/piicrypt/internal/httputil"
	jobDomain "github.com/allisson/piicrypt/internal/job/domain"
)

const readinessTimeout = 2 * time.Second

// jobResponse is the admin view of a job. The payload carries plaintext PII
// and is never exposed.
type jobResponse struct {
	ID             string     `json:"id"`
	BatchIndex     int        `json:"batch_index"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	MaxAttempts    int        `json:"max_attempts"`
	WorkerID       string     `json:"worker_id,omitempty"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
	AvailableAt    time.Time  `json:"available_at"`
	LastError      *string    `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func mapJobToResponse(job *jobDomain.Job) jobResponse {
	return jobResponse{
		ID:             job.ID.String(),
		BatchIndex:     job.BatchIndex,
		Status:         string(job.Status),
		Attempts:       job.Attempts,
		MaxAttempts:    job.MaxAttempts,
		WorkerID:       job.WorkerID,
		LeaseExpiresAt: job.LeaseExpiresAt,
		AvailableAt:    job.AvailableAt,
		LastError:      job.LastError,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready when the queue answers and, for SQL
// backends, the database responds to a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	components := gin.H{}
	ready := true

	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if s.queue == nil {
		components["queue"] = "error"
		ready = false
	} else if _, err := s.queue.Stats(ctx); err != nil {
		components["queue"] = "error"
		ready = false
	} else {
		components["queue"] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

func (s *Server) progressHandler(c *gin.Context) {
	if s.reporter == nil {
		c.JSON(http.StatusNotFound, httputil.ErrorResponse{
			Error:   "not_found",
			Message: "No pipeline run is tracked by this process",
		})
		return
	}
	c.JSON(http.StatusOK, s.reporter.Snapshot())
}

func (s *Server) queueStatsHandler(c *gin.Context) {
	stats, err := s.queue.Stats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, s.logger)
		return
	}

	total := 0
	counts := make(map[string]int, len(stats))
	for status, n := range stats {
		counts[string(status)] = n
		total += n
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "statuses": counts})
}

func (s *Server) listJobsHandler(c *gin.Context) {
	var status jobDomain.Status
	if raw := c.Query("status"); raw != "" {
		parsed, err := jobDomain.ParseStatus(raw)
		if err != nil {
			httputil.HandleErrorGin(c, err, s.logger)
			return
		}
		status = parsed
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, s.logger)
		return
	}

	jobs, err := s.queue.List(c.Request.Context(), status, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, s.logger)
		return
	}

	data := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		data = append(data, mapJobToResponse(job))
	}

	c.JSON(http.StatusOK, gin.H{"data": data, "offset": offset, "limit": limit})
}
