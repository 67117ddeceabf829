package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emirhncann/portable-thermal-printer/internal/core"
	"github.com/emirhncann/portable-thermal-printer/internal/db"
)

// maxDocumentSize caps uploaded documents at 32 MiB. Large enough for a
// multi-page zip of scans, small enough to hold in memory per job.
const maxDocumentSize = 32 << 20

type JobResponse struct {
	ID           string     `json:"id"`
	State        string     `json:"state"`
	Page         int        `json:"page,omitempty"`
	TotalPages   int        `json:"total_pages,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SubmittedBy  string     `json:"submitted_by"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Duration     *int64     `json:"duration_ms,omitempty"`
}

type ListHistoryQuery struct {
	State    string `form:"state"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
	Limit    int    `form:"limit" binding:"max=100"`
	Offset   int    `form:"offset"`
}

type JobHandler struct {
	manager *core.Manager
}

func NewJobHandler(manager *core.Manager) *JobHandler {
	return &JobHandler{manager: manager}
}

// memorySource keeps an uploaded document in memory so the job can open it
// after the HTTP request has finished.
type memorySource struct {
	data []byte
}

func (s *memorySource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// SubmitJob accepts a multipart upload: a required "document" file (an image
// or a zip of images) and an optional "settings" JSON field overriding the
// defaults.
func (h *JobHandler) SubmitJob(c *gin.Context) {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document file is required"})
		return
	}
	if fileHeader.Size > maxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document too large"})
		return
	}

	settings := defaultPrintSettings(c.Request.Context())
	if raw := c.PostForm("settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings JSON"})
			return
		}
	}
	if err := settings.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read document"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxDocumentSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read document"})
		return
	}
	if len(data) > maxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document too large"})
		return
	}

	job, err := h.manager.Submit(&memorySource{data: data}, settings, c.ClientIP())
	if err != nil {
		if errors.Is(err, core.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "print queue is full"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      job.ID,
		"state":   job.State().String(),
		"message": "job submitted",
	})
}

// GetJob reports a live job if the manager still knows it, falling back to
// the persisted history for jobs that finished before a restart.
func (h *JobHandler) GetJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.manager.GetJob(id)
	if err == nil {
		c.JSON(http.StatusOK, snapshotToResponse(job.Snapshot()))
		return
	}

	record, err := db.Jobs.GetRecordByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}

	c.JSON(http.StatusOK, recordToResponse(record))
}

func (h *JobHandler) CancelJob(c *gin.Context) {
	id := c.Param("id")

	if err := h.manager.Cancel(id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cancellation requested"})
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	snapshots := h.manager.ListJobs()

	responses := make([]JobResponse, 0, len(snapshots))
	for _, s := range snapshots {
		responses = append(responses, snapshotToResponse(s))
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  responses,
		"count": len(responses),
	})
}

func (h *JobHandler) ListHistory(c *gin.Context) {
	var query ListHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := db.JobFilter{
		State:  query.State,
		Limit:  query.Limit,
		Offset: query.Offset,
	}

	if query.FromDate != "" {
		t, err := time.Parse("2006-01-02", query.FromDate)
		if err == nil {
			filter.FromDate = &t
		}
	}
	if query.ToDate != "" {
		t, err := time.Parse("2006-01-02", query.ToDate)
		if err == nil {
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.ToDate = &endOfDay
		}
	}

	records, err := db.Jobs.ListRecords(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list job history"})
		return
	}

	responses := make([]JobResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, recordToResponse(r))
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":   responses,
		"limit":  filter.Limit,
		"offset": filter.Offset,
		"count":  len(responses),
	})
}

func (h *JobHandler) GetStats(c *gin.Context) {
	stats, err := db.Jobs.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func snapshotToResponse(s core.JobSnapshot) JobResponse {
	resp := JobResponse{
		ID:           s.ID,
		State:        s.State.String(),
		Page:         s.Page,
		TotalPages:   s.TotalPages,
		ErrorMessage: s.Reason,
		SubmittedBy:  s.SubmittedBy,
		CreatedAt:    s.CreatedAt,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
	}
	if s.StartedAt != nil && s.CompletedAt != nil {
		duration := s.CompletedAt.Sub(*s.StartedAt).Milliseconds()
		resp.Duration = &duration
	}
	return resp
}

func recordToResponse(r *db.JobRecord) JobResponse {
	resp := JobResponse{
		ID:           r.ID,
		State:        r.State,
		Page:         r.PagesPrinted,
		TotalPages:   r.TotalPages,
		ErrorMessage: r.ErrorMessage,
		SubmittedBy:  r.SubmittedBy,
		CreatedAt:    r.CreatedAt,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
	if r.StartedAt != nil && r.CompletedAt != nil {
		duration := r.CompletedAt.Sub(*r.StartedAt).Milliseconds()
		resp.Duration = &duration
	}
	return resp
}

func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/jobs", h.ListJobs)
	r.POST("/jobs", h.SubmitJob)
	r.GET("/jobs/history", h.ListHistory)
	r.GET("/jobs/stats", h.GetStats)
	r.GET("/jobs/:id", h.GetJob)
	r.POST("/jobs/:id/cancel", h.CancelJob)
}
