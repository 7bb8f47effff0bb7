package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/jobscribe-backend/internal/http/response"
	"github.com/yungbote/jobscribe-backend/internal/pipeline"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/schema"
)

// maxBatchURLs bounds one batch request.
const maxBatchURLs = 50

type IngestHandler struct {
	pipe *pipeline.Pipeline
	log  *logger.Logger
}

func NewIngestHandler(pipe *pipeline.Pipeline, log *logger.Logger) *IngestHandler {
	return &IngestHandler{pipe: pipe, log: log.With("service", "IngestHandler")}
}

type ingestURLRequest struct {
	URL         string `json:"url" binding:"required"`
	ForceCreate bool   `json:"force_create"`
}

func (h *IngestHandler) IngestURL(c *gin.Context) {
	var req ingestURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.pipe.ProcessOne(c.Request.Context(), req.URL, req.ForceCreate)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

type ingestBatchRequest struct {
	URLs          []string `json:"urls" binding:"required"`
	MaxConcurrent int64    `json:"max_concurrent"`
	StartDelayMS  int      `json:"start_delay_ms"`
	ForceCreate   bool     `json:"force_create"`
}

func (h *IngestHandler) IngestBatch(c *gin.Context) {
	var req ingestBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.URLs) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("urls must not be empty"))
		return
	}
	if len(req.URLs) > maxBatchURLs {
		response.RespondError(c, http.StatusBadRequest, "batch_too_large",
			fmt.Errorf("at most %d urls per batch, got %d", maxBatchURLs, len(req.URLs)))
		return
	}

	results, report, err := h.pipe.ProcessBatch(c.Request.Context(), req.URLs, pipeline.BatchOptions{
		MaxConcurrency: req.MaxConcurrent,
		StartDelay:     time.Duration(req.StartDelayMS) * time.Millisecond,
		ForceCreate:    req.ForceCreate,
	})
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": results, "report": report})
}

func respondPipelineError(c *gin.Context, err error) {
	var fetchErr *schema.FetchError
	if errors.As(err, &fetchErr) {
		response.RespondError(c, http.StatusBadGateway, "schema_fetch_failed", err)
		return
	}
	response.RespondError(c, http.StatusInternalServerError, "pipeline_error", err)
}
