package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/jobscribe-backend/internal/http/response"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/schema"
)

type SchemaHandler struct {
	schemas    *schema.Provider
	databaseID string
	log        *logger.Logger
}

func NewSchemaHandler(schemas *schema.Provider, databaseID string, log *logger.Logger) *SchemaHandler {
	return &SchemaHandler{
		schemas:    schemas,
		databaseID: databaseID,
		log:        log.With("service", "SchemaHandler"),
	}
}

type schemaFieldSummary struct {
	Kind     schema.FieldKind `json:"kind"`
	Required bool             `json:"required"`
	Options  []string         `json:"options,omitempty"`
}

func (h *SchemaHandler) GetSchema(c *gin.Context) {
	refresh := c.Query("refresh") == "1"
	s, err := h.schemas.Get(c.Request.Context(), h.databaseID, refresh)
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "schema_fetch_failed", err)
		return
	}

	fields := make(map[string]schemaFieldSummary, len(s.Fields))
	for _, name := range s.FieldNames() {
		f := s.Fields[name]
		fields[name] = schemaFieldSummary{
			Kind:     f.Kind,
			Required: f.Required,
			Options:  f.OptionLabels(),
		}
	}

	response.RespondOK(c, gin.H{
		"id":          s.ID,
		"title":       s.Title,
		"title_field": s.TitleField,
		"url_field":   s.URLField,
		"fetched_at":  s.FetchedAt,
		"fields":      fields,
		"cache":       h.schemas.CacheInfo(),
	})
}

// InvalidateCache drops every cached snapshot.
func (h *SchemaHandler) InvalidateCache(c *gin.Context) {
	h.schemas.Invalidate()
	response.RespondOK(c, gin.H{"invalidated": true})
}
