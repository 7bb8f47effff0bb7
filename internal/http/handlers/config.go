package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/jobscribe-backend/internal/http/response"
)

// ConfigHandler exposes the sanitized effective configuration. Secrets are
// stripped by the caller before construction.
type ConfigHandler struct {
	view map[string]any
}

func NewConfigHandler(view map[string]any) *ConfigHandler {
	return &ConfigHandler{view: view}
}

func (h *ConfigHandler) GetConfig(c *gin.Context) {
	response.RespondOK(c, h.view)
}
