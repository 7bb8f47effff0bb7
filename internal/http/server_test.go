package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/jobscribe-backend/internal/http/handlers"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
)

func TestNewServerServesRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(RouterConfig{
		Log:           logger.NewNop(),
		HealthHandler: httpH.NewHealthHandler(logger.NewNop(), nil),
	})
	if s.Engine == nil {
		t.Fatalf("server has no engine")
	}

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthcheck: got status %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown route: got status %d", w.Code)
	}
}
