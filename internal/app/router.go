package app

import (
	"context"

	apphttp "github.com/yungbote/jobscribe-backend/internal/http"
	httpH "github.com/yungbote/jobscribe-backend/internal/http/handlers"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/platform/openai"
)

// llmCheck adapts the chat client to the health handler's Pinger.
type llmCheck struct {
	llm openai.Client
}

func (p llmCheck) Ping(ctx context.Context) error {
	_, err := p.llm.GenerateText(ctx, "You are a connectivity check.", "Reply with ok.")
	return err
}

func wireServer(log *logger.Logger, cfg Config, clients Clients, services Services) *apphttp.Server {
	healthHandler := httpH.NewHealthHandler(log, map[string]httpH.Pinger{
		"record_store": services.Writer,
		"fetchd":       clients.Fetchd,
		"llm":          llmCheck{llm: clients.OpenAI},
	})
	ingestHandler := httpH.NewIngestHandler(services.Pipeline, log)
	schemaHandler := httpH.NewSchemaHandler(services.Schemas, cfg.DatabaseID, log)
	configHandler := httpH.NewConfigHandler(cfg.Sanitized())

	return apphttp.NewServer(apphttp.RouterConfig{
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,

		HealthHandler: healthHandler,
		IngestHandler: ingestHandler,
		SchemaHandler: schemaHandler,
		ConfigHandler: configHandler,
	})
}
