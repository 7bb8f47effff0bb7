package app

import (
	"github.com/yungbote/jobscribe-backend/internal/extract"
	"github.com/yungbote/jobscribe-backend/internal/normalize"
	"github.com/yungbote/jobscribe-backend/internal/pipeline"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/schema"
	"github.com/yungbote/jobscribe-backend/internal/writer"
)

// Services holds the pipeline components in dependency order.
type Services struct {
	Schemas    *schema.Provider
	Extractor  *extract.Extractor
	Normalizer *normalize.Normalizer
	Writer     *writer.Writer
	Pipeline   *pipeline.Pipeline
}

func wireServices(log *logger.Logger, cfg Config, clients Clients) Services {
	schemas := schema.NewProvider(clients.RecordStore, log, cfg.SchemaCacheTTL, cfg.SchemaCacheMaxSize)

	extractor := extract.NewExtractor(clients.OpenAI, log, extract.Config{
		MaxRetries: cfg.ExtractMaxRetries,
		RetryDelay: cfg.ExtractRetryDelay,
	})

	normalizer := normalize.NewNormalizer(log, normalize.Config{
		FuzzyThreshold: cfg.FuzzyThreshold,
		MaxTextLength:  cfg.MaxTextLength,
		StrictMode:     cfg.StrictMode,
	})

	recordWriter := writer.NewWriter(clients.RecordStore, log, cfg.DatabaseID)

	pipe := pipeline.NewPipeline(schemas, clients.Fetchd, extractor, normalizer, recordWriter, log, pipeline.Config{
		DatabaseID:     cfg.DatabaseID,
		FetchWaitHint:  cfg.FetchWaitHint,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	return Services{
		Schemas:    schemas,
		Extractor:  extractor,
		Normalizer: normalizer,
		Writer:     recordWriter,
		Pipeline:   pipe,
	}
}
