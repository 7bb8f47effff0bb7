package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/platform/openai"
	"github.com/yungbote/jobscribe-backend/internal/schema"
)

// Result is the outcome of one extraction, successful or not. Refusals,
// malformed payloads and transport failures all land here as OK=false; the
// extractor never returns an error to its caller.
type Result struct {
	OK         bool
	Fields     map[string]any
	Diagnostic string
	Attempts   int
	Elapsed    time.Duration
}

// ToolCaller is the slice of the LLM client the extractor needs.
type ToolCaller interface {
	CallTool(ctx context.Context, system, user string, tool openai.ToolSpec) (map[string]any, error)
}

type Config struct {
	MaxRetries int
	RetryDelay time.Duration
}

// Extractor turns page text into raw schema-shaped fields via a forced LLM
// tool call. Retry policy lives here, not in the LLM client.
type Extractor struct {
	llm        ToolCaller
	log        *logger.Logger
	maxRetries int
	retryDelay time.Duration
}

func NewExtractor(llm ToolCaller, log *logger.Logger, cfg Config) *Extractor {
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Extractor{
		llm:        llm,
		log:        log.With("service", "Extractor"),
		maxRetries: retries,
		retryDelay: delay,
	}
}

// Extract asks the model to fill the schema's extraction contract from
// pageText. The schema's URL field is always overwritten with sourceURL: the
// caller, not the model, is the source of truth for identity.
func (e *Extractor) Extract(ctx context.Context, pageText, sourceURL string, s *schema.DatabaseSchema) Result {
	start := time.Now()

	contract := schema.BuildContract(s)
	instructions := schema.BuildInstructions(s)
	tool := openai.ToolSpec{
		Name:        contract.Name,
		Description: contract.Description,
		Parameters:  contract.Parameters,
	}
	user := fmt.Sprintf("Extract the job posting information from this page content:\n\nSource URL: %s\n\n%s", sourceURL, pageText)

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := e.retryDelay * time.Duration(attempt)
			e.log.Warn("extraction retry",
				"url", sourceURL,
				"attempt", attempt+1,
				"delay", delay,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return Result{
					OK:         false,
					Diagnostic: fmt.Sprintf("cancelled: %v", ctx.Err()),
					Attempts:   attempts,
					Elapsed:    time.Since(start),
				}
			case <-time.After(delay):
			}
		}
		attempts++

		fields, err := e.llm.CallTool(ctx, instructions, user, tool)
		if err != nil {
			lastErr = err
			continue
		}
		if len(fields) == 0 {
			lastErr = fmt.Errorf("model returned no fields")
			continue
		}

		if s.URLField != "" {
			fields[s.URLField] = sourceURL
		}
		e.log.Info("extraction succeeded", "url", sourceURL, "fields", len(fields), "attempts", attempts)
		return Result{
			OK:       true,
			Fields:   fields,
			Attempts: attempts,
			Elapsed:  time.Since(start),
		}
	}

	return Result{
		OK:         false,
		Diagnostic: fmt.Sprintf("extraction failed after %d attempts: %v", attempts, lastErr),
		Attempts:   attempts,
		Elapsed:    time.Since(start),
	}
}
