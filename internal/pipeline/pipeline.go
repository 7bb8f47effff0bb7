package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yungbote/jobscribe-backend/internal/extract"
	"github.com/yungbote/jobscribe-backend/internal/normalize"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/schema"
	"github.com/yungbote/jobscribe-backend/internal/writer"
)

// Stage is one phase of per-URL processing.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageFetching    Stage = "fetching"
	StageExtracting  Stage = "extracting"
	StageNormalizing Stage = "normalizing"
	StageWriting     Stage = "writing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Outcome is the item's overall disposition.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeRunning Outcome = "running"
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// ItemResult tracks one URL through the pipeline. Stage order never
// regresses; a failure freezes Stage and the failure fields at the point it
// happened. Timings accumulated before a failure are kept.
type ItemResult struct {
	URL            string                  `json:"url"`
	Stage          Stage                   `json:"stage"`
	Outcome        Outcome                 `json:"outcome"`
	StageElapsed   map[Stage]time.Duration `json:"stage_elapsed"`
	FailureStage   Stage                   `json:"failure_stage,omitempty"`
	FailureMessage string                  `json:"failure_message,omitempty"`
	Write          *writer.Result          `json:"write,omitempty"`
}

func newItemResult(rawURL string) *ItemResult {
	return &ItemResult{
		URL:          rawURL,
		Stage:        StageValidating,
		Outcome:      OutcomePending,
		StageElapsed: make(map[Stage]time.Duration),
	}
}

func (r *ItemResult) fail(stage Stage, msg string) {
	r.Stage = StageFailed
	r.Outcome = OutcomeFailed
	r.FailureStage = stage
	r.FailureMessage = msg
}

// PageFetcher is the external fetch daemon boundary.
type PageFetcher interface {
	FetchPageText(ctx context.Context, pageURL string, waitHint time.Duration) (string, error)
}

// Extractor turns page text into raw fields.
type Extractor interface {
	Extract(ctx context.Context, pageText, sourceURL string, s *schema.DatabaseSchema) extract.Result
}

// Normalizer coerces raw fields into a store-ready record.
type Normalizer interface {
	Normalize(raw map[string]any, s *schema.DatabaseSchema) normalize.Record
}

// Upserter writes the normalized payload.
type Upserter interface {
	Upsert(ctx context.Context, s *schema.DatabaseSchema, payload map[string]any, forceCreate bool) writer.Result
}

type Config struct {
	DatabaseID     string
	FetchWaitHint  time.Duration
	MaxConcurrency int64
}

// Pipeline drives URLs through validate, fetch, extract, normalize and write.
// It is the only component with fan-out logic.
type Pipeline struct {
	schemas   *schema.Provider
	fetcher   PageFetcher
	extractor Extractor
	norm      Normalizer
	upserter  Upserter
	log       *logger.Logger
	cfg       Config
}

func NewPipeline(schemas *schema.Provider, fetcher PageFetcher, extractor Extractor, norm Normalizer, upserter Upserter, log *logger.Logger, cfg Config) *Pipeline {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 3
	}
	return &Pipeline{
		schemas:   schemas,
		fetcher:   fetcher,
		extractor: extractor,
		norm:      norm,
		upserter:  upserter,
		log:       log.With("job", "Pipeline"),
		cfg:       cfg,
	}
}

// ProcessOne runs a single URL end to end. The only returned error is a
// schema fetch failure; everything else lands in the ItemResult.
func (p *Pipeline) ProcessOne(ctx context.Context, rawURL string, forceCreate bool) (*ItemResult, error) {
	s, err := p.schemas.Get(ctx, p.cfg.DatabaseID, false)
	if err != nil {
		return nil, err
	}
	return p.processItem(ctx, rawURL, s, forceCreate), nil
}

// BatchOptions tune one batch run.
type BatchOptions struct {
	// MaxConcurrency overrides the pipeline default when positive.
	MaxConcurrency int64
	// StartDelay spaces out item starts for upstream rate limits.
	StartDelay time.Duration
	// ForceCreate skips dedup and always creates.
	ForceCreate bool
}

// ProcessBatch fans URLs out under a concurrency cap. Every URL gets an
// ItemResult, success or failure; only a schema fetch failure aborts the
// batch, since no item can proceed without the schema.
func (p *Pipeline) ProcessBatch(ctx context.Context, urls []string, opts BatchOptions) ([]*ItemResult, *Report, error) {
	start := time.Now()

	s, err := p.schemas.Get(ctx, p.cfg.DatabaseID, false)
	if err != nil {
		return nil, nil, err
	}

	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = p.cfg.MaxConcurrency
	}
	p.log.Info("batch started", "urls", len(urls), "max_concurrency", limit)

	sem := semaphore.NewWeighted(limit)
	results := make([]*ItemResult, len(urls))
	var wg sync.WaitGroup

	for i, u := range urls {
		if i > 0 && opts.StartDelay > 0 {
			time.Sleep(opts.StartDelay)
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			r := newItemResult(u)
			r.fail(StageValidating, fmt.Sprintf("batch cancelled: %v", err))
			results[i] = r
			continue
		}
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = p.processItem(ctx, u, s, opts.ForceCreate)
		}(i, u)
	}
	wg.Wait()

	report := buildReport(results, time.Since(start))
	p.log.Info("batch finished",
		"urls", len(urls),
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"elapsed", report.Elapsed)
	return results, report, nil
}

// processItem is the per-URL state machine. A panic in any stage is recovered
// into a failed result so one item never takes down its siblings.
func (p *Pipeline) processItem(ctx context.Context, rawURL string, s *schema.DatabaseSchema, forceCreate bool) (res *ItemResult) {
	res = newItemResult(rawURL)
	res.Outcome = OutcomeRunning

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic in pipeline item", "url", rawURL, "stage", res.Stage, "panic", r)
			res.fail(res.Stage, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// validating
	stageStart := time.Now()
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	res.StageElapsed[StageValidating] = time.Since(stageStart)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		res.fail(StageValidating, fmt.Sprintf("invalid url %q", rawURL))
		return res
	}

	// fetching
	res.Stage = StageFetching
	stageStart = time.Now()
	pageText, err := p.fetcher.FetchPageText(ctx, rawURL, p.cfg.FetchWaitHint)
	res.StageElapsed[StageFetching] = time.Since(stageStart)
	if err != nil {
		res.fail(StageFetching, fmt.Sprintf("fetch page: %v", err))
		return res
	}
	if strings.TrimSpace(pageText) == "" {
		res.fail(StageFetching, "fetched page is empty")
		return res
	}

	// extracting
	res.Stage = StageExtracting
	stageStart = time.Now()
	ext := p.extractor.Extract(ctx, pageText, rawURL, s)
	res.StageElapsed[StageExtracting] = time.Since(stageStart)
	if !ext.OK {
		res.fail(StageExtracting, ext.Diagnostic)
		return res
	}

	// normalizing
	res.Stage = StageNormalizing
	stageStart = time.Now()
	rec := p.norm.Normalize(ext.Fields, s)
	res.StageElapsed[StageNormalizing] = time.Since(stageStart)
	if !rec.OK {
		res.fail(StageNormalizing, normalizeFailureMessage(rec))
		return res
	}

	// writing
	res.Stage = StageWriting
	stageStart = time.Now()
	write := p.upserter.Upsert(ctx, s, rec.Payload, forceCreate)
	res.StageElapsed[StageWriting] = time.Since(stageStart)
	res.Write = &write
	if !write.OK {
		res.fail(StageWriting, write.Err)
		return res
	}

	res.Stage = StageDone
	res.Outcome = OutcomeSuccess
	return res
}

func normalizeFailureMessage(rec normalize.Record) string {
	var bad []string
	for _, fr := range rec.FieldResults {
		if fr.Outcome == normalize.OutcomeInvalid {
			bad = append(bad, fmt.Sprintf("%s (%s)", fr.Field, fr.Note))
		}
	}
	if len(bad) > 0 {
		return fmt.Sprintf("normalization rejected %d field(s): %s", len(bad), strings.Join(bad, "; "))
	}
	if len(rec.Payload) == 0 {
		return "normalization produced an empty payload"
	}
	return "normalized record is missing its title field"
}
