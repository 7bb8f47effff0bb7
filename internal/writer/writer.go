package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/jobscribe-backend/internal/clients/recordstore"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/schema"
)

// Operation says what the writer did with the record.
type Operation string

const (
	OperationCreated Operation = "created"
	OperationUpdated Operation = "updated"
)

// Result describes one upsert. Store failures are captured here as OK=false
// rather than returned; the writer never retries internally.
type Result struct {
	OK              bool          `json:"ok"`
	Operation       Operation     `json:"operation,omitempty"`
	RecordID        string        `json:"record_id,omitempty"`
	MatchedExisting bool          `json:"matched_existing"`
	Err             string        `json:"error,omitempty"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Store is the slice of the record store client the writer needs.
type Store interface {
	CreateRecord(ctx context.Context, storeID string, properties map[string]any) (string, error)
	UpdateRecord(ctx context.Context, recordID string, properties map[string]any) error
	QueryByField(ctx context.Context, storeID, field, value string) ([]recordstore.Record, error)
	ArchiveRecord(ctx context.Context, recordID string) error
	Ping(ctx context.Context, databaseID string) error
}

// Writer performs dedup-by-key upserts against the record store.
type Writer struct {
	store   Store
	log     *logger.Logger
	storeID string
}

func NewWriter(store Store, log *logger.Logger, storeID string) *Writer {
	return &Writer{
		store:   store,
		log:     log.With("service", "Writer"),
		storeID: storeID,
	}
}

// Upsert creates or updates the record identified by the schema's unique URL
// field. With forceCreate, or when the payload carries no key, it creates
// unconditionally. When several records share the key, the first one the
// store returns is updated.
//
// The query-then-write sequence is not transactional: two concurrent upserts
// for the same key can both create. Accepted limitation of best-effort dedup.
func (w *Writer) Upsert(ctx context.Context, s *schema.DatabaseSchema, payload map[string]any, forceCreate bool) Result {
	start := time.Now()

	key := ""
	if s.URLField != "" {
		if v, ok := payload[s.URLField].(string); ok {
			key = v
		}
	}

	if forceCreate || key == "" {
		return w.create(ctx, payload, start)
	}

	matches, err := w.store.QueryByField(ctx, w.storeID, s.URLField, key)
	if err != nil {
		return Result{
			OK:      false,
			Err:     fmt.Sprintf("query by %s: %v", s.URLField, err),
			Elapsed: time.Since(start),
		}
	}

	if len(matches) > 0 {
		existing := matches[0]
		if err := w.store.UpdateRecord(ctx, existing.ID, payload); err != nil {
			return Result{
				OK:              false,
				MatchedExisting: true,
				RecordID:        existing.ID,
				Err:             fmt.Sprintf("update record: %v", err),
				Elapsed:         time.Since(start),
			}
		}
		w.log.Info("record updated", "record_id", existing.ID, "key", key, "matches", len(matches))
		return Result{
			OK:              true,
			Operation:       OperationUpdated,
			RecordID:        existing.ID,
			MatchedExisting: true,
			Elapsed:         time.Since(start),
		}
	}

	return w.create(ctx, payload, start)
}

func (w *Writer) create(ctx context.Context, payload map[string]any, start time.Time) Result {
	id, err := w.store.CreateRecord(ctx, w.storeID, payload)
	if err != nil {
		return Result{
			OK:      false,
			Err:     fmt.Sprintf("create record: %v", err),
			Elapsed: time.Since(start),
		}
	}
	w.log.Info("record created", "record_id", id)
	return Result{
		OK:        true,
		Operation: OperationCreated,
		RecordID:  id,
		Elapsed:   time.Since(start),
	}
}

// Archive soft-deletes a record.
func (w *Writer) Archive(ctx context.Context, recordID string) error {
	if err := w.store.ArchiveRecord(ctx, recordID); err != nil {
		return fmt.Errorf("archive record %s: %w", recordID, err)
	}
	w.log.Info("record archived", "record_id", recordID)
	return nil
}

// Ping verifies the store answers for the configured database.
func (w *Writer) Ping(ctx context.Context) error {
	return w.store.Ping(ctx, w.storeID)
}
