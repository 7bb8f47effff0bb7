package writer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/yungbote/jobscribe-backend/internal/clients/recordstore"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/schema"
)

type fakeStore struct {
	records    map[string]map[string]any
	nextID     int
	queryErr   error
	updateErr  error
	queryCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]map[string]any)}
}

func (f *fakeStore) CreateRecord(ctx context.Context, storeID string, properties map[string]any) (string, error) {
	f.nextID++
	id := fmt.Sprintf("rec-%d", f.nextID)
	f.records[id] = properties
	return id, nil
}

func (f *fakeStore) UpdateRecord(ctx context.Context, recordID string, properties map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.records[recordID]; !ok {
		return fmt.Errorf("record %s not found", recordID)
	}
	f.records[recordID] = properties
	return nil
}

func (f *fakeStore) QueryByField(ctx context.Context, storeID, field, value string) ([]recordstore.Record, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []recordstore.Record
	for id, props := range f.records {
		if props[field] == value {
			out = append(out, recordstore.Record{ID: id, Properties: props})
		}
	}
	return out, nil
}

func (f *fakeStore) ArchiveRecord(ctx context.Context, recordID string) error {
	delete(f.records, recordID)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context, databaseID string) error { return nil }

func testSchema() *schema.DatabaseSchema {
	return &schema.DatabaseSchema{
		ID:         "db1",
		TitleField: "Name",
		URLField:   "URL",
		Fields: map[string]schema.FieldSchema{
			"Name": {Name: "Name", Kind: schema.KindTitle},
			"URL":  {Name: "URL", Kind: schema.KindURL},
		},
	}
}

func payloadFor(url string) map[string]any {
	return map[string]any{
		"Name": map[string]any{"title": []any{map[string]any{"text": map[string]any{"content": "Job"}}}},
		"URL":  url,
	}
}

func TestUpsertIdempotent(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, logger.NewNop(), "db1")
	s := testSchema()
	url := "https://example.com/jobs/1"

	first := w.Upsert(context.Background(), s, payloadFor(url), false)
	if !first.OK || first.Operation != OperationCreated || first.MatchedExisting {
		t.Fatalf("first upsert: %+v", first)
	}

	second := w.Upsert(context.Background(), s, payloadFor(url), false)
	if !second.OK || second.Operation != OperationUpdated || !second.MatchedExisting {
		t.Fatalf("second upsert: %+v", second)
	}
	if second.RecordID != first.RecordID {
		t.Fatalf("second upsert touched %s, want %s", second.RecordID, first.RecordID)
	}
	if len(store.records) != 1 {
		t.Fatalf("got %d records after two upserts, want 1", len(store.records))
	}
}

func TestUpsertForceCreateBypassesDedup(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, logger.NewNop(), "db1")
	s := testSchema()
	url := "https://example.com/jobs/1"

	w.Upsert(context.Background(), s, payloadFor(url), false)
	res := w.Upsert(context.Background(), s, payloadFor(url), true)
	if !res.OK || res.Operation != OperationCreated {
		t.Fatalf("force create: %+v", res)
	}
	if len(store.records) != 2 {
		t.Fatalf("got %d records, want 2", len(store.records))
	}
}

func TestUpsertMissingKeyCreates(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, logger.NewNop(), "db1")
	s := testSchema()

	payload := payloadFor("https://example.com/jobs/1")
	delete(payload, "URL")

	res := w.Upsert(context.Background(), s, payload, false)
	if !res.OK || res.Operation != OperationCreated {
		t.Fatalf("keyless upsert: %+v", res)
	}
	if store.queryCalls != 0 {
		t.Fatalf("keyless upsert should not query, got %d calls", store.queryCalls)
	}
}

func TestUpsertQueryFailureCaptured(t *testing.T) {
	store := newFakeStore()
	store.queryErr = errors.New("store down")
	w := NewWriter(store, logger.NewNop(), "db1")

	res := w.Upsert(context.Background(), testSchema(), payloadFor("https://example.com/jobs/1"), false)
	if res.OK {
		t.Fatalf("upsert should have failed")
	}
	if res.Err == "" {
		t.Fatalf("failed upsert should carry a diagnostic")
	}
}

func TestUpsertUpdateFailureCaptured(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, logger.NewNop(), "db1")
	s := testSchema()
	url := "https://example.com/jobs/1"

	w.Upsert(context.Background(), s, payloadFor(url), false)
	store.updateErr = errors.New("store down")

	res := w.Upsert(context.Background(), s, payloadFor(url), false)
	if res.OK || !res.MatchedExisting {
		t.Fatalf("failed update: %+v", res)
	}
}

func TestArchive(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, logger.NewNop(), "db1")
	s := testSchema()

	res := w.Upsert(context.Background(), s, payloadFor("https://example.com/jobs/1"), false)
	if err := w.Archive(context.Background(), res.RecordID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("record still present after archive")
	}
}
