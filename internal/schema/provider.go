package schema

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
)

// FetchError means the remote schema definition could not be obtained or was
// unusable. It is the only error that aborts an entire batch, since no item
// can be validated without a schema.
type FetchError struct {
	DatabaseID string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch schema %s: %v", e.DatabaseID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves the raw schema definition from the store.
// Implemented by recordstore.Client.
type Fetcher interface {
	FetchSchema(ctx context.Context, databaseID string) (*DatabaseSchema, error)
}

// Provider serves TTL-cached schema snapshots. Snapshots are replaced whole
// under a single mutex; readers never observe a partially-parsed schema.
// Concurrent callers during a refresh may fetch redundantly; the last writer
// wins and every returned snapshot is internally consistent.
type Provider struct {
	fetcher Fetcher
	log     *logger.Logger
	ttl     time.Duration
	maxSize int

	mu    sync.Mutex
	cache map[string]*DatabaseSchema

	now func() time.Time
}

func NewProvider(fetcher Fetcher, log *logger.Logger, ttl time.Duration, maxSize int) *Provider {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Provider{
		fetcher: fetcher,
		log:     log.With("service", "SchemaProvider"),
		ttl:     ttl,
		maxSize: maxSize,
		cache:   make(map[string]*DatabaseSchema),
		now:     time.Now,
	}
}

// Get returns the schema snapshot for databaseID, fetching a fresh one when
// the cached snapshot is missing, expired, or forceRefresh is set.
func (p *Provider) Get(ctx context.Context, databaseID string, forceRefresh bool) (*DatabaseSchema, error) {
	if databaseID == "" {
		return nil, &FetchError{DatabaseID: databaseID, Err: fmt.Errorf("database id required")}
	}

	if !forceRefresh {
		if s := p.cached(databaseID); s != nil {
			p.log.Debug("schema cache hit", "database_id", databaseID, "fetched_at", s.FetchedAt)
			return s, nil
		}
	}

	s, err := p.fetcher.FetchSchema(ctx, databaseID)
	if err != nil {
		return nil, &FetchError{DatabaseID: databaseID, Err: err}
	}
	if s.UsableFieldCount() == 0 {
		return nil, &FetchError{DatabaseID: databaseID, Err: fmt.Errorf("schema has no usable fields")}
	}
	s.FetchedAt = p.now()

	p.store(databaseID, s)
	p.log.Info("schema refreshed",
		"database_id", databaseID,
		"fields", len(s.Fields),
		"title_field", s.TitleField,
		"url_field", s.URLField)
	return s, nil
}

func (p *Provider) cached(databaseID string) *DatabaseSchema {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.cache[databaseID]
	if !ok {
		return nil
	}
	if p.now().Sub(s.FetchedAt) >= p.ttl {
		delete(p.cache, databaseID)
		return nil
	}
	return s
}

func (p *Provider) store(databaseID string, s *DatabaseSchema) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.cache) >= p.maxSize {
		p.evictOldestLocked()
	}
	p.cache[databaseID] = s
}

func (p *Provider) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, v := range p.cache {
		if oldestKey == "" || v.FetchedAt.Before(oldest) {
			oldestKey = k
			oldest = v.FetchedAt
		}
	}
	if oldestKey != "" {
		delete(p.cache, oldestKey)
	}
}

// Invalidate drops every cached snapshot.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]*DatabaseSchema)
	p.log.Info("schema cache invalidated")
}

// CacheInfo describes the cache state for the status endpoint.
type CacheInfo struct {
	Size    int      `json:"size"`
	MaxSize int      `json:"max_size"`
	TTL     string   `json:"ttl"`
	Keys    []string `json:"keys"`
}

func (p *Provider) CacheInfo() CacheInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.cache))
	for k := range p.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return CacheInfo{
		Size:    len(p.cache),
		MaxSize: p.maxSize,
		TTL:     p.ttl.String(),
		Keys:    keys,
	}
}
