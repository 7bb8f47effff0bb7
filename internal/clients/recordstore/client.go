package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/schema"
)

// Client talks to the record store's REST API: schema discovery, record
// creation/update, and equality queries used for dedup.
type Client struct {
	log        *logger.Logger
	baseURL    string
	token      string
	httpClient *http.Client
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("record store base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		log:        log.With("service", "RecordStoreClient"),
		baseURL:    base,
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("record store http %d: %s", e.StatusCode, e.Body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httpError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// ---- Schema discovery ----

type schemaResponse struct {
	Title       string                      `json:"title"`
	Description string                      `json:"description"`
	Properties  map[string]schemaFieldEntry `json:"properties"`
}

type schemaFieldEntry struct {
	Kind     string          `json:"kind"`
	Required bool            `json:"required"`
	Options  []schema.Option `json:"options"`
}

// FetchSchema retrieves and parses the store's field definitions.
// Implements schema.Fetcher.
func (c *Client) FetchSchema(ctx context.Context, databaseID string) (*schema.DatabaseSchema, error) {
	var resp schemaResponse
	if err := c.doJSON(ctx, http.MethodGet, "/schema/"+databaseID, nil, &resp); err != nil {
		return nil, err
	}

	fields := make(map[string]schema.FieldSchema, len(resp.Properties))
	names := make([]string, 0, len(resp.Properties))
	for name := range resp.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	titleField := ""
	urlField := ""
	for _, name := range names {
		entry := resp.Properties[name]
		kind := schema.ParseKind(entry.Kind)
		f := schema.FieldSchema{
			Name:     name,
			Kind:     kind,
			Required: entry.Required || kind == schema.KindTitle,
			Options:  entry.Options,
		}
		fields[name] = f
		if kind == schema.KindTitle && titleField == "" {
			titleField = name
		}
		if kind == schema.KindURL && urlField == "" {
			urlField = name
		}
	}

	return &schema.DatabaseSchema{
		ID:          databaseID,
		Title:       resp.Title,
		Description: resp.Description,
		Fields:      fields,
		TitleField:  titleField,
		URLField:    urlField,
	}, nil
}

// ---- Records ----

// Record is one stored record as returned by the query endpoint.
type Record struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

type createRequest struct {
	Parent     string         `json:"parent"`
	Properties map[string]any `json:"properties"`
}

type createResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateRecord(ctx context.Context, storeID string, properties map[string]any) (string, error) {
	var resp createResponse
	err := c.doJSON(ctx, http.MethodPost, "/records", createRequest{Parent: storeID, Properties: properties}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

type updateRequest struct {
	Properties map[string]any `json:"properties"`
}

func (c *Client) UpdateRecord(ctx context.Context, recordID string, properties map[string]any) error {
	return c.doJSON(ctx, http.MethodPatch, "/records/"+recordID, updateRequest{Properties: properties}, nil)
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

// ArchiveRecord soft-deletes a record.
func (c *Client) ArchiveRecord(ctx context.Context, recordID string) error {
	return c.doJSON(ctx, http.MethodPatch, "/records/"+recordID, archiveRequest{Archived: true}, nil)
}

type queryFilter struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value string `json:"value"`
}

type queryRequest struct {
	Parent string      `json:"parent"`
	Filter queryFilter `json:"filter"`
}

type queryResponse struct {
	Results []Record `json:"results"`
}

// QueryByField returns records whose field equals value. Order is whatever
// the store returns; callers that pick "the first match" inherit that.
func (c *Client) QueryByField(ctx context.Context, storeID, field, value string) ([]Record, error) {
	var resp queryResponse
	req := queryRequest{
		Parent: storeID,
		Filter: queryFilter{Field: field, Op: "equals", Value: value},
	}
	if err := c.doJSON(ctx, http.MethodPost, "/records:query", req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Ping verifies the store is reachable and the schema endpoint answers.
func (c *Client) Ping(ctx context.Context, databaseID string) error {
	return c.doJSON(ctx, http.MethodGet, "/schema/"+databaseID, nil, nil)
}
