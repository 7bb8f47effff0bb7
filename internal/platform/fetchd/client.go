package fetchd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
)

// Client talks to the page-fetch daemon. The daemon drives a headless browser
// and returns rendered page text; everything about how it does that is its
// business.
type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("fetchd base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		log:        log.With("service", "FetchdClient"),
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type fetchRequest struct {
	URL    string `json:"url"`
	WaitMS int    `json:"wait_ms,omitempty"`
}

type fetchResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// FetchPageText returns the rendered text content of the page at pageURL.
// waitHint, when positive, asks the daemon to let the page settle that long
// before scraping.
func (c *Client) FetchPageText(ctx context.Context, pageURL string, waitHint time.Duration) (string, error) {
	req := fetchRequest{URL: pageURL}
	if waitHint > 0 {
		req.WaitMS = int(waitHint.Milliseconds())
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal fetch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fetch", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetchd http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out fetchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode fetch response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("fetchd: %s", out.Error)
	}
	return out.Text, nil
}

// Ping checks that the daemon is up.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetchd http %d", resp.StatusCode)
	}
	return nil
}
