package autosave

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"jurydb/pkg/logger"
)

// SaveRequest is the /save-progress body emitted by the client.
type SaveRequest struct {
	User     string          `json:"user"`
	DataType string          `json:"dataType"`
	ID       string          `json:"id,omitempty"`
	Payload  json.RawMessage `json:"payload"`
	Status   string          `json:"status,omitempty"`
}

// Client pushes debounced saves to a jurydb server. A failed save is
// logged and dropped; the caller keeps the in-memory value and the next
// change retries naturally.
type Client struct {
	BaseURL   string
	APIKey    string
	UserID    string
	Signature string
	HTTP      *http.Client

	deb *Debouncer
}

// NewClient returns a Client debouncing writes with the given quiet
// period (zero means DefaultQuietPeriod).
func NewClient(baseURL, apiKey string, quiet time.Duration) *Client {
	c := &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
	c.deb = New(quiet, func(v any) {
		req, ok := v.(SaveRequest)
		if !ok {
			return
		}
		if err := c.save(req); err != nil {
			logger.Warn("autosave_failed", "type", req.DataType, "id", req.ID, "error", err)
		}
	})
	return c
}

// Change feeds a changed value into the debouncer.
func (c *Client) Change(req SaveRequest) {
	c.deb.Notify(req)
}

// Submit flushes any pending save immediately.
func (c *Client) Submit() {
	c.deb.Flush()
}

// Close tears the client down, canceling any pending save.
func (c *Client) Close() {
	c.deb.Stop()
}

func (c *Client) save(sr SaveRequest) error {
	b, err := json.Marshal(sr)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/save-progress", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	if c.UserID != "" {
		req.Header.Set("X-User-ID", c.UserID)
	}
	if c.Signature != "" {
		req.Header.Set("X-User-Signature", c.Signature)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("save-progress returned %d", resp.StatusCode)
	}
	return nil
}
