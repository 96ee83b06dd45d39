package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// webhookChannel POSTs alerts as JSON to a single URL.
type webhookChannel struct {
	url  string
	http *http.Client
}

// NewWebhookChannel creates a channel POSTing to url, bounded by timeout.
func NewWebhookChannel(url string, timeout time.Duration) Channel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &webhookChannel{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

func (w *webhookChannel) Name() string { return "webhook" }

func (w *webhookChannel) Send(ctx context.Context, alert *Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "statuswatch/1.0")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook %s: %w", w.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned %s", w.url, resp.Status)
	}
	return nil
}
