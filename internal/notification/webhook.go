package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookNotifier POSTs every alert as a JSON document:
//
//	{"level":"INFO","title":"…","text":"…","data":{…event…},"ts":"RFC3339"}
//
// Any 2xx status counts as delivered.
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
	headers  http.Header
	now      func() time.Time
}

// NewWebhookNotifier creates a notifier for endpoint. A nil client gets a
// 10s timeout.
func NewWebhookNotifier(endpoint string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{
		endpoint: endpoint,
		client:   client,
		headers:  make(http.Header),
		now:      time.Now,
	}
}

// WithHeader adds a header sent with every request (e.g. an auth token).
func (w *WebhookNotifier) WithHeader(key, value string) *WebhookNotifier {
	w.headers.Add(key, value)
	return w
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	doc := struct {
		Level   AlertLevel `json:"level"`
		Title   string     `json:"title"`
		Message string     `json:"message"`
		Text    string     `json:"text"`
		Data    any        `json:"data,omitempty"`
		TS      time.Time  `json:"ts"`
	}{alert.Level, alert.Title, alert.Message, alert.Text(), alert.Data, w.now().UTC()}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(doc); err != nil {
		return fmt.Errorf("webhook: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return fmt.Errorf("webhook: request: %w", err)
	}
	for k, vs := range w.headers {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
