package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// defaultWebhookTimeout bounds a single delivery attempt so a dead
// receiver cannot pile up goroutines.
const defaultWebhookTimeout = 10 * time.Second

// Webhook POSTs events as JSON to a fixed URL. One attempt per event, no
// retries.
type Webhook struct {
	url    string
	client *http.Client
}

// WebhookOpts holds parameters for creating a Webhook sink.
type WebhookOpts struct {
	URL string
	// Client overrides the default HTTP client, used by tests.
	Client *http.Client
}

// NewWebhook creates a webhook sink posting to opts.URL.
func NewWebhook(opts WebhookOpts) *Webhook {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}
	return &Webhook{url: opts.URL, client: client}
}

// Notify POSTs the event. Failures are logged and dropped.
func (w *Webhook) Notify(ctx context.Context, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("sink: webhook marshal %s: %v", ev.Name, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("sink: webhook request %s: %v", ev.Name, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		log.Printf("sink: webhook deliver %s: %v", ev.Name, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("sink: webhook deliver %s: status %d", ev.Name, resp.StatusCode)
	}
}
