package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
)

// WebhookDispatcher posts automation events to external URLs
type WebhookDispatcher struct {
	client *http.Client
}

// NewWebhookDispatcher creates a new webhook dispatcher
func NewWebhookDispatcher(timeout time.Duration) *WebhookDispatcher {
	return &WebhookDispatcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Send delivers the payload as JSON to the action's URL. Any
// transport or non-2xx failure is an external service error.
func (d *WebhookDispatcher) Send(ctx context.Context, action *domain.WebhookAction, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	method := action.Method
	switch method {
	case "", "POST":
		method = http.MethodPost
	case "PUT":
		method = http.MethodPut
	case "PATCH":
		method = http.MethodPatch
	default:
		return fmt.Errorf("unsupported webhook method %q", action.Method)
	}

	req, err := http.NewRequestWithContext(ctx, method, action.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range action.Headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: webhook request failed: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: webhook returned status %d", domain.ErrExternalService, resp.StatusCode)
	}

	return nil
}
