package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PushoverEndpoint is the Pushover message API.
const PushoverEndpoint = "https://api.pushover.net/1/messages.json"

// Pushover sends alerts through the Pushover message API.
type Pushover struct {
	token      string
	user       string
	endpoint   string
	httpClient *http.Client
}

// NewPushover creates a Pushover notifier. An empty endpoint selects PushoverEndpoint.
func NewPushover(token, user, endpoint string) *Pushover {
	if endpoint == "" {
		endpoint = PushoverEndpoint
	}
	return &Pushover{
		token:    token,
		user:     user,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify posts message as a form-encoded request.
func (p *Pushover) Notify(ctx context.Context, message string) error {
	form := url.Values{
		"token":   {p.token},
		"user":    {p.user},
		"message": {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send pushover request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pushover returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
