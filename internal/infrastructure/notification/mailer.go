package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loyalty/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const maxResponseSize = 64 << 10

var (
	// ErrDeliveryFailed is returned when the email API rejects or fails a send
	ErrDeliveryFailed = errors.New("notification: email delivery failed")
	// ErrNoRecipient is returned when a message has no address to go to
	ErrNoRecipient = errors.New("notification: no recipient address")
)

// EmailMessage is one outgoing email
type EmailMessage struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// Mailer sends email and returns the provider's message id
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) (string, error)
}

// HTTPMailer posts messages to a transactional email API
// (POST {base}/emails with a bearer key, JSON body, JSON {"id"} response).
type HTTPMailer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPMailer creates a mailer for the configured email API
func NewHTTPMailer(cfg *config.NotificationConfig) *HTTPMailer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMailer{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send delivers msg
func (m *HTTPMailer) Send(ctx context.Context, msg EmailMessage) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipient
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("notification: failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("notification: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("notification: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrDeliveryFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out struct {
		ID string `json:"id"`
	}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &out); err != nil {
			return "", fmt.Errorf("notification: failed to parse response: %w", err)
		}
	}
	return out.ID, nil
}

// LogMailer writes messages to the log instead of sending them.
// Used when notifications are disabled.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs msg and reports success
func (m *LogMailer) Send(_ context.Context, msg EmailMessage) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipient
	}
	m.logger.Info("Email delivery disabled, message dropped",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return "", nil
}

// NewMailer picks the HTTP mailer when notifications are enabled
func NewMailer(cfg *config.NotificationConfig, logger *zap.Logger) Mailer {
	if cfg.Enabled {
		return NewHTTPMailer(cfg)
	}
	return NewLogMailer(logger)
}
