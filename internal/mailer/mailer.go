// Package mailer sends digest mail through an HTTP mail relay.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/config"
)

// Message is one outbound mail.
type Message struct {
	To       []string `json:"to"`
	From     string   `json:"from"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body"`
	// ChartPNG is attached inline as base64 when present.
	ChartPNG []byte `json:"-"`
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPMailer posts messages to a relay endpoint, authenticating with the
// client-credentials flow.
type HTTPMailer struct {
	endpoint string
	from     string
	client   *http.Client
	logger   *slog.Logger
}

// New creates an HTTPMailer from mail config. When no token URL is configured
// the relay is called unauthenticated, which suits local development.
func New(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) *HTTPMailer {
	client := &http.Client{Timeout: 15 * time.Second}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		client = cc.Client(ctx)
		client.Timeout = 15 * time.Second
	}

	return &HTTPMailer{
		endpoint: cfg.Endpoint,
		from:     cfg.From,
		client:   client,
		logger:   logger,
	}
}

type wirePayload struct {
	To          []string         `json:"to"`
	From        string           `json:"from"`
	Subject     string           `json:"subject"`
	TextBody    string           `json:"text_body"`
	Attachments []wireAttachment `json:"attachments,omitempty"`
}

type wireAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

// Send posts the message to the relay. A non-2xx response is an error.
func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	if m.endpoint == "" {
		m.logger.WarnContext(ctx, "Mail endpoint not configured, dropping message",
			attr.String("subject", msg.Subject),
		)
		return nil
	}

	payload := wirePayload{
		To:       msg.To,
		From:     msg.From,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
	}
	if payload.From == "" {
		payload.From = m.from
	}
	if len(msg.ChartPNG) > 0 {
		payload.Attachments = append(payload.Attachments, wireAttachment{
			Filename:    "weekly-chart.png",
			ContentType: "image/png",
			Data:        base64.StdEncoding.EncodeToString(msg.ChartPNG),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("post mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail relay returned %d: %s", resp.StatusCode, string(snippet))
	}

	m.logger.InfoContext(ctx, "Mail delivered",
		attr.String("subject", msg.Subject),
		attr.Int("recipients", len(msg.To)),
	)
	return nil
}

var _ Mailer = (*HTTPMailer)(nil)
