package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"hireline/internal/config"
)

// EmailAdapter delivers through a transactional email HTTP API.
type EmailAdapter struct {
	apiURL     string
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewEmailAdapter(cfg config.EmailChannel) *EmailAdapter {
	return &EmailAdapter{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
		from:       cfg.FromAddress,
		httpClient: &http.Client{},
	}
}

func (a *EmailAdapter) Name() Channel { return ChannelEmail }

type emailRequest struct {
	From     string            `json:"from"`
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	TextBody string            `json:"text_body"`
	Headers  map[string]string `json:"headers,omitempty"`
}

type emailResponse struct {
	MessageID string `json:"message_id"`
}

func (a *EmailAdapter) Deliver(ctx context.Context, dest, subject, body string, meta map[string]string) DeliveryOutcome {
	if a.apiURL == "" || a.apiKey == "" {
		return Failed("email channel not configured")
	}
	if strings.TrimSpace(dest) == "" {
		return Failed("recipient email address missing")
	}
	payload := emailRequest{
		From:     a.from,
		To:       dest,
		Subject:  subject,
		TextBody: body,
		Headers:  meta,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Failed(fmt.Sprintf("encode request: %v", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return Failed(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	res, err := a.httpClient.Do(req)
	if err != nil {
		return Failed(fmt.Sprintf("send email: %v", err))
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Failed(fmt.Sprintf("email api status %d", res.StatusCode))
	}
	var out emailResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		// Delivery succeeded; the correlation id is best-effort.
		return Sent("")
	}
	return Sent(out.MessageID)
}
