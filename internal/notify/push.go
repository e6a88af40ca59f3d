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

// PushAdapter delivers through a topic-addressed push gateway.
type PushAdapter struct {
	gatewayURL string
	apiKey     string
	httpClient *http.Client
}

func NewPushAdapter(cfg config.PushChannel) *PushAdapter {
	return &PushAdapter{
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
	}
}

func (a *PushAdapter) Name() Channel { return ChannelPush }

type pushRequest struct {
	Topic string            `json:"topic"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func (a *PushAdapter) Deliver(ctx context.Context, dest, subject, body string, meta map[string]string) DeliveryOutcome {
	if a.gatewayURL == "" || a.apiKey == "" {
		return Failed("push channel not configured")
	}
	if strings.TrimSpace(dest) == "" {
		return Failed("recipient push topic missing")
	}
	payload := pushRequest{
		Topic: dest,
		Title: subject,
		Body:  body,
		Data:  meta,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Failed(fmt.Sprintf("encode request: %v", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.gatewayURL+"/v1/send", bytes.NewReader(data))
	if err != nil {
		return Failed(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+a.apiKey)
	res, err := a.httpClient.Do(req)
	if err != nil {
		return Failed(fmt.Sprintf("send push: %v", err))
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Failed(fmt.Sprintf("push gateway status %d", res.StatusCode))
	}
	// The topic name is the correlation id on this transport.
	return Sent(dest)
}
