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

// ChatAdapter delivers through a team-chat bot HTTP API.
type ChatAdapter struct {
	botURL     string
	botToken   string
	httpClient *http.Client
}

func NewChatAdapter(cfg config.ChatChannel) *ChatAdapter {
	return &ChatAdapter{
		botURL:     strings.TrimRight(cfg.BotURL, "/"),
		botToken:   cfg.BotToken,
		httpClient: &http.Client{},
	}
}

func (a *ChatAdapter) Name() Channel { return ChannelChat }

type chatRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type chatResponse struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error"`
}

func (a *ChatAdapter) Deliver(ctx context.Context, dest, subject, body string, meta map[string]string) DeliveryOutcome {
	if a.botURL == "" || a.botToken == "" {
		return Failed("chat channel not configured")
	}
	if strings.TrimSpace(dest) == "" {
		return Failed("chat channel id missing")
	}
	payload := chatRequest{
		Channel: dest,
		Text:    fmt.Sprintf("*%s*\n%s", subject, body),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Failed(fmt.Sprintf("encode request: %v", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.botURL+"/chat.postMessage", bytes.NewReader(data))
	if err != nil {
		return Failed(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.botToken)
	res, err := a.httpClient.Do(req)
	if err != nil {
		return Failed(fmt.Sprintf("post chat message: %v", err))
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Failed(fmt.Sprintf("chat api status %d", res.StatusCode))
	}
	var out chatResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Sent("")
	}
	if !out.OK && out.Error != "" {
		return Failed(fmt.Sprintf("chat api error: %s", out.Error))
	}
	return Sent(out.TS)
}
