package hirelinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Hireline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Interview represents the API interview model.
type Interview struct {
	ID               string  `json:"id"`
	EmployerID       string  `json:"employer_id"`
	CandidateID      string  `json:"candidate_id"`
	ScheduledAt      string  `json:"scheduled_at"`
	DurationMinutes  int     `json:"duration_minutes"`
	Kind             string  `json:"kind"`
	MeetingRef       *string `json:"meeting_ref,omitempty"`
	Location         *string `json:"location,omitempty"`
	JobID            *string `json:"job_id,omitempty"`
	JobTitleOverride *string `json:"job_title_override,omitempty"`
	Status           string  `json:"status"`
	Window           string  `json:"window"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// Delivery represents a delivery log entry.
type Delivery struct {
	ID            string  `json:"id"`
	RecipientType string  `json:"recipient_type"`
	RecipientRef  string  `json:"recipient_ref"`
	Channel       string  `json:"channel"`
	EventKind     string  `json:"event_kind"`
	Subject       string  `json:"subject"`
	Content       string  `json:"content"`
	Status        string  `json:"status"`
	SentAt        *string `json:"sent_at,omitempty"`
	ErrorDetail   *string `json:"error_detail,omitempty"`
	ReferenceID   *string `json:"reference_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// ScheduleInterviewOptions are parameters for ScheduleInterview.
type ScheduleInterviewOptions struct {
	EmployerID       string `json:"employer_id"`
	CandidateID      string `json:"candidate_id"`
	ScheduledAt      string `json:"scheduled_at"`
	DurationMinutes  int    `json:"duration_minutes,omitempty"`
	Kind             string `json:"kind"`
	Location         string `json:"location,omitempty"`
	JobID            string `json:"job_id,omitempty"`
	JobTitleOverride string `json:"job_title_override,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ScheduleInterview schedules an interview.
func (c *Client) ScheduleInterview(ctx context.Context, opts ScheduleInterviewOptions) (Interview, error) {
	var resp Interview
	err := c.do(ctx, http.MethodPost, "v0/interviews", opts, &resp)
	return resp, err
}

// GetInterview fetches an interview by id.
func (c *Client) GetInterview(ctx context.Context, id string) (Interview, error) {
	var resp Interview
	err := c.do(ctx, http.MethodGet, "v0/interviews/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ListInterviews returns interviews, optionally filtered.
func (c *Client) ListInterviews(ctx context.Context, employerID, candidateID, window string) ([]Interview, error) {
	q := url.Values{}
	if employerID != "" {
		q.Set("employer_id", employerID)
	}
	if candidateID != "" {
		q.Set("candidate_id", candidateID)
	}
	if window != "" {
		q.Set("window", window)
	}
	endpoint := "v0/interviews"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Interview
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CancelInterview cancels an interview.
func (c *Client) CancelInterview(ctx context.Context, id string) (Interview, error) {
	var resp Interview
	err := c.do(ctx, http.MethodPost, "v0/interviews/"+url.PathEscape(id)+"/cancel", nil, &resp)
	return resp, err
}

// RescheduleInterview moves an interview to a new RFC 3339 time.
func (c *Client) RescheduleInterview(ctx context.Context, id, scheduledAt string) (Interview, error) {
	var resp Interview
	body := map[string]string{"scheduled_at": scheduledAt}
	err := c.do(ctx, http.MethodPost, "v0/interviews/"+url.PathEscape(id)+"/reschedule", body, &resp)
	return resp, err
}

// CompleteInterview marks an interview completed.
func (c *Client) CompleteInterview(ctx context.Context, id, outcomeNotes string) (Interview, error) {
	var resp Interview
	body := map[string]string{"outcome_notes": outcomeNotes}
	err := c.do(ctx, http.MethodPost, "v0/interviews/"+url.PathEscape(id)+"/complete", body, &resp)
	return resp, err
}

// Notifications returns delivery log entries for a recipient.
func (c *Client) Notifications(ctx context.Context, recipientType, recipientRef string, limit int) ([]Delivery, error) {
	q := url.Values{}
	q.Set("recipient_type", recipientType)
	q.Set("recipient_ref", recipientRef)
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	var resp []Delivery
	err := c.do(ctx, http.MethodGet, "v0/notifications?"+q.Encode(), nil, &resp)
	return resp, err
}

// UnreadCount returns the number of unread notifications for a recipient.
func (c *Client) UnreadCount(ctx context.Context, recipientType, recipientRef string) (int, error) {
	q := url.Values{}
	q.Set("recipient_type", recipientType)
	q.Set("recipient_ref", recipientRef)
	var resp map[string]int
	err := c.do(ctx, http.MethodGet, "v0/notifications/unread-count?"+q.Encode(), nil, &resp)
	return resp["unread"], err
}

// MarkNotificationsRead flips a recipient's sent notifications to delivered.
func (c *Client) MarkNotificationsRead(ctx context.Context, recipientType, recipientRef string) (int64, error) {
	body := map[string]string{
		"recipient_type": recipientType,
		"recipient_ref":  recipientRef,
	}
	var resp map[string]int64
	err := c.do(ctx, http.MethodPost, "v0/notifications/mark-read", body, &resp)
	return resp["updated"], err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
