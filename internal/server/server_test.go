package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hireline/internal/config"
	"hireline/internal/db"
	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/migrate"
	"hireline/internal/notify"
	"hireline/internal/repo"
)

const testJWTSecret = "test-secret"

type testChannelAdapter struct {
	name notify.Channel
}

func (a testChannelAdapter) Name() notify.Channel { return a.name }

func (a testChannelAdapter) Deliver(_ context.Context, dest, subject, body string, _ map[string]string) notify.DeliveryOutcome {
	if dest == "" {
		return notify.Failed("no destination")
	}
	return notify.Sent("srv-" + string(a.name))
}

type testServer struct {
	URL        string
	Engine     engine.Engine
	Dispatcher *notify.Dispatcher
	client     *http.Client
	close      func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	d := notify.NewDispatcher(repo.Repo{DB: conn}, cfg).WithAdapters(
		testChannelAdapter{name: notify.ChannelEmail},
		testChannelAdapter{name: notify.ChannelPush},
		testChannelAdapter{name: notify.ChannelChat},
	)
	e := engine.New(conn, cfg, d)
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth: AuthConfig{
			JWTSecret:              testJWTSecret,
			AllowLegacyActorHeader: true,
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:        "http://" + ln.Addr().String(),
		Engine:     e,
		Dispatcher: d,
		client:     &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			d.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if headers == nil {
		req.Header.Set("X-Actor-Id", "tester")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func seedParties(t *testing.T, srv *testServer) (employerID, candidateID, jobID string) {
	t.Helper()
	client := srv.Client()
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/employers", map[string]any{
		"company_name":    "Acme",
		"contact_name":    "Pat Jones",
		"email":           "hiring@acme.test",
		"push_topic":      "acme-topic",
		"chat_channel_id": "acme-channel",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create employer: %d %s", res.StatusCode, string(data))
	}
	var emp EmployerResponse
	if err := json.Unmarshal(data, &emp); err != nil {
		t.Fatalf("unmarshal employer: %v", err)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/candidates", map[string]any{
		"full_name":  "Sam Field",
		"email":      "sam@field.test",
		"push_topic": "sam-topic",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create candidate: %d %s", res.StatusCode, string(data))
	}
	var cand CandidateResponse
	if err := json.Unmarshal(data, &cand); err != nil {
		t.Fatalf("unmarshal candidate: %v", err)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/jobs", map[string]any{
		"employer_id": emp.ID,
		"title":       "Backend Engineer",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create job: %d %s", res.StatusCode, string(data))
	}
	var job JobResponse
	if err := json.Unmarshal(data, &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	return emp.ID, cand.ID, job.ID
}

func TestInterviewLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	empID, candID, jobID := seedParties(t, srv)

	scheduledAt := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/interviews", map[string]any{
		"employer_id":  empID,
		"candidate_id": candID,
		"scheduled_at": scheduledAt,
		"kind":         "virtual",
		"job_id":       jobID,
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("schedule: %d %s", res.StatusCode, string(data))
	}
	var iv InterviewResponse
	if err := json.Unmarshal(data, &iv); err != nil {
		t.Fatalf("unmarshal interview: %v", err)
	}
	if iv.Status != domain.StatusConfirmed {
		t.Fatalf("want confirmed, got %s", iv.Status)
	}
	if iv.Window != "upcoming" {
		t.Fatalf("want upcoming window, got %s", iv.Window)
	}
	if iv.MeetingRef == nil {
		t.Fatalf("virtual interview response missing meeting_ref")
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/interviews/"+iv.ID+"/start", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("start: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/interviews/"+iv.ID+"/complete", map[string]any{
		"outcome_notes": "strong hire",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("complete: %d %s", res.StatusCode, string(data))
	}
	var done InterviewResponse
	_ = json.Unmarshal(data, &done)
	if done.Status != domain.StatusCompleted {
		t.Fatalf("want completed, got %s", done.Status)
	}
	if done.OutcomeNotes == nil || *done.OutcomeNotes != "strong hire" {
		t.Fatalf("outcome notes missing: %s", string(data))
	}

	// completed is terminal
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/interviews/"+iv.ID+"/cancel", nil, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("cancel after complete: want 409, got %d %s", res.StatusCode, string(data))
	}
	var envlp errorEnvelope
	if err := json.Unmarshal(data, &envlp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if envlp.Error.Code != "invalid_transition" {
		t.Fatalf("want invalid_transition, got %q", envlp.Error.Code)
	}
}

func TestScheduleValidationErrors(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	empID, candID, jobID := seedParties(t, srv)

	// physical interview without a location
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/interviews", map[string]any{
		"employer_id":  empID,
		"candidate_id": candID,
		"scheduled_at": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"kind":         "physical",
		"job_id":       jobID,
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/interviews/nope", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d %s", res.StatusCode, string(data))
	}
}

func TestRescheduleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	empID, candID, jobID := seedParties(t, srv)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/interviews", map[string]any{
		"employer_id":  empID,
		"candidate_id": candID,
		"scheduled_at": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"kind":         "virtual",
		"job_id":       jobID,
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("schedule: %d %s", res.StatusCode, string(data))
	}
	var iv InterviewResponse
	_ = json.Unmarshal(data, &iv)

	newAt := time.Now().Add(96 * time.Hour).UTC().Format(time.RFC3339)
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/interviews/"+iv.ID+"/reschedule", map[string]any{
		"scheduled_at": newAt,
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reschedule: %d %s", res.StatusCode, string(data))
	}
	var moved InterviewResponse
	_ = json.Unmarshal(data, &moved)
	if moved.Status != domain.StatusRescheduled {
		t.Fatalf("want rescheduled, got %s", moved.Status)
	}
	if moved.ScheduledAt != newAt {
		t.Fatalf("scheduled_at not moved: %s", moved.ScheduledAt)
	}
}

func TestNotificationsEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	empID, candID, jobID := seedParties(t, srv)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/interviews", map[string]any{
		"employer_id":  empID,
		"candidate_id": candID,
		"scheduled_at": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"kind":         "virtual",
		"job_id":       jobID,
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("schedule: %d %s", res.StatusCode, string(data))
	}
	srv.Dispatcher.Close()

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/notifications?recipient_type=candidate&recipient_ref="+candID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list notifications: %d %s", res.StatusCode, string(data))
	}
	var items []DeliveryResponse
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal deliveries: %v", err)
	}
	if len(items) == 0 {
		t.Fatalf("expected delivery rows for the candidate")
	}
	for _, it := range items {
		if it.EventKind != notify.EventInterviewScheduled {
			t.Fatalf("unexpected event kind %s", it.EventKind)
		}
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/notifications/unread-count?recipient_type=candidate&recipient_ref="+candID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unread count: %d %s", res.StatusCode, string(data))
	}
	var count map[string]int
	_ = json.Unmarshal(data, &count)
	if count["unread"] == 0 {
		t.Fatalf("expected unread deliveries, got %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/notifications/mark-read", map[string]any{
		"recipient_type": "candidate",
		"recipient_ref":  candID,
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("mark read: %d %s", res.StatusCode, string(data))
	}
	var updated map[string]int64
	_ = json.Unmarshal(data, &updated)
	if updated["updated"] == 0 {
		t.Fatalf("expected rows marked read, got %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/notifications/unread-count?recipient_type=candidate&recipient_ref="+candID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unread count: %d %s", res.StatusCode, string(data))
	}
	_ = json.Unmarshal(data, &count)
	if count["unread"] != 0 {
		t.Fatalf("unread after mark-read: %s", string(data))
	}

	// recipient filters are mandatory
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/notifications", nil, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 without recipient, got %d %s", res.StatusCode, string(data))
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v0/interviews", nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 without credentials, got %d", res.StatusCode)
	}

	// health stays open
	res2, err := client.Get(srv.URL + "/v0/health")
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusOK {
		t.Fatalf("health: %d", res2.StatusCode)
	}
}

func TestJWTAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "emp-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ActorType: domain.RecipientEmployer,
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/interviews", nil, map[string]string{
		"Authorization": "Bearer " + signed,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("jwt request: %d %s", res.StatusCode, string(data))
	}

	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/interviews", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: want 401, got %d", res.StatusCode)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	rawKey := "hl-test-key-123"
	err := srv.Engine.Repo.InsertAPIKey(context.Background(), domain.APIKey{
		ID:        "key-1",
		ActorID:   "emp-1",
		ActorType: domain.RecipientEmployer,
		Name:      "ci",
		KeyHash:   repo.HashAPIKey(rawKey),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("insert api key: %v", err)
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/interviews", nil, map[string]string{
		"X-Api-Key": rawKey,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("api key request: %d %s", res.StatusCode, string(data))
	}

	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/interviews", nil, map[string]string{
		"X-Api-Key": "wrong",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad api key: want 401, got %d", res.StatusCode)
	}
}
