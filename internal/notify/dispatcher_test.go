package notify_test

import (
	"context"
	"testing"
	"time"

	"hireline/internal/config"
	"hireline/internal/db"
	"hireline/internal/domain"
	"hireline/internal/migrate"
	"hireline/internal/notify"
	"hireline/internal/repo"
)

type fakeAdapter struct {
	name    notify.Channel
	fail    bool
	calls   int
	lastCtx context.Context
}

func (a *fakeAdapter) Name() notify.Channel { return a.name }

func (a *fakeAdapter) Deliver(ctx context.Context, dest, subject, body string, _ map[string]string) notify.DeliveryOutcome {
	a.calls++
	a.lastCtx = ctx
	if a.fail {
		return notify.Failed("provider 503")
	}
	return notify.Sent("msg-" + string(a.name))
}

func newTestRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.Repo{DB: conn}
}

func testEnvelope() notify.Envelope {
	return notify.Envelope{
		EventKind: notify.EventInterviewScheduled,
		Recipient: notify.Recipient{Type: domain.RecipientCandidate, Ref: "cand-1"},
		Addresses: notify.Addresses{
			Email:         "sam@field.test",
			PushTopic:     "cand-1-topic",
			ChatChannelID: "channel-7",
		},
		Payload: notify.InterviewScheduledPayload{
			CompanyName:     "Acme",
			CandidateName:   "Sam Field",
			JobTitle:        "Backend Engineer",
			ScheduledAt:     time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC),
			DurationMinutes: 45,
			Kind:            domain.KindVirtual,
			JoinURL:         "https://meet.hireline.example/hireline-iv-1-abc#Sam%20Field",
		},
	}
}

func TestDispatchIndependentChannels(t *testing.T) {
	r := newTestRepo(t)
	cfg := config.Default()
	email := &fakeAdapter{name: notify.ChannelEmail}
	push := &fakeAdapter{name: notify.ChannelPush, fail: true}
	chat := &fakeAdapter{name: notify.ChannelChat}
	d := notify.NewDispatcher(r, cfg).WithAdapters(email, push, chat)

	env := testEnvelope()
	outcomes := d.Dispatch(context.Background(), env)

	if len(outcomes) != 3 {
		t.Fatalf("want 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[notify.ChannelEmail].Status != notify.OutcomeSent {
		t.Fatalf("email: %+v", outcomes[notify.ChannelEmail])
	}
	if outcomes[notify.ChannelChat].Status != notify.OutcomeSent {
		t.Fatalf("chat: %+v", outcomes[notify.ChannelChat])
	}
	// one channel failing never blocks the others
	if outcomes[notify.ChannelPush].Status != notify.OutcomeFailed {
		t.Fatalf("push: %+v", outcomes[notify.ChannelPush])
	}
	if outcomes[notify.ChannelPush].ErrorDetail != "provider 503" {
		t.Fatalf("push detail: %q", outcomes[notify.ChannelPush].ErrorDetail)
	}

	entries, err := r.ListDeliveryLog(context.Background(), domain.RecipientCandidate, "cand-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("want one ledger row per attempt, got %d", len(entries))
	}
	for _, e := range entries {
		switch e.Channel {
		case "push":
			if e.Status != domain.DeliveryFailed || e.ErrorDetail == nil {
				t.Fatalf("push row: %+v", e)
			}
			if e.SentAt != nil {
				t.Fatalf("failed row must not carry sent_at")
			}
		default:
			if e.Status != domain.DeliverySent || e.SentAt == nil {
				t.Fatalf("%s row: %+v", e.Channel, e)
			}
			if e.ReferenceID == nil || *e.ReferenceID != "msg-"+e.Channel {
				t.Fatalf("%s reference id: %+v", e.Channel, e.ReferenceID)
			}
		}
	}
}

func TestDispatchRetriesAppend(t *testing.T) {
	r := newTestRepo(t)
	cfg := config.Default()
	d := notify.NewDispatcher(r, cfg).WithAdapters(
		&fakeAdapter{name: notify.ChannelEmail, fail: true},
		&fakeAdapter{name: notify.ChannelPush},
		&fakeAdapter{name: notify.ChannelChat},
	)
	env := testEnvelope()
	d.Dispatch(context.Background(), env)
	d.Dispatch(context.Background(), env)

	entries, err := r.ListDeliveryLog(context.Background(), domain.RecipientCandidate, "cand-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	// retries append new rows, nothing is rewritten
	if len(entries) != 6 {
		t.Fatalf("want 6 rows after two dispatches, got %d", len(entries))
	}
}

func TestDispatchUnroutedEvent(t *testing.T) {
	r := newTestRepo(t)
	cfg := config.Default()
	email := &fakeAdapter{name: notify.ChannelEmail}
	d := notify.NewDispatcher(r, cfg).WithAdapters(email)

	env := testEnvelope()
	env.EventKind = "interview.unknown"
	outcomes := d.Dispatch(context.Background(), env)
	if len(outcomes) != 0 {
		t.Fatalf("unrouted event must dispatch nothing, got %v", outcomes)
	}
	if email.calls != 0 {
		t.Fatalf("adapter called for unrouted event")
	}
}

func TestDispatchAppliesChannelTimeout(t *testing.T) {
	r := newTestRepo(t)
	cfg := config.Default()
	cfg.Notifications.TimeoutSeconds = 3
	email := &fakeAdapter{name: notify.ChannelEmail}
	d := notify.NewDispatcher(r, cfg).WithAdapters(
		email,
		&fakeAdapter{name: notify.ChannelPush},
		&fakeAdapter{name: notify.ChannelChat},
	)
	d.Dispatch(context.Background(), testEnvelope())

	deadline, ok := email.lastCtx.Deadline()
	if !ok {
		t.Fatalf("adapter context must carry a deadline")
	}
	if until := time.Until(deadline); until > 3*time.Second {
		t.Fatalf("deadline too far out: %s", until)
	}
}

func TestUnconfiguredAdaptersFailFast(t *testing.T) {
	r := newTestRepo(t)
	// Default config ships empty channel credentials.
	d := notify.NewDispatcher(r, config.Default())
	outcomes := d.Dispatch(context.Background(), testEnvelope())
	if len(outcomes) != 3 {
		t.Fatalf("want 3 outcomes, got %d", len(outcomes))
	}
	for ch, out := range outcomes {
		if out.Status != notify.OutcomeFailed {
			t.Fatalf("%s: unconfigured channel must fail, got %+v", ch, out)
		}
		if out.ErrorDetail == "" {
			t.Fatalf("%s: failed outcome needs a detail", ch)
		}
	}
}

func TestGoAndClose(t *testing.T) {
	r := newTestRepo(t)
	d := notify.NewDispatcher(r, config.Default()).WithAdapters(
		&fakeAdapter{name: notify.ChannelEmail},
		&fakeAdapter{name: notify.ChannelPush},
		&fakeAdapter{name: notify.ChannelChat},
	)
	d.Go(testEnvelope())
	d.Close()

	entries, err := r.ListDeliveryLog(context.Background(), domain.RecipientCandidate, "cand-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("Close must join background dispatches, got %d rows", len(entries))
	}
}

func TestMarkDeliveriesRead(t *testing.T) {
	r := newTestRepo(t)
	d := notify.NewDispatcher(r, config.Default()).WithAdapters(
		&fakeAdapter{name: notify.ChannelEmail},
		&fakeAdapter{name: notify.ChannelPush},
		&fakeAdapter{name: notify.ChannelChat, fail: true},
	)
	ctx := context.Background()
	d.Dispatch(ctx, testEnvelope())

	unread, err := r.CountUnreadDeliveries(ctx, domain.RecipientCandidate, "cand-1")
	if err != nil {
		t.Fatal(err)
	}
	if unread != 2 {
		t.Fatalf("want 2 unread sent rows, got %d", unread)
	}
	updated, err := r.MarkDeliveriesRead(ctx, domain.RecipientCandidate, "cand-1")
	if err != nil {
		t.Fatal(err)
	}
	if updated != 2 {
		t.Fatalf("want 2 rows flipped to delivered, got %d", updated)
	}
	entries, err := r.ListDeliveryLog(ctx, domain.RecipientCandidate, "cand-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		// failed rows never move; sent rows become delivered
		if e.Channel == "chat" && e.Status != domain.DeliveryFailed {
			t.Fatalf("failed row rewritten: %+v", e)
		}
		if e.Channel != "chat" && e.Status != domain.DeliveryDelivered {
			t.Fatalf("sent row not delivered: %+v", e)
		}
	}
	unread, err = r.CountUnreadDeliveries(ctx, domain.RecipientCandidate, "cand-1")
	if err != nil {
		t.Fatal(err)
	}
	if unread != 0 {
		t.Fatalf("unread after mark-read: %d", unread)
	}
}
