package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"hireline/internal/config"
	"hireline/internal/db"
	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/migrate"
	"hireline/internal/notify"
	"hireline/internal/repo"
)

type testEnv struct {
	Engine     engine.Engine
	Dispatcher *notify.Dispatcher
	Ctx        context.Context
	Employer   domain.Employer
	Candidate  domain.Candidate
	Job        domain.Job
}

type stubAdapter struct {
	name notify.Channel
	fail bool
}

func (a stubAdapter) Name() notify.Channel { return a.name }

func (a stubAdapter) Deliver(_ context.Context, dest, subject, body string, _ map[string]string) notify.DeliveryOutcome {
	if a.fail {
		return notify.Failed("gateway unreachable")
	}
	if dest == "" {
		return notify.Failed("no destination for " + string(a.name))
	}
	return notify.Sent("ref-" + string(a.name))
}

var testClock = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default()
	r := repo.Repo{DB: conn}
	d := notify.NewDispatcher(r, cfg).WithAdapters(
		stubAdapter{name: notify.ChannelEmail},
		stubAdapter{name: notify.ChannelPush},
		stubAdapter{name: notify.ChannelChat},
	)
	eng := engine.New(conn, cfg, d)
	eng.Now = func() time.Time { return testClock }
	ctx := context.Background()

	emp := domain.Employer{
		ID:          "emp-1",
		CompanyName: "Acme",
		ContactName: "Pat Jones",
		Email:       "hiring@acme.test",
		PushTopic:   "emp-1-topic",
		CreatedAt:   testClock.Format(time.RFC3339),
	}
	if err := r.InsertEmployer(ctx, emp); err != nil {
		t.Fatalf("seed employer: %v", err)
	}
	cand := domain.Candidate{
		ID:        "cand-1",
		FullName:  "Sam Field",
		Email:     "sam@field.test",
		PushTopic: "cand-1-topic",
		CreatedAt: testClock.Format(time.RFC3339),
	}
	if err := r.InsertCandidate(ctx, cand); err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	job := domain.Job{
		ID:         "job-1",
		EmployerID: emp.ID,
		Title:      "Backend Engineer",
		Status:     "open",
		CreatedAt:  testClock.Format(time.RFC3339),
	}
	if err := r.InsertJob(ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return testEnv{Engine: eng, Dispatcher: d, Ctx: ctx, Employer: emp, Candidate: cand, Job: job}
}

func schedule(t *testing.T, env testEnv, opts engine.ScheduleOptions) domain.Interview {
	t.Helper()
	if opts.EmployerID == "" {
		opts.EmployerID = env.Employer.ID
	}
	if opts.CandidateID == "" {
		opts.CandidateID = env.Candidate.ID
	}
	if opts.ScheduledAt.IsZero() {
		opts.ScheduledAt = testClock.Add(48 * time.Hour)
	}
	if opts.Kind == "" {
		opts.Kind = domain.KindVirtual
	}
	if opts.JobID == "" && opts.JobTitleOverride == "" {
		opts.JobID = env.Job.ID
	}
	iv, err := env.Engine.Schedule(env.Ctx, opts)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return iv
}

func TestScheduleVirtualInterview(t *testing.T) {
	env := newTestEnv(t)
	iv := schedule(t, env, engine.ScheduleOptions{})
	env.Dispatcher.Close()

	if iv.Status != domain.StatusConfirmed {
		t.Fatalf("auto_confirm on: want confirmed, got %s", iv.Status)
	}
	if iv.DurationMinutes != 30 {
		t.Fatalf("default duration: want 30, got %d", iv.DurationMinutes)
	}
	if iv.MeetingRef == nil {
		t.Fatalf("virtual interview must get a meeting ref")
	}
	if !strings.HasPrefix(*iv.MeetingRef, "hireline-"+iv.ID+"-") {
		t.Fatalf("meeting ref %q does not embed prefix and interview id", *iv.MeetingRef)
	}
	stored, err := env.Engine.Repo.GetInterview(env.Ctx, iv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.MeetingRef == nil || *stored.MeetingRef != *iv.MeetingRef {
		t.Fatalf("stored meeting ref does not match returned one")
	}
}

func TestScheduleValidation(t *testing.T) {
	env := newTestEnv(t)
	future := testClock.Add(24 * time.Hour)

	cases := []struct {
		name string
		opts engine.ScheduleOptions
	}{
		{"past time", engine.ScheduleOptions{
			EmployerID: env.Employer.ID, CandidateID: env.Candidate.ID,
			ScheduledAt: testClock.Add(-time.Hour), Kind: domain.KindVirtual, JobID: env.Job.ID,
		}},
		{"physical without location", engine.ScheduleOptions{
			EmployerID: env.Employer.ID, CandidateID: env.Candidate.ID,
			ScheduledAt: future, Kind: domain.KindPhysical, JobID: env.Job.ID,
		}},
		{"no job reference", engine.ScheduleOptions{
			EmployerID: env.Employer.ID, CandidateID: env.Candidate.ID,
			ScheduledAt: future, Kind: domain.KindVirtual,
		}},
		{"unknown kind", engine.ScheduleOptions{
			EmployerID: env.Employer.ID, CandidateID: env.Candidate.ID,
			ScheduledAt: future, Kind: "onsite", JobID: env.Job.ID,
		}},
	}
	for _, tc := range cases {
		if _, err := env.Engine.Schedule(env.Ctx, tc.opts); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestSchedulePhysicalHasNoMeetingRef(t *testing.T) {
	env := newTestEnv(t)
	iv := schedule(t, env, engine.ScheduleOptions{
		Kind:     domain.KindPhysical,
		Location: "12 Main St, floor 3",
	})
	env.Dispatcher.Close()
	if iv.MeetingRef != nil {
		t.Fatalf("physical interview must not get a meeting ref")
	}
	if iv.Location == nil || *iv.Location != "12 Main St, floor 3" {
		t.Fatalf("location not stored")
	}
}

func TestJobMustBelongToEmployer(t *testing.T) {
	env := newTestEnv(t)
	other := domain.Employer{ID: "emp-2", CompanyName: "Rival", Email: "jobs@rival.test", CreatedAt: testClock.Format(time.RFC3339)}
	if err := env.Engine.Repo.InsertEmployer(env.Ctx, other); err != nil {
		t.Fatal(err)
	}
	_, err := env.Engine.Schedule(env.Ctx, engine.ScheduleOptions{
		EmployerID:  other.ID,
		CandidateID: env.Candidate.ID,
		ScheduledAt: testClock.Add(24 * time.Hour),
		Kind:        domain.KindVirtual,
		JobID:       env.Job.ID,
	})
	if err == nil {
		t.Fatalf("expected cross-employer job to be rejected")
	}
}

func TestStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	iv := schedule(t, env, engine.ScheduleOptions{})

	iv, err := env.Engine.Start(env.Ctx, iv.ID)
	if err != nil || iv.Status != domain.StatusInProgress {
		t.Fatalf("to in_progress: %v (status %s)", err, iv.Status)
	}
	iv, err = env.Engine.Complete(env.Ctx, iv.ID, "strong hire")
	if err != nil || iv.Status != domain.StatusCompleted {
		t.Fatalf("to completed: %v (status %s)", err, iv.Status)
	}
	if iv.OutcomeNotes == nil || *iv.OutcomeNotes != "strong hire" {
		t.Fatalf("outcome notes not stored")
	}
	// terminal: no way out
	if _, err := env.Engine.Cancel(env.Ctx, iv.ID, "tester"); err == nil {
		t.Fatalf("expected transition error from completed")
	}
	if _, err := env.Engine.Reschedule(env.Ctx, iv.ID, testClock.Add(72*time.Hour)); err == nil {
		t.Fatalf("expected transition error from completed")
	}
	env.Dispatcher.Close()
}

func TestCancelIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	iv := schedule(t, env, engine.ScheduleOptions{})

	iv, err := env.Engine.Cancel(env.Ctx, iv.ID, "tester")
	if err != nil || iv.Status != domain.StatusCancelled {
		t.Fatalf("cancel: %v", err)
	}
	again, err := env.Engine.Cancel(env.Ctx, iv.ID, "tester")
	if err != nil {
		t.Fatalf("second cancel must be a no-op success: %v", err)
	}
	if again.Status != domain.StatusCancelled {
		t.Fatalf("status changed on repeat cancel: %s", again.Status)
	}
	env.Dispatcher.Close()
}

func TestReschedule(t *testing.T) {
	env := newTestEnv(t)
	iv := schedule(t, env, engine.ScheduleOptions{})
	ref := *iv.MeetingRef

	newAt := testClock.Add(96 * time.Hour)
	iv, err := env.Engine.Reschedule(env.Ctx, iv.ID, newAt)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if iv.Status != domain.StatusRescheduled {
		t.Fatalf("want rescheduled, got %s", iv.Status)
	}
	if iv.ScheduledAt != newAt.UTC().Format(time.RFC3339) {
		t.Fatalf("scheduled_at not moved: %s", iv.ScheduledAt)
	}
	if iv.MeetingRef == nil || *iv.MeetingRef != ref {
		t.Fatalf("meeting ref must survive a reschedule")
	}
	// a rescheduled interview can still run
	if _, err := env.Engine.Start(env.Ctx, iv.ID); err != nil {
		t.Fatalf("start after reschedule: %v", err)
	}
	// but never into the past
	if _, err := env.Engine.Reschedule(env.Ctx, iv.ID, testClock.Add(-time.Hour)); err == nil {
		t.Fatalf("expected past-time rejection")
	}
	env.Dispatcher.Close()
}

func TestNoShow(t *testing.T) {
	env := newTestEnv(t)
	iv := schedule(t, env, engine.ScheduleOptions{})
	iv, err := env.Engine.MarkNoShow(env.Ctx, iv.ID)
	if err != nil || iv.Status != domain.StatusNoShow {
		t.Fatalf("no-show: %v", err)
	}
	if _, err := env.Engine.Start(env.Ctx, iv.ID); err == nil {
		t.Fatalf("expected transition error from no_show")
	}
	env.Dispatcher.Close()
}

func TestWindowClassification(t *testing.T) {
	env := newTestEnv(t)
	upcoming := schedule(t, env, engine.ScheduleOptions{ScheduledAt: testClock.Add(24 * time.Hour)})
	cancelled := schedule(t, env, engine.ScheduleOptions{ScheduledAt: testClock.Add(48 * time.Hour)})
	if _, err := env.Engine.Cancel(env.Ctx, cancelled.ID, "tester"); err != nil {
		t.Fatal(err)
	}
	env.Dispatcher.Close()

	if w := env.Engine.Window(upcoming); w != engine.WindowUpcoming {
		t.Fatalf("future confirmed interview: want upcoming, got %s", w)
	}
	got, err := env.Engine.Repo.GetInterview(env.Ctx, cancelled.ID)
	if err != nil {
		t.Fatal(err)
	}
	if w := env.Engine.Window(got); w != engine.WindowPast {
		t.Fatalf("cancelled interview: want past, got %s", w)
	}

	ups, err := env.Engine.ListInterviews(env.Ctx, repo.InterviewFilters{CandidateID: env.Candidate.ID}, engine.WindowUpcoming)
	if err != nil {
		t.Fatal(err)
	}
	if len(ups) != 1 || ups[0].ID != upcoming.ID {
		t.Fatalf("upcoming filter: want exactly the confirmed interview, got %d rows", len(ups))
	}
}

func TestScheduleWritesDeliveryLog(t *testing.T) {
	env := newTestEnv(t)
	schedule(t, env, engine.ScheduleOptions{})
	env.Dispatcher.Close()

	// default routes send interview.scheduled over email, push, and chat;
	// the seeded candidate has no chat channel so that leg fails fast.
	entries, err := env.Engine.Repo.ListDeliveryLog(env.Ctx, domain.RecipientCandidate, env.Candidate.ID, 0)
	if err != nil {
		t.Fatalf("list deliveries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("want 3 attempts for candidate, got %d", len(entries))
	}
	byChannel := map[string]domain.DeliveryLogEntry{}
	for _, e := range entries {
		if e.EventKind != notify.EventInterviewScheduled {
			t.Fatalf("unexpected event kind %s", e.EventKind)
		}
		byChannel[e.Channel] = e
	}
	if byChannel["email"].Status != domain.DeliverySent {
		t.Fatalf("email: want sent, got %s", byChannel["email"].Status)
	}
	if byChannel["push"].Status != domain.DeliverySent {
		t.Fatalf("push: want sent, got %s", byChannel["push"].Status)
	}
	if byChannel["chat"].Status != domain.DeliveryFailed {
		t.Fatalf("chat without channel id: want failed, got %s", byChannel["chat"].Status)
	}
	if byChannel["email"].SentAt == nil {
		t.Fatalf("sent rows must carry sent_at")
	}
}

func TestEventJournal(t *testing.T) {
	env := newTestEnv(t)
	iv := schedule(t, env, engine.ScheduleOptions{})
	if _, err := env.Engine.Cancel(env.Ctx, iv.ID, "recruiter-9"); err != nil {
		t.Fatal(err)
	}
	env.Dispatcher.Close()

	evts, err := env.Engine.Repo.ListInterviewEvents(env.Ctx, iv.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(evts) != 2 {
		t.Fatalf("want 2 journal rows, got %d", len(evts))
	}
	if evts[0].Type != notify.EventInterviewScheduled {
		t.Fatalf("first event: %s", evts[0].Type)
	}
	if evts[1].Type != notify.EventInterviewCancelled {
		t.Fatalf("second event: %s", evts[1].Type)
	}
	if evts[1].ActorID != "recruiter-9" {
		t.Fatalf("cancel actor not journaled: %q", evts[1].ActorID)
	}
}

func TestRemindRequiresLiveInterview(t *testing.T) {
	env := newTestEnv(t)
	iv := schedule(t, env, engine.ScheduleOptions{})
	if _, err := env.Engine.Remind(env.Ctx, iv.ID); err != nil {
		t.Fatalf("remind confirmed: %v", err)
	}
	if _, err := env.Engine.Cancel(env.Ctx, iv.ID, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.Remind(env.Ctx, iv.ID); err == nil {
		t.Fatalf("expected remind to fail on cancelled interview")
	}
	env.Dispatcher.Close()
}
