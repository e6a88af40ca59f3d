package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hireline/internal/config"
	"hireline/internal/domain"
	"hireline/internal/events"
	"hireline/internal/meeting"
	"hireline/internal/notify"
	"hireline/internal/repo"
)

// Engine owns the interview state machine. Transitions commit to the record
// store first; notification dispatch is a best-effort side effect that never
// rolls a transition back and never surfaces failures to the caller.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Meetings meeting.Generator
	Notifier *notify.Dispatcher
	Config   *config.Config
	Now      func() time.Time
}

func New(db *sql.DB, cfg *config.Config, notifier *notify.Dispatcher) Engine {
	return Engine{
		DB:       db,
		Repo:     repo.Repo{DB: db},
		Events:   events.Writer{DB: db},
		Meetings: meeting.New(cfg.Meeting.Prefix, cfg.Meeting.BaseURL),
		Notifier: notifier,
		Config:   cfg,
		Now:      time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ValidationError marks malformed or policy-violating scheduling input. It is
// surfaced to the caller synchronously and never retried.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ScheduleOptions are parameters for scheduling an interview.
type ScheduleOptions struct {
	EmployerID       string
	CandidateID      string
	ScheduledAt      time.Time
	DurationMinutes  int
	Kind             string
	Location         string
	JobID            string
	JobTitleOverride string
	Notes            string
}

// Schedule validates the request, creates the interview, and fans the
// scheduled event out to the delivery channels. The returned error reflects
// the record write alone; notification outcomes land in the delivery log.
func (e Engine) Schedule(ctx context.Context, opts ScheduleOptions) (domain.Interview, error) {
	if opts.EmployerID == "" {
		return domain.Interview{}, validationErrorf("employer is required")
	}
	if opts.CandidateID == "" {
		return domain.Interview{}, validationErrorf("candidate is required")
	}
	switch opts.Kind {
	case domain.KindVirtual, domain.KindPhysical:
	default:
		return domain.Interview{}, validationErrorf("kind must be %s or %s", domain.KindVirtual, domain.KindPhysical)
	}
	if opts.Kind == domain.KindPhysical && opts.Location == "" {
		return domain.Interview{}, validationErrorf("location is required for physical interviews")
	}
	if opts.JobID == "" && opts.JobTitleOverride == "" {
		return domain.Interview{}, validationErrorf("a job or a job title is required")
	}
	now := e.now()
	if opts.ScheduledAt.Before(now) {
		return domain.Interview{}, validationErrorf("scheduled time is in the past")
	}
	if opts.DurationMinutes <= 0 {
		opts.DurationMinutes = e.Config.Scheduling.DefaultDuration
	}
	if opts.DurationMinutes <= 0 {
		return domain.Interview{}, validationErrorf("duration must be positive")
	}

	employer, err := e.Repo.GetEmployer(ctx, opts.EmployerID)
	if err != nil {
		return domain.Interview{}, fmt.Errorf("employer %s: %w", opts.EmployerID, err)
	}
	candidate, err := e.Repo.GetCandidate(ctx, opts.CandidateID)
	if err != nil {
		return domain.Interview{}, fmt.Errorf("candidate %s: %w", opts.CandidateID, err)
	}
	jobTitle := opts.JobTitleOverride
	if opts.JobID != "" {
		job, err := e.Repo.GetJob(ctx, opts.JobID)
		if err != nil {
			return domain.Interview{}, fmt.Errorf("job %s: %w", opts.JobID, err)
		}
		if job.EmployerID != opts.EmployerID {
			return domain.Interview{}, validationErrorf("job %s does not belong to employer %s", opts.JobID, opts.EmployerID)
		}
		jobTitle = job.Title
	}

	status := domain.StatusPending
	if e.Config.Scheduling.AutoConfirm {
		status = domain.StatusConfirmed
	}
	id := uuid.New().String()
	nowStr := now.UTC().Format(time.RFC3339)
	iv := domain.Interview{
		ID:               id,
		EmployerID:       opts.EmployerID,
		CandidateID:      opts.CandidateID,
		ScheduledAt:      opts.ScheduledAt.UTC().Format(time.RFC3339),
		DurationMinutes:  opts.DurationMinutes,
		Kind:             opts.Kind,
		Location:         optionalString(opts.Location),
		JobID:            optionalString(opts.JobID),
		JobTitleOverride: optionalString(opts.JobTitleOverride),
		Notes:            optionalString(opts.Notes),
		Status:           status,
		CreatedAt:        nowStr,
		UpdatedAt:        nowStr,
	}
	if opts.Kind == domain.KindVirtual {
		// Generated exactly once; the stored reference is the room for the
		// lifetime of the interview.
		ref := e.Meetings.Generate(id)
		iv.MeetingRef = &ref
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Interview{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertInterviewTx(ctx, tx, iv); err != nil {
		return domain.Interview{}, fmt.Errorf("insert interview: %w", err)
	}
	if err := e.Events.Append(ctx, tx, notify.EventInterviewScheduled, iv.ID, "", events.EventPayload{
		"status":       iv.Status,
		"scheduled_at": iv.ScheduledAt,
		"kind":         iv.Kind,
	}); err != nil {
		return domain.Interview{}, fmt.Errorf("journal event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Interview{}, err
	}

	e.notifyParties(iv, employer, candidate, jobTitle, notify.EventInterviewScheduled)
	return iv, nil
}

// Cancel moves a non-terminal interview to cancelled. Cancelling an
// already-cancelled interview is a no-op success.
func (e Engine) Cancel(ctx context.Context, id, actorRef string) (domain.Interview, error) {
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if iv.Status == domain.StatusCancelled {
		return iv, nil
	}
	if err := ensureInterviewTransition(iv.Status, domain.StatusCancelled); err != nil {
		return iv, err
	}
	iv.Status = domain.StatusCancelled
	if err := e.updateInterviewAs(ctx, &iv, actorRef); err != nil {
		return iv, err
	}
	e.notifyTransition(ctx, iv, notify.EventInterviewCancelled)
	return iv, nil
}

// Reschedule moves a non-terminal interview to a new time. The record is
// mutated in place: the original slot is not kept, only the rescheduled
// status pulse and the new time.
func (e Engine) Reschedule(ctx context.Context, id string, newAt time.Time) (domain.Interview, error) {
	if newAt.Before(e.now()) {
		return domain.Interview{}, validationErrorf("new scheduled time is in the past")
	}
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if err := ensureInterviewTransition(iv.Status, domain.StatusRescheduled); err != nil {
		return iv, err
	}
	iv.Status = domain.StatusRescheduled
	iv.ScheduledAt = newAt.UTC().Format(time.RFC3339)
	if err := e.updateInterview(ctx, &iv); err != nil {
		return iv, err
	}
	e.notifyTransition(ctx, iv, notify.EventInterviewRescheduled)
	return iv, nil
}

// Complete marks an interview completed, optionally recording outcome notes.
func (e Engine) Complete(ctx context.Context, id, outcomeNotes string) (domain.Interview, error) {
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if err := ensureInterviewTransition(iv.Status, domain.StatusCompleted); err != nil {
		return iv, err
	}
	iv.Status = domain.StatusCompleted
	if outcomeNotes != "" {
		iv.OutcomeNotes = &outcomeNotes
	}
	return iv, e.updateInterview(ctx, &iv)
}

// MarkNoShow marks a confirmed interview as a no-show.
func (e Engine) MarkNoShow(ctx context.Context, id string) (domain.Interview, error) {
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if err := ensureInterviewTransition(iv.Status, domain.StatusNoShow); err != nil {
		return iv, err
	}
	iv.Status = domain.StatusNoShow
	return iv, e.updateInterview(ctx, &iv)
}

// Remind re-emits the interview details to both parties.
func (e Engine) Remind(ctx context.Context, id string) (domain.Interview, error) {
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if domain.TerminalStatus(iv.Status) {
		return iv, fmt.Errorf("invalid interview status transition %s -> %s", iv.Status, iv.Status)
	}
	e.notifyTransition(ctx, iv, notify.EventInterviewReminder)
	return iv, nil
}

// RecordApplication notifies an employer that a candidate applied for a job.
func (e Engine) RecordApplication(ctx context.Context, jobID, candidateID string) error {
	job, err := e.Repo.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}
	employer, err := e.Repo.GetEmployer(ctx, job.EmployerID)
	if err != nil {
		return fmt.Errorf("employer %s: %w", job.EmployerID, err)
	}
	candidate, err := e.Repo.GetCandidate(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("candidate %s: %w", candidateID, err)
	}
	e.Notifier.Go(notify.Envelope{
		EventKind: notify.EventApplicationReceived,
		Recipient: notify.Recipient{Type: domain.RecipientEmployer, Ref: employer.ID},
		Addresses: notify.Addresses{
			Email:         employer.Email,
			PushTopic:     employer.PushTopic,
			ChatChannelID: employer.ChatChannelID,
		},
		Payload: notify.ApplicationReceivedPayload{
			CandidateName: candidate.FullName,
			JobTitle:      job.Title,
		},
	})
	return nil
}

func ensureInterviewTransition(oldStatus, newStatus string) error {
	switch oldStatus {
	case domain.StatusPending:
		switch newStatus {
		case domain.StatusConfirmed, domain.StatusInProgress, domain.StatusCancelled, domain.StatusRescheduled:
			return nil
		}
	case domain.StatusConfirmed:
		switch newStatus {
		case domain.StatusInProgress, domain.StatusCompleted, domain.StatusCancelled, domain.StatusNoShow, domain.StatusRescheduled:
			return nil
		}
	case domain.StatusInProgress:
		switch newStatus {
		case domain.StatusCompleted, domain.StatusCancelled:
			return nil
		}
	case domain.StatusRescheduled:
		switch newStatus {
		case domain.StatusInProgress, domain.StatusCompleted, domain.StatusCancelled, domain.StatusNoShow, domain.StatusRescheduled:
			return nil
		}
	}
	return fmt.Errorf("invalid interview status transition %s -> %s", oldStatus, newStatus)
}

func (e Engine) updateInterview(ctx context.Context, iv *domain.Interview) error {
	return e.updateInterviewAs(ctx, iv, "")
}

// updateInterviewAs writes the interview row and its journal event in one
// transaction.
func (e Engine) updateInterviewAs(ctx context.Context, iv *domain.Interview, actorID string) error {
	iv.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateInterviewTx(ctx, tx, *iv); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, eventTypeForStatus(iv.Status), iv.ID, actorID, events.EventPayload{
		"status":       iv.Status,
		"scheduled_at": iv.ScheduledAt,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func eventTypeForStatus(status string) string {
	switch status {
	case domain.StatusCancelled:
		return notify.EventInterviewCancelled
	case domain.StatusRescheduled:
		return notify.EventInterviewRescheduled
	}
	return "interview." + status
}

// notifyTransition resolves parties from the store and fans the event out.
// Lookup failures degrade to skipped envelopes; the transition has already
// committed.
func (e Engine) notifyTransition(ctx context.Context, iv domain.Interview, eventKind string) {
	employer, err := e.Repo.GetEmployer(ctx, iv.EmployerID)
	if err != nil {
		return
	}
	candidate, err := e.Repo.GetCandidate(ctx, iv.CandidateID)
	if err != nil {
		return
	}
	e.notifyParties(iv, employer, candidate, e.jobTitleFor(ctx, iv), eventKind)
}

func (e Engine) jobTitleFor(ctx context.Context, iv domain.Interview) string {
	if iv.JobID != nil {
		if job, err := e.Repo.GetJob(ctx, *iv.JobID); err == nil {
			return job.Title
		}
	}
	if iv.JobTitleOverride != nil {
		return *iv.JobTitleOverride
	}
	return "Interview"
}

// notifyParties hands envelopes for candidate, employer, and (if configured)
// the internal team channel to the dispatcher. Dispatch runs in the
// background; the caller does not wait on channel outcomes.
func (e Engine) notifyParties(iv domain.Interview, employer domain.Employer, candidate domain.Candidate, jobTitle, eventKind string) {
	scheduledAt, _ := time.Parse(time.RFC3339, iv.ScheduledAt)
	location := ""
	if iv.Location != nil {
		location = *iv.Location
	}
	meetingRef := ""
	if iv.MeetingRef != nil {
		meetingRef = *iv.MeetingRef
	}

	build := func(displayName string) notify.Payload {
		joinURL := ""
		if meetingRef != "" {
			joinURL = e.Meetings.JoinURL(meetingRef, displayName)
		}
		switch eventKind {
		case notify.EventInterviewCancelled:
			return notify.InterviewCancelledPayload{
				CompanyName:   employer.CompanyName,
				CandidateName: candidate.FullName,
				JobTitle:      jobTitle,
				ScheduledAt:   scheduledAt,
			}
		case notify.EventInterviewRescheduled:
			return notify.InterviewRescheduledPayload{
				CompanyName:   employer.CompanyName,
				CandidateName: candidate.FullName,
				JobTitle:      jobTitle,
				NewTime:       scheduledAt,
			}
		case notify.EventInterviewReminder:
			return notify.InterviewReminderPayload{
				CompanyName:   employer.CompanyName,
				CandidateName: candidate.FullName,
				JobTitle:      jobTitle,
				ScheduledAt:   scheduledAt,
				Kind:          iv.Kind,
				Location:      location,
				JoinURL:       joinURL,
			}
		default:
			return notify.InterviewScheduledPayload{
				CompanyName:     employer.CompanyName,
				CandidateName:   candidate.FullName,
				JobTitle:        jobTitle,
				ScheduledAt:     scheduledAt,
				DurationMinutes: iv.DurationMinutes,
				Kind:            iv.Kind,
				Location:        location,
				JoinURL:         joinURL,
			}
		}
	}

	e.Notifier.Go(notify.Envelope{
		EventKind: eventKind,
		Recipient: notify.Recipient{Type: domain.RecipientCandidate, Ref: candidate.ID},
		Addresses: notify.Addresses{Email: candidate.Email, PushTopic: candidate.PushTopic},
		Payload:   build(candidate.FullName),
	})
	e.Notifier.Go(notify.Envelope{
		EventKind: eventKind,
		Recipient: notify.Recipient{Type: domain.RecipientEmployer, Ref: employer.ID},
		Addresses: notify.Addresses{
			Email:         employer.Email,
			PushTopic:     employer.PushTopic,
			ChatChannelID: employer.ChatChannelID,
		},
		Payload: build(employer.ContactName),
	})
	if team := e.Config.Notifications.TeamChannelID; team != "" {
		e.Notifier.Go(notify.Envelope{
			EventKind: eventKind,
			Recipient: notify.Recipient{Type: domain.RecipientAdmin, Ref: "team"},
			Addresses: notify.Addresses{ChatChannelID: team},
			Payload:   build("Hireline"),
		})
	}
}

// --- helpers ---

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
