package engine

import (
	"context"
	"time"

	"hireline/internal/domain"
	"hireline/internal/repo"
)

const (
	WindowUpcoming = "upcoming"
	WindowPast     = "past"
)

// Confirm moves a pending interview to confirmed.
func (e Engine) Confirm(ctx context.Context, id string) (domain.Interview, error) {
	return e.transition(ctx, id, domain.StatusConfirmed)
}

// Start marks an interview as underway.
func (e Engine) Start(ctx context.Context, id string) (domain.Interview, error) {
	return e.transition(ctx, id, domain.StatusInProgress)
}

func (e Engine) transition(ctx context.Context, id, newStatus string) (domain.Interview, error) {
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if err := ensureInterviewTransition(iv.Status, newStatus); err != nil {
		return iv, err
	}
	iv.Status = newStatus
	return iv, e.updateInterview(ctx, &iv)
}

// Window classifies an interview at read time. Upcoming means the scheduled
// time is still ahead and the interview has not reached a terminal status;
// everything else is past. The stored record is never rewritten by a sweep.
func (e Engine) Window(iv domain.Interview) string {
	at, err := time.Parse(time.RFC3339, iv.ScheduledAt)
	if err == nil && at.After(e.now()) && !domain.TerminalStatus(iv.Status) {
		return WindowUpcoming
	}
	return WindowPast
}

// ListInterviews returns interviews matching the filters, optionally narrowed
// to a read-time window.
func (e Engine) ListInterviews(ctx context.Context, f repo.InterviewFilters, window string) ([]domain.Interview, error) {
	items, err := e.Repo.ListInterviews(ctx, f)
	if err != nil {
		return nil, err
	}
	if window == "" {
		return items, nil
	}
	filtered := make([]domain.Interview, 0, len(items))
	for _, iv := range items {
		if e.Window(iv) == window {
			filtered = append(filtered, iv)
		}
	}
	return filtered, nil
}
