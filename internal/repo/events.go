package repo

import (
	"context"
	"database/sql"

	"hireline/internal/domain"
)

// EventsAfter returns up to limit journal rows with an id greater than after,
// oldest first. Webhook dispatch uses this as its cursor feed.
func (r Repo) EventsAfter(ctx context.Context, limit int, after int64) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id, ts, type, COALESCE(interview_id,''), COALESCE(actor_id,''), payload_json FROM events WHERE id > ? ORDER BY id ASC LIMIT ?`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var evt domain.Event
		if err := rows.Scan(&evt.ID, &evt.TS, &evt.Type, &evt.InterviewID, &evt.ActorID, &evt.Payload); err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}

// LatestEventID returns the id of the newest journal row, or 0 when empty.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

// ListInterviewEvents returns the journal rows for one interview, oldest first.
func (r Repo) ListInterviewEvents(ctx context.Context, interviewID string) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, ts, type, COALESCE(interview_id,''), COALESCE(actor_id,''), payload_json FROM events WHERE interview_id=? ORDER BY id ASC`, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var evt domain.Event
		if err := rows.Scan(&evt.ID, &evt.TS, &evt.Type, &evt.InterviewID, &evt.ActorID, &evt.Payload); err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}
