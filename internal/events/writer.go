// Package events journals interview lifecycle events. The journal is the
// source feed for outbound webhooks and is written in the same transaction
// as the interview row it describes.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append writes one journal row inside the caller's transaction.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, interviewID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,interview_id,actor_id,payload_json) VALUES (?,?,?,?,?)`,
		ts, evtType, nullable(interviewID), nullable(actorID), string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
