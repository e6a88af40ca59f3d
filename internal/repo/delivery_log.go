package repo

import (
	"context"
	"database/sql"

	"hireline/internal/domain"
)

const deliveryColumns = `id,recipient_type,recipient_ref,channel,event_kind,subject,content,status,sent_at,error_detail,reference_id,created_at`

// AppendDeliveryLog writes one ledger row for a single delivery attempt.
// The ledger is append-only; retries produce new rows.
func (r Repo) AppendDeliveryLog(ctx context.Context, entry domain.DeliveryLogEntry) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO delivery_log(`+deliveryColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		entry.ID, entry.RecipientType, entry.RecipientRef, entry.Channel, entry.EventKind,
		entry.Subject, entry.Content, entry.Status, nullablePtr(entry.SentAt),
		nullablePtr(entry.ErrorDetail), nullablePtr(entry.ReferenceID), entry.CreatedAt)
	return err
}

// ListDeliveryLog returns recent ledger entries for one recipient, newest first.
func (r Repo) ListDeliveryLog(ctx context.Context, recipientType, recipientRef string, limit int) ([]domain.DeliveryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+deliveryColumns+` FROM delivery_log WHERE recipient_type=? AND recipient_ref=? ORDER BY created_at DESC, id DESC LIMIT ?`,
		recipientType, recipientRef, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.DeliveryLogEntry
	for rows.Next() {
		entry, err := scanDeliveryLog(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, entry)
	}
	return res, rows.Err()
}

// CountUnreadDeliveries counts sent-but-not-delivered entries for a recipient.
func (r Repo) CountUnreadDeliveries(ctx context.Context, recipientType, recipientRef string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM delivery_log WHERE recipient_type=? AND recipient_ref=? AND status=?`,
		recipientType, recipientRef, domain.DeliverySent).Scan(&count)
	return count, err
}

// MarkDeliveriesRead flips all of a recipient's sent entries to delivered.
// Only sent rows move; failed and already-delivered rows are untouched.
func (r Repo) MarkDeliveriesRead(ctx context.Context, recipientType, recipientRef string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE delivery_log SET status=? WHERE recipient_type=? AND recipient_ref=? AND status=?`,
		domain.DeliveryDelivered, recipientType, recipientRef, domain.DeliverySent)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanDeliveryLog(scan func(dest ...any) error) (domain.DeliveryLogEntry, error) {
	var entry domain.DeliveryLogEntry
	var sentAt, errDetail, refID sql.NullString
	err := scan(&entry.ID, &entry.RecipientType, &entry.RecipientRef, &entry.Channel, &entry.EventKind,
		&entry.Subject, &entry.Content, &entry.Status, &sentAt, &errDetail, &refID, &entry.CreatedAt)
	if err != nil {
		return entry, err
	}
	entry.SentAt = optionalString(sentAt)
	entry.ErrorDetail = optionalString(errDetail)
	entry.ReferenceID = optionalString(refID)
	return entry, nil
}
