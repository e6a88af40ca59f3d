package repo

import (
	"context"
	"database/sql"

	"hireline/internal/domain"
)

// InterviewFilters scopes interview listings to one party.
type InterviewFilters struct {
	EmployerID  string
	CandidateID string
	Status      string
}

const interviewColumns = `id,employer_id,candidate_id,scheduled_at,duration_minutes,kind,meeting_ref,location,job_id,job_title_override,notes,outcome_notes,status,created_at,updated_at`

func scanInterview(scan func(dest ...any) error) (domain.Interview, error) {
	var iv domain.Interview
	var meetingRef, location, jobID, jobTitle, notes, outcome sql.NullString
	err := scan(&iv.ID, &iv.EmployerID, &iv.CandidateID, &iv.ScheduledAt, &iv.DurationMinutes, &iv.Kind,
		&meetingRef, &location, &jobID, &jobTitle, &notes, &outcome, &iv.Status, &iv.CreatedAt, &iv.UpdatedAt)
	if err == sql.ErrNoRows {
		return iv, ErrNotFound
	}
	if err != nil {
		return iv, err
	}
	iv.MeetingRef = optionalString(meetingRef)
	iv.Location = optionalString(location)
	iv.JobID = optionalString(jobID)
	iv.JobTitleOverride = optionalString(jobTitle)
	iv.Notes = optionalString(notes)
	iv.OutcomeNotes = optionalString(outcome)
	return iv, nil
}

func (r Repo) InsertInterviewTx(ctx context.Context, tx *sql.Tx, iv domain.Interview) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO interviews(`+interviewColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		iv.ID, iv.EmployerID, iv.CandidateID, iv.ScheduledAt, iv.DurationMinutes, iv.Kind,
		nullablePtr(iv.MeetingRef), nullablePtr(iv.Location), nullablePtr(iv.JobID), nullablePtr(iv.JobTitleOverride),
		nullablePtr(iv.Notes), nullablePtr(iv.OutcomeNotes), iv.Status, iv.CreatedAt, iv.UpdatedAt)
	return err
}

func (r Repo) GetInterview(ctx context.Context, id string) (domain.Interview, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id=?`, id)
	return scanInterview(row.Scan)
}

func (r Repo) UpdateInterviewTx(ctx context.Context, tx *sql.Tx, iv domain.Interview) error {
	res, err := tx.ExecContext(ctx, `UPDATE interviews SET scheduled_at=?,duration_minutes=?,meeting_ref=?,location=?,notes=?,outcome_notes=?,status=?,updated_at=? WHERE id=?`,
		iv.ScheduledAt, iv.DurationMinutes, nullablePtr(iv.MeetingRef), nullablePtr(iv.Location),
		nullablePtr(iv.Notes), nullablePtr(iv.OutcomeNotes), iv.Status, iv.UpdatedAt, iv.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListInterviews(ctx context.Context, f InterviewFilters) ([]domain.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews`
	var (
		clauses []string
		args    []any
	)
	if f.EmployerID != "" {
		clauses = append(clauses, `employer_id=?`)
		args = append(args, f.EmployerID)
	}
	if f.CandidateID != "" {
		clauses = append(clauses, `candidate_id=?`)
		args = append(args, f.CandidateID)
	}
	if f.Status != "" {
		clauses = append(clauses, `status=?`)
		args = append(args, f.Status)
	}
	for i, c := range clauses {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY scheduled_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Interview
	for rows.Next() {
		iv, err := scanInterview(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, iv)
	}
	return res, rows.Err()
}
