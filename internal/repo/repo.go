package repo

import (
	"context"
	"database/sql"
	"errors"

	"hireline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullablePtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func optionalString(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}

func (r Repo) InsertEmployer(ctx context.Context, e domain.Employer) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO employers(id,company_name,contact_name,email,push_topic,chat_channel_id,created_at) VALUES (?,?,?,?,?,?,?)`,
		e.ID, e.CompanyName, nullable(e.ContactName), nullable(e.Email), nullable(e.PushTopic), nullable(e.ChatChannelID), e.CreatedAt)
	return err
}

func (r Repo) GetEmployer(ctx context.Context, id string) (domain.Employer, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,company_name,COALESCE(contact_name,''),COALESCE(email,''),COALESCE(push_topic,''),COALESCE(chat_channel_id,''),created_at FROM employers WHERE id=?`, id)
	var e domain.Employer
	err := row.Scan(&e.ID, &e.CompanyName, &e.ContactName, &e.Email, &e.PushTopic, &e.ChatChannelID, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

func (r Repo) ListEmployers(ctx context.Context) ([]domain.Employer, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,company_name,COALESCE(contact_name,''),COALESCE(email,''),COALESCE(push_topic,''),COALESCE(chat_channel_id,''),created_at FROM employers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Employer
	for rows.Next() {
		var e domain.Employer
		if err := rows.Scan(&e.ID, &e.CompanyName, &e.ContactName, &e.Email, &e.PushTopic, &e.ChatChannelID, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) InsertCandidate(ctx context.Context, c domain.Candidate) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO candidates(id,full_name,email,push_topic,created_at) VALUES (?,?,?,?,?)`,
		c.ID, c.FullName, nullable(c.Email), nullable(c.PushTopic), c.CreatedAt)
	return err
}

func (r Repo) GetCandidate(ctx context.Context, id string) (domain.Candidate, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,full_name,COALESCE(email,''),COALESCE(push_topic,''),created_at FROM candidates WHERE id=?`, id)
	var c domain.Candidate
	err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.PushTopic, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,full_name,COALESCE(email,''),COALESCE(push_topic,''),created_at FROM candidates ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.PushTopic, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) InsertJob(ctx context.Context, j domain.Job) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO jobs(id,employer_id,title,location,status,created_at) VALUES (?,?,?,?,?,?)`,
		j.ID, j.EmployerID, j.Title, nullable(j.Location), j.Status, j.CreatedAt)
	return err
}

func (r Repo) GetJob(ctx context.Context, id string) (domain.Job, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,employer_id,title,COALESCE(location,''),status,created_at FROM jobs WHERE id=?`, id)
	var j domain.Job
	err := row.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Location, &j.Status, &j.CreatedAt)
	if err == sql.ErrNoRows {
		return j, ErrNotFound
	}
	return j, err
}

func (r Repo) ListJobs(ctx context.Context, employerID string) ([]domain.Job, error) {
	query := `SELECT id,employer_id,title,COALESCE(location,''),status,created_at FROM jobs`
	var args []any
	if employerID != "" {
		query += ` WHERE employer_id=?`
		args = append(args, employerID)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Location, &j.Status, &j.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, j)
	}
	return res, rows.Err()
}
