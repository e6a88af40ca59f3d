package server

import (
	"hireline/internal/domain"
)

// Request payloads

type CreateEmployerRequest struct {
	CompanyName   string `json:"company_name"`
	ContactName   string `json:"contact_name"`
	Email         string `json:"email" format:"email"`
	PushTopic     string `json:"push_topic,omitempty"`
	ChatChannelID string `json:"chat_channel_id,omitempty"`
}

type CreateCandidateRequest struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email" format:"email"`
	PushTopic string `json:"push_topic,omitempty"`
}

type CreateJobRequest struct {
	EmployerID string `json:"employer_id"`
	Title      string `json:"title"`
	Location   string `json:"location,omitempty"`
}

type ScheduleInterviewRequest struct {
	EmployerID       string `json:"employer_id"`
	CandidateID      string `json:"candidate_id"`
	ScheduledAt      string `json:"scheduled_at" format:"date-time"`
	DurationMinutes  int    `json:"duration_minutes,omitempty"`
	Kind             string `json:"kind" enum:"virtual,physical"`
	Location         string `json:"location,omitempty"`
	JobID            string `json:"job_id,omitempty"`
	JobTitleOverride string `json:"job_title_override,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

type RescheduleInterviewRequest struct {
	ScheduledAt string `json:"scheduled_at" format:"date-time"`
}

type CompleteInterviewRequest struct {
	OutcomeNotes string `json:"outcome_notes,omitempty"`
}

type RecordApplicationRequest struct {
	CandidateID string `json:"candidate_id"`
}

type MarkNotificationsReadRequest struct {
	RecipientType string `json:"recipient_type" enum:"candidate,employer,admin"`
	RecipientRef  string `json:"recipient_ref"`
}

// Response payloads

type EmployerResponse struct {
	ID            string `json:"id"`
	CompanyName   string `json:"company_name"`
	ContactName   string `json:"contact_name"`
	Email         string `json:"email"`
	PushTopic     string `json:"push_topic,omitempty"`
	ChatChannelID string `json:"chat_channel_id,omitempty"`
	CreatedAt     string `json:"created_at" format:"date-time"`
}

type CandidateResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	PushTopic string `json:"push_topic,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type JobResponse struct {
	ID         string `json:"id"`
	EmployerID string `json:"employer_id"`
	Title      string `json:"title"`
	Location   string `json:"location,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type InterviewResponse struct {
	ID               string  `json:"id"`
	EmployerID       string  `json:"employer_id"`
	CandidateID      string  `json:"candidate_id"`
	ScheduledAt      string  `json:"scheduled_at" format:"date-time"`
	DurationMinutes  int     `json:"duration_minutes"`
	Kind             string  `json:"kind" enum:"virtual,physical"`
	MeetingRef       *string `json:"meeting_ref,omitempty"`
	Location         *string `json:"location,omitempty"`
	JobID            *string `json:"job_id,omitempty"`
	JobTitleOverride *string `json:"job_title_override,omitempty"`
	Notes            *string `json:"notes,omitempty"`
	OutcomeNotes     *string `json:"outcome_notes,omitempty"`
	Status           string  `json:"status" enum:"pending,confirmed,in_progress,completed,cancelled,no_show,rescheduled"`
	Window           string  `json:"window" enum:"upcoming,past"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
	UpdatedAt        string  `json:"updated_at" format:"date-time"`
}

type DeliveryResponse struct {
	ID            string  `json:"id"`
	RecipientType string  `json:"recipient_type"`
	RecipientRef  string  `json:"recipient_ref"`
	Channel       string  `json:"channel" enum:"email,push,chat"`
	EventKind     string  `json:"event_kind"`
	Subject       string  `json:"subject"`
	Content       string  `json:"content"`
	Status        string  `json:"status" enum:"pending,sent,delivered,failed"`
	SentAt        *string `json:"sent_at,omitempty" format:"date-time"`
	ErrorDetail   *string `json:"error_detail,omitempty"`
	ReferenceID   *string `json:"reference_id,omitempty"`
	CreatedAt     string  `json:"created_at" format:"date-time"`
}

func employerResponse(e domain.Employer) EmployerResponse {
	return EmployerResponse{
		ID:            e.ID,
		CompanyName:   e.CompanyName,
		ContactName:   e.ContactName,
		Email:         e.Email,
		PushTopic:     e.PushTopic,
		ChatChannelID: e.ChatChannelID,
		CreatedAt:     e.CreatedAt,
	}
}

func candidateResponse(c domain.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:        c.ID,
		FullName:  c.FullName,
		Email:     c.Email,
		PushTopic: c.PushTopic,
		CreatedAt: c.CreatedAt,
	}
}

func jobResponse(j domain.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		EmployerID: j.EmployerID,
		Title:      j.Title,
		Location:   j.Location,
		Status:     j.Status,
		CreatedAt:  j.CreatedAt,
	}
}

func interviewResponse(iv domain.Interview, window string) InterviewResponse {
	return InterviewResponse{
		ID:               iv.ID,
		EmployerID:       iv.EmployerID,
		CandidateID:      iv.CandidateID,
		ScheduledAt:      iv.ScheduledAt,
		DurationMinutes:  iv.DurationMinutes,
		Kind:             iv.Kind,
		MeetingRef:       iv.MeetingRef,
		Location:         iv.Location,
		JobID:            iv.JobID,
		JobTitleOverride: iv.JobTitleOverride,
		Notes:            iv.Notes,
		OutcomeNotes:     iv.OutcomeNotes,
		Status:           iv.Status,
		Window:           window,
		CreatedAt:        iv.CreatedAt,
		UpdatedAt:        iv.UpdatedAt,
	}
}

func deliveryResponse(d domain.DeliveryLogEntry) DeliveryResponse {
	return DeliveryResponse{
		ID:            d.ID,
		RecipientType: d.RecipientType,
		RecipientRef:  d.RecipientRef,
		Channel:       d.Channel,
		EventKind:     d.EventKind,
		Subject:       d.Subject,
		Content:       d.Content,
		Status:        d.Status,
		SentAt:        d.SentAt,
		ErrorDetail:   d.ErrorDetail,
		ReferenceID:   d.ReferenceID,
		CreatedAt:     d.CreatedAt,
	}
}

func mapDeliveries(items []domain.DeliveryLogEntry) []DeliveryResponse {
	out := make([]DeliveryResponse, 0, len(items))
	for _, d := range items {
		out = append(out, deliveryResponse(d))
	}
	return out
}
