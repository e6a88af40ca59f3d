package domain

// Interview statuses.
const (
	StatusPending     = "pending"
	StatusConfirmed   = "confirmed"
	StatusInProgress  = "in_progress"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
	StatusNoShow      = "no_show"
	StatusRescheduled = "rescheduled"
)

// Interview kinds.
const (
	KindVirtual  = "virtual"
	KindPhysical = "physical"
)

// Delivery log statuses.
const (
	DeliveryPending   = "pending"
	DeliverySent      = "sent"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// Recipient types.
const (
	RecipientCandidate = "candidate"
	RecipientEmployer  = "employer"
	RecipientAdmin     = "admin"
)

// TerminalStatus reports whether an interview status admits no further transitions.
func TerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Employer struct {
	ID            string `json:"id"`
	CompanyName   string `json:"company_name"`
	ContactName   string `json:"contact_name,omitempty"`
	Email         string `json:"email,omitempty"`
	PushTopic     string `json:"push_topic,omitempty"`
	ChatChannelID string `json:"chat_channel_id,omitempty"`
	CreatedAt     string `json:"created_at" format:"date-time"`
}

type Candidate struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	PushTopic string `json:"push_topic,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Job struct {
	ID         string `json:"id"`
	EmployerID string `json:"employer_id"`
	Title      string `json:"title"`
	Location   string `json:"location,omitempty"`
	Status     string `json:"status" enum:"open,closed"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type Interview struct {
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
	CreatedAt        string  `json:"created_at" format:"date-time"`
	UpdatedAt        string  `json:"updated_at" format:"date-time"`
}

// DeliveryLogEntry is one row of the append-only delivery ledger: exactly one
// entry per channel attempt. Retries append new rows; the only permitted
// update is the recipient-driven sent -> delivered transition.
type DeliveryLogEntry struct {
	ID            string  `json:"id"`
	RecipientType string  `json:"recipient_type" enum:"candidate,employer,admin"`
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

// Event is one interview journal row. The journal feeds outbound webhooks;
// it is never exposed through the API directly.
type Event struct {
	ID          int64  `json:"id"`
	TS          string `json:"ts" format:"date-time"`
	Type        string `json:"type"`
	InterviewID string `json:"interview_id,omitempty"`
	ActorID     string `json:"actor_id,omitempty"`
	Payload     string `json:"payload"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	ActorType string `json:"actor_type" enum:"candidate,employer,admin"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
