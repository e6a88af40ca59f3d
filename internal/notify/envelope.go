package notify

import (
	"fmt"
	"time"
)

// Event kinds routed through the dispatcher.
const (
	EventInterviewScheduled   = "interview.scheduled"
	EventInterviewCancelled   = "interview.cancelled"
	EventInterviewRescheduled = "interview.rescheduled"
	EventInterviewReminder    = "interview.reminder"
	EventApplicationReceived  = "application.received"
)

// Recipient names the party an envelope is addressed to.
type Recipient struct {
	Type string // candidate, employer, admin
	Ref  string
}

// Addresses holds the per-channel destinations for one recipient. Empty
// fields mean the recipient is unreachable on that channel.
type Addresses struct {
	Email         string
	PushTopic     string
	ChatChannelID string
}

// Envelope is the transient bundle handed to the Dispatcher: one recipient,
// one event, one payload. It is constructed per transition and discarded
// after dispatch.
type Envelope struct {
	EventKind string
	Recipient Recipient
	Addresses Addresses
	Payload   Payload
}

// Payload renders an event for the delivery channels. The set of payload
// types is closed: one per event kind, so renderers are checked at compile
// time rather than dispatching on loose maps.
type Payload interface {
	Subject() string
	Body(ch Channel) string
}

type InterviewScheduledPayload struct {
	CompanyName     string
	CandidateName   string
	JobTitle        string
	ScheduledAt     time.Time
	DurationMinutes int
	Kind            string
	Location        string
	JoinURL         string
}

func (p InterviewScheduledPayload) Subject() string {
	return fmt.Sprintf("Interview scheduled: %s at %s", p.JobTitle, p.CompanyName)
}

func (p InterviewScheduledPayload) Body(ch Channel) string {
	when := p.ScheduledAt.Format(time.RFC1123)
	place := p.Location
	if p.JoinURL != "" {
		place = p.JoinURL
	}
	if ch == ChannelChat {
		return fmt.Sprintf("%s interview: %s with %s, %s (%d min) - %s",
			p.JobTitle, p.CandidateName, p.CompanyName, when, p.DurationMinutes, place)
	}
	return fmt.Sprintf("An interview for %s between %s and %s has been scheduled for %s (%d minutes).\n%s: %s",
		p.JobTitle, p.CandidateName, p.CompanyName, when, p.DurationMinutes, placeLabel(p.Kind), place)
}

type InterviewCancelledPayload struct {
	CompanyName   string
	CandidateName string
	JobTitle      string
	ScheduledAt   time.Time
}

func (p InterviewCancelledPayload) Subject() string {
	return fmt.Sprintf("Interview cancelled: %s at %s", p.JobTitle, p.CompanyName)
}

func (p InterviewCancelledPayload) Body(ch Channel) string {
	when := p.ScheduledAt.Format(time.RFC1123)
	if ch == ChannelChat {
		return fmt.Sprintf("Cancelled: %s interview with %s, was %s", p.JobTitle, p.CandidateName, when)
	}
	return fmt.Sprintf("The %s interview between %s and %s, scheduled for %s, has been cancelled.",
		p.JobTitle, p.CandidateName, p.CompanyName, when)
}

type InterviewRescheduledPayload struct {
	CompanyName   string
	CandidateName string
	JobTitle      string
	NewTime       time.Time
}

func (p InterviewRescheduledPayload) Subject() string {
	return fmt.Sprintf("Interview rescheduled: %s at %s", p.JobTitle, p.CompanyName)
}

func (p InterviewRescheduledPayload) Body(ch Channel) string {
	when := p.NewTime.Format(time.RFC1123)
	if ch == ChannelChat {
		return fmt.Sprintf("Rescheduled: %s interview with %s, now %s", p.JobTitle, p.CandidateName, when)
	}
	return fmt.Sprintf("The %s interview between %s and %s has been moved to %s.",
		p.JobTitle, p.CandidateName, p.CompanyName, when)
}

type InterviewReminderPayload struct {
	CompanyName   string
	CandidateName string
	JobTitle      string
	ScheduledAt   time.Time
	Kind          string
	Location      string
	JoinURL       string
}

func (p InterviewReminderPayload) Subject() string {
	return fmt.Sprintf("Reminder: %s interview at %s", p.JobTitle, p.CompanyName)
}

func (p InterviewReminderPayload) Body(ch Channel) string {
	when := p.ScheduledAt.Format(time.RFC1123)
	place := p.Location
	if p.JoinURL != "" {
		place = p.JoinURL
	}
	if ch == ChannelChat {
		return fmt.Sprintf("Reminder: %s interview with %s at %s - %s", p.JobTitle, p.CandidateName, when, place)
	}
	return fmt.Sprintf("Reminder: the %s interview between %s and %s is scheduled for %s.\n%s: %s",
		p.JobTitle, p.CandidateName, p.CompanyName, when, placeLabel(p.Kind), place)
}

type ApplicationReceivedPayload struct {
	CandidateName string
	JobTitle      string
}

func (p ApplicationReceivedPayload) Subject() string {
	return fmt.Sprintf("New application for %s", p.JobTitle)
}

func (p ApplicationReceivedPayload) Body(ch Channel) string {
	return fmt.Sprintf("%s applied for %s.", p.CandidateName, p.JobTitle)
}

func placeLabel(kind string) string {
	if kind == "physical" {
		return "Location"
	}
	return "Meeting link"
}
