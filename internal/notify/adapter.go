// Package notify fans interview events out to the delivery channels and
// records every attempt in the delivery ledger.
package notify

import "context"

// Channel identifies one independent delivery transport.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelChat  Channel = "chat"
)

// Outcome statuses mirror the ledger statuses for a single attempt.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// DeliveryOutcome is the normalized result of one channel attempt. Transport
// error types never cross this boundary; failures carry a human-readable
// ErrorDetail instead.
type DeliveryOutcome struct {
	Status      string
	ReferenceID string
	ErrorDetail string
}

// Failed builds a failed outcome with the given detail.
func Failed(detail string) DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeFailed, ErrorDetail: detail}
}

// Sent builds a successful outcome with a channel-specific correlation id.
func Sent(referenceID string) DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeSent, ReferenceID: referenceID}
}

// Adapter wraps exactly one external delivery API. Deliver never returns an
// error: every result, including missing configuration and transport
// failures, is expressed as a DeliveryOutcome.
type Adapter interface {
	Name() Channel
	Deliver(ctx context.Context, dest, subject, body string, meta map[string]string) DeliveryOutcome
}
