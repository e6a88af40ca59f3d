package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hireline/internal/config"
	"hireline/internal/domain"
	"hireline/internal/repo"
)

const defaultChannelTimeout = 10 * time.Second

// Dispatcher fans one envelope out to the channels routed for its event
// kind. Channels run concurrently and independently: one channel failing,
// hanging, or being unconfigured never affects another channel's attempt or
// the caller. Every attempt appends exactly one delivery-log row.
type Dispatcher struct {
	adapters map[Channel]Adapter
	repo     repo.Repo
	routes   map[string][]Channel
	timeout  time.Duration
	Now      func() time.Time

	wg sync.WaitGroup
}

// NewDispatcher builds a Dispatcher from config, constructing one adapter per
// channel. Unconfigured channels still get adapters; they report failed
// outcomes instead of attempting delivery.
func NewDispatcher(r repo.Repo, cfg *config.Config) *Dispatcher {
	timeout := defaultChannelTimeout
	if cfg.Notifications.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Notifications.TimeoutSeconds) * time.Second
	}
	routes := make(map[string][]Channel, len(cfg.Notifications.Routes))
	for event, names := range cfg.Notifications.Routes {
		for _, name := range names {
			routes[event] = append(routes[event], Channel(name))
		}
	}
	return &Dispatcher{
		adapters: map[Channel]Adapter{
			ChannelEmail: NewEmailAdapter(cfg.Channels.Email),
			ChannelPush:  NewPushAdapter(cfg.Channels.Push),
			ChannelChat:  NewChatAdapter(cfg.Channels.Chat),
		},
		repo:    r,
		routes:  routes,
		timeout: timeout,
		Now:     time.Now,
	}
}

// WithAdapters replaces the channel adapters; tests use this to inject fakes.
func (d *Dispatcher) WithAdapters(adapters ...Adapter) *Dispatcher {
	d.adapters = make(map[Channel]Adapter, len(adapters))
	for _, a := range adapters {
		d.adapters[a.Name()] = a
	}
	return d
}

// Channels returns the routing-table channels for an event kind.
func (d *Dispatcher) Channels(eventKind string) []Channel {
	return d.routes[eventKind]
}

// Dispatch attempts delivery on every routed channel and returns one outcome
// per channel. It never returns an error: failures are outcomes plus failed
// ledger rows. Ledger write failures go to process diagnostics only.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) map[Channel]DeliveryOutcome {
	channels := d.routes[env.EventKind]
	if len(channels) == 0 {
		return map[Channel]DeliveryOutcome{}
	}
	subject := env.Payload.Subject()
	meta := map[string]string{"event_kind": env.EventKind}

	results := make([]DeliveryOutcome, len(channels))
	g := &errgroup.Group{}
	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			adapter, ok := d.adapters[ch]
			if !ok {
				results[i] = Failed("no adapter for channel " + string(ch))
			} else {
				cctx, cancel := context.WithTimeout(ctx, d.timeout)
				results[i] = adapter.Deliver(cctx, destinationFor(ch, env.Addresses), subject, env.Payload.Body(ch), meta)
				cancel()
			}
			d.record(ctx, env, ch, subject, results[i])
			return nil
		})
	}
	_ = g.Wait()

	outcomes := make(map[Channel]DeliveryOutcome, len(channels))
	for i, ch := range channels {
		outcomes[ch] = results[i]
	}
	return outcomes
}

// Go runs Dispatch on a tracked background goroutine. Callers return before
// channel outcomes are known; Close joins all in-flight dispatches so ledger
// writes complete before shutdown.
func (d *Dispatcher) Go(env Envelope) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Dispatch(context.Background(), env)
	}()
}

// Close waits for background dispatches to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

// record appends the ledger row for one attempt. The dispatch context may
// already be cancelled; the ledger write must still land, so it uses its own.
func (d *Dispatcher) record(_ context.Context, env Envelope, ch Channel, subject string, outcome DeliveryOutcome) {
	now := d.Now().UTC().Format(time.RFC3339)
	entry := domain.DeliveryLogEntry{
		ID:            uuid.New().String(),
		RecipientType: env.Recipient.Type,
		RecipientRef:  env.Recipient.Ref,
		Channel:       string(ch),
		EventKind:     env.EventKind,
		Subject:       subject,
		Content:       env.Payload.Body(ch),
		Status:        outcome.Status,
		CreatedAt:     now,
	}
	if outcome.Status == OutcomeSent {
		entry.SentAt = &now
	}
	if outcome.ErrorDetail != "" {
		detail := outcome.ErrorDetail
		entry.ErrorDetail = &detail
	}
	if outcome.ReferenceID != "" {
		ref := outcome.ReferenceID
		entry.ReferenceID = &ref
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.repo.AppendDeliveryLog(writeCtx, entry); err != nil {
		log.Printf("notify: append delivery log (%s/%s) failed: %v", env.EventKind, ch, err)
	}
}

func destinationFor(ch Channel, addrs Addresses) string {
	switch ch {
	case ChannelEmail:
		return addrs.Email
	case ChannelPush:
		return addrs.PushTopic
	case ChannelChat:
		return addrs.ChatChannelID
	}
	return ""
}
