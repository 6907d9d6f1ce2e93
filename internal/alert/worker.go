package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"github.com/pendo-io/kegtronbot/config"
	"github.com/pendo-io/kegtronbot/internal/kegtron"
)

// Event is one empty-keg observation to fan out to subscribers.
type Event struct {
	Device string
	Keg    kegtron.Keg
}

// Subscriber is one web push subscription.
type Subscriber struct {
	Endpoint string
	P256DH   string
	Auth     string
}

// Sender delivers one alert payload to one subscriber. The returned status
// code drives subscription pruning.
type Sender interface {
	Send(payload []byte, sub Subscriber) (int, error)
}

// WebPushSender delivers alerts over the web push protocol.
type WebPushSender struct {
	options *webpush.Options
}

// NewWebPushSender builds a sender from the VAPID key pair in config.
func NewWebPushSender(cfg config.AlertConfig) *WebPushSender {
	return &WebPushSender{
		options: &webpush.Options{
			Subscriber:      cfg.Subject,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             cfg.TTL,
		},
	}
}

// Send pushes the payload to a single subscription endpoint.
func (s *WebPushSender) Send(payload []byte, sub Subscriber) (int, error) {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, s.options)
	if err != nil {
		return 0, fmt.Errorf("web push send failed: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// WorkerPool fans empty-keg events out to web push subscribers on a fixed
// number of workers. Dispatch never blocks the caller; when the queue is full
// the event is dropped and logged.
type WorkerPool struct {
	size   int
	jobs   chan Event
	sender Sender
	logger zerolog.Logger

	mu   sync.Mutex
	subs []Subscriber
}

// NewWorkerPool creates a pool with the given worker count and initial
// subscriber list.
func NewWorkerPool(size int, sender Sender, subs []Subscriber, logger zerolog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:   size,
		jobs:   make(chan Event, size*4),
		sender: sender,
		subs:   subs,
		logger: logger.With().Str("component", "alert").Logger(),
	}
}

// Start launches the workers. They exit when the context is canceled.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.worker(ctx, i)
	}
}

// Jobs exposes the job channel for tests.
func (p *WorkerPool) Jobs() chan Event {
	return p.jobs
}

// Dispatch queues an event for delivery.
func (p *WorkerPool) Dispatch(ev Event) {
	select {
	case p.jobs <- ev:
	default:
		p.logger.Warn().Str("device", ev.Device).Int("port", ev.Keg.Port).Msg("alert queue full, dropping event")
	}
}

// OnEmpty adapts the pool to the device layer's empty-keg callback.
func (p *WorkerPool) OnEmpty(keg kegtron.Keg) {
	p.Dispatch(Event{Device: keg.DeviceName, Keg: keg})
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	logger := p.logger.With().Int("worker", id).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.jobs:
			p.deliver(ev, logger)
		}
	}
}

type alertPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// deliver sends the event to every current subscriber. Endpoints reporting
// 404 or 410 are gone and get pruned from the subscriber list.
func (p *WorkerPool) deliver(ev Event, logger zerolog.Logger) {
	payload, err := json.Marshal(alertPayload{
		Title: "Keg Empty",
		Body:  fmt.Sprintf("%s on %s just kicked", ev.Keg.Name, ev.Device),
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal alert payload")
		return
	}

	p.mu.Lock()
	subs := make([]Subscriber, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, sub := range subs {
		status, err := p.sender.Send(payload, sub)
		if err != nil {
			logger.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("alert delivery failed")
			continue
		}
		if status == http.StatusNotFound || status == http.StatusGone {
			logger.Info().Str("endpoint", sub.Endpoint).Msg("subscription gone, removing")
			p.remove(sub.Endpoint)
		}
	}
}

func (p *WorkerPool) remove(endpoint string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.subs[:0]
	for _, sub := range p.subs {
		if sub.Endpoint != endpoint {
			kept = append(kept, sub)
		}
	}
	p.subs = kept
}

// Subscribers returns a snapshot of the current subscriber list.
func (p *WorkerPool) Subscribers() []Subscriber {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Subscriber, len(p.subs))
	copy(out, p.subs)
	return out
}

// SubscribersFromConfig converts configured subscriptions.
func SubscribersFromConfig(cfgs []config.SubscriberConfig) []Subscriber {
	subs := make([]Subscriber, 0, len(cfgs))
	for _, c := range cfgs {
		if c.Endpoint == "" {
			continue
		}
		subs = append(subs, Subscriber{Endpoint: c.Endpoint, P256DH: c.P256DH, Auth: c.Auth})
	}
	return subs
}
