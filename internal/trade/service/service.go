package service

import (
	"context"
	"log/slog"
	"time"

	"tvhook/internal/relay"
	"tvhook/internal/trade"
)

type EventStore interface {
	Connected() bool
	Insert(ctx context.Context, ev *trade.Event) error
}

type Forwarder interface {
	Enabled() bool
	Forward(ctx context.Context, payload []byte) relay.Result
}

// Service stores incoming alerts and then relays them downstream.
type Service struct {
	store  EventStore
	relay  Forwarder
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store EventStore, fwd Forwarder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		relay:  fwd,
		logger: logger.With("module", "ingest"),
		now:    time.Now,
	}
}

// Ingest persists exactly one event and forwards the body if a relay is
// configured. Without storage every body is rejected as unavailable, before
// parsing. Relay failures never turn into an error here.
func (s *Service) Ingest(ctx context.Context, body []byte) (*trade.Event, error) {
	if !s.store.Connected() {
		return nil, trade.ErrStorageUnavailable
	}

	p, err := trade.ParsePayload(body)
	if err != nil {
		return nil, err
	}

	ev := p.Event(s.now())

	// an issued write or forward finishes even if the caller hangs up
	ctx = context.WithoutCancel(ctx)

	if err := s.store.Insert(ctx, ev); err != nil {
		s.logger.Error("failed to store event", "err", err)
		return nil, err
	}

	if s.relay != nil && s.relay.Enabled() {
		res := s.relay.Forward(ctx, p.Body)
		if !res.OK() {
			s.logger.Warn("relay forward failed",
				"event_id", ev.ID,
				"status", res.StatusCode,
				"duration", res.Duration,
				"err", res.Err,
			)
		}
	}

	return ev, nil
}
