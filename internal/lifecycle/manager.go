package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"tvhook/internal/metrics"
	"tvhook/internal/trade"
)

type State int32

const (
	StateUninitialized State = iota
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNINITIALIZED"
	}
}

// Store is the event store owned by the manager once connected.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, ev *trade.Event) error
	Close() error
}

// OpenFunc opens a store connection. A nil OpenFunc means no storage is configured.
type OpenFunc func(ctx context.Context) (Store, error)

type Options struct {
	ConnectTimeout time.Duration
	// ReconnectInterval is the first delay between background reconnect
	// attempts; zero disables reconnecting after a failed start.
	ReconnectInterval time.Duration
	MaxReconnectDelay time.Duration
}

// Manager owns the store connection. Start never fails: without a store the
// service keeps running in degraded mode.
type Manager struct {
	open   OpenFunc
	opts   Options
	logger *slog.Logger

	mu    sync.RWMutex
	state State
	store Store

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(open OpenFunc, opts Options, logger *slog.Logger) *Manager {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.MaxReconnectDelay <= 0 {
		opts.MaxReconnectDelay = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		open:   open,
		opts:   opts,
		logger: logger.With("module", "lifecycle"),
	}
}

// Start runs the first connection attempt synchronously and, if it fails and
// reconnecting is enabled, keeps retrying in the background until Close.
func (m *Manager) Start(ctx context.Context) State {
	if m.open == nil {
		m.logger.Warn("DATABASE_URL is not set, running without storage")
		m.setState(StateDisconnected)
		return StateDisconnected
	}

	if err := m.connect(ctx); err != nil {
		m.logger.Error("storage connection failed, running in degraded mode", "err", err)
		m.setState(StateDisconnected)

		if m.opts.ReconnectInterval > 0 {
			loopCtx, cancel := context.WithCancel(context.Background())
			m.cancel = cancel
			m.wg.Add(1)
			go m.reconnectLoop(loopCtx)
		}
		return StateDisconnected
	}

	return StateConnected
}

func (m *Manager) connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	defer cancel()

	store, err := m.open(ctx)
	if err != nil {
		metrics.StorageConnectAttemptsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("open store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		metrics.StorageConnectAttemptsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("ensure schema: %w", err)
	}
	metrics.StorageConnectAttemptsTotal.WithLabelValues("ok").Inc()

	m.mu.Lock()
	m.store = store
	m.state = StateConnected
	m.mu.Unlock()
	metrics.StorageConnected.Set(1)

	m.logger.Info("storage connected")
	return nil
}

func (m *Manager) reconnectLoop(ctx context.Context) {
	defer m.wg.Done()

	b := &backoff.Backoff{
		Min:    m.opts.ReconnectInterval,
		Max:    m.opts.MaxReconnectDelay,
		Factor: 2,
		Jitter: true,
	}

	for {
		delay := b.Duration()
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		err := m.connect(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("storage reconnect failed", "attempt", int(b.Attempt()), "err", err)
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	if s == StateConnected {
		metrics.StorageConnected.Set(1)
	} else {
		metrics.StorageConnected.Set(0)
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Connected() bool {
	return m.State() == StateConnected
}

// Insert writes ev through the live store, or fails with ErrStorageUnavailable.
func (m *Manager) Insert(ctx context.Context, ev *trade.Event) error {
	m.mu.RLock()
	store := m.store
	m.mu.RUnlock()

	if store == nil {
		return trade.ErrStorageUnavailable
	}

	start := time.Now()
	err := store.Insert(ctx, ev)
	metrics.StorageInsertDuration.Observe(time.Since(start).Seconds())
	return err
}

// Close stops reconnecting and releases the pool.
func (m *Manager) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	store := m.store
	m.store = nil
	m.state = StateDisconnected
	m.mu.Unlock()
	metrics.StorageConnected.Set(0)

	if store != nil {
		return store.Close()
	}
	return nil
}
