// Package marketdata owns live market ingestion: a streaming feed per symbol
// with REST polling and synthetic generation as fallbacks, delivering
// normalized snapshots to a registered callback.
package marketdata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quantfall/quantbot/internal/domain"
)

const (
	// degradedInterval is the polling cadence while no live feed delivers.
	degradedInterval = 1 * time.Second

	// streamingInterval is the health-check cadence while the feed is live.
	streamingInterval = 5 * time.Second

	// connectTimeout bounds each stream connection attempt.
	connectTimeout = 15 * time.Second
)

// SourceState is the lifecycle state of a Source.
type SourceState int

const (
	SourceIdle SourceState = iota
	SourceConnecting
	SourceStreaming
	SourceDegraded
	SourceStopped
)

// String returns the lowercase name of the state.
func (s SourceState) String() string {
	switch s {
	case SourceConnecting:
		return "connecting"
	case SourceStreaming:
		return "streaming"
	case SourceDegraded:
		return "degraded"
	case SourceStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// SnapshotCallback receives every snapshot the source produces, regardless of
// origin (stream, poll, or synthetic). It runs on the ingestion goroutine.
type SnapshotCallback func(domain.OrderbookSnapshot)

// Streamer is the live-feed dependency. Satisfied by binance.StreamClient.
type Streamer interface {
	Connect(ctx context.Context) error
	OnSnapshot(func(domain.OrderbookSnapshot))
	Connected() bool
	Close() error
}

// DepthFetcher is the REST fallback dependency. Satisfied by binance.Client.
type DepthFetcher interface {
	Depth(ctx context.Context, sym domain.Symbol) (domain.OrderbookSnapshot, error)
}

// Source ingests market data for one symbol. It prefers the live stream,
// degrades to REST polling when the stream is down, and fabricates synthetic
// snapshots when REST fails too, so the callback keeps firing on a regular
// cadence even fully offline.
//
// Transport failures never surface to the caller of Start; they only degrade
// the feed mode.
type Source struct {
	newStream func(sym domain.Symbol) Streamer
	rest      DepthFetcher
	logger    *slog.Logger

	mu       sync.Mutex
	state    SourceState
	symbol   domain.Symbol
	callback SnapshotCallback
	stream   Streamer
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSource creates a Source. newStream builds a fresh stream client per
// Start; rest is used for polling and synchronous fetches.
func NewSource(newStream func(sym domain.Symbol) Streamer, rest DepthFetcher, logger *slog.Logger) *Source {
	return &Source{
		newStream: newStream,
		rest:      rest,
		logger:    logger.With(slog.String("component", "marketdata_source")),
	}
}

// State returns the current lifecycle state.
func (s *Source) State() SourceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetCallback replaces the snapshot delivery target. Safe to call while
// running; the next snapshot uses the new target.
func (s *Source) SetCallback(fn SnapshotCallback) {
	s.mu.Lock()
	s.callback = fn
	s.mu.Unlock()
}

// Start begins ingestion for the symbol. Calling Start while already running
// is a no-op. The returned error covers only unrecoverable setup problems;
// a failed stream connection degrades to polling instead of failing.
func (s *Source) Start(sym domain.Symbol) error {
	s.mu.Lock()
	if s.state == SourceConnecting || s.state == SourceStreaming || s.state == SourceDegraded {
		s.mu.Unlock()
		return nil
	}

	s.state = SourceConnecting
	s.symbol = sym

	stream := s.newStream(sym)
	stream.OnSnapshot(s.deliver)
	s.stream = stream

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	connCtx, connCancel := context.WithTimeout(ctx, connectTimeout)
	err := stream.Connect(connCtx)
	connCancel()

	subscribed := err == nil
	s.mu.Lock()
	if s.state == SourceStopped {
		s.mu.Unlock()
		return nil
	}
	if subscribed {
		s.state = SourceStreaming
		s.logger.Info("streaming live feed", slog.String("symbol", sym.String()))
	} else {
		s.state = SourceDegraded
		s.logger.Warn("stream connect failed, degrading to polling",
			slog.String("symbol", sym.String()),
			slog.String("error", err.Error()),
		)
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, sym, stream, subscribed)
	return nil
}

// Stop cancels ingestion, closes the stream, and waits for the background
// goroutine to exit. Idempotent and callable from any goroutine.
func (s *Source) Stop() {
	s.mu.Lock()
	if s.state == SourceStopped || s.state == SourceIdle {
		s.state = SourceStopped
		s.mu.Unlock()
		return
	}
	s.state = SourceStopped
	cancel := s.cancel
	stream := s.stream
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stream != nil {
		_ = stream.Close()
	}
	s.wg.Wait()
	s.logger.Info("source stopped", slog.String("symbol", s.symbol.String()))
}

// Orderbook fetches a snapshot synchronously, independent of the background
// loop: REST first, synthetic when REST is unavailable.
func (s *Source) Orderbook(ctx context.Context, sym domain.Symbol) domain.OrderbookSnapshot {
	snap, err := s.rest.Depth(ctx, sym)
	if err != nil {
		s.logger.Warn("rest fetch failed, serving synthetic data",
			slog.String("symbol", sym.String()),
			slog.String("error", err.Error()),
		)
		return syntheticSnapshot(sym)
	}
	return snap
}

// run is the single ingestion loop. While the stream is live it only checks
// health on a slow tick; once the stream goes down it polls REST (or
// fabricates synthetic books) on the fast tick until the stream recovers.
// The stream handles its own reconnects after the first successful connect;
// until then this loop retries the subscription on a throttle.
func (s *Source) run(ctx context.Context, sym domain.Symbol, stream Streamer, subscribed bool) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval(stream))
	defer ticker.Stop()

	retryCountdown := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if stream.Connected() {
			subscribed = true
			s.setState(SourceStreaming)
			ticker.Reset(streamingInterval)
			continue
		}

		s.setState(SourceDegraded)
		ticker.Reset(degradedInterval)

		if !subscribed {
			if retryCountdown <= 0 {
				retryCountdown = 5
				connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
				if err := stream.Connect(connCtx); err == nil {
					subscribed = true
				}
				cancel()
			}
			retryCountdown--
		}

		s.pollOnce(ctx, sym)
	}
}

// pollOnce produces one fallback snapshot via REST, or synthetically when
// REST fails, and delivers it.
func (s *Source) pollOnce(ctx context.Context, sym domain.Symbol) {
	fetchCtx, cancel := context.WithTimeout(ctx, degradedInterval)
	snap, err := s.rest.Depth(fetchCtx, sym)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug("poll failed, generating synthetic snapshot",
			slog.String("symbol", sym.String()),
			slog.String("error", err.Error()),
		)
		snap = syntheticSnapshot(sym)
	}
	s.deliver(snap)
}

func (s *Source) interval(stream Streamer) time.Duration {
	if stream.Connected() {
		return streamingInterval
	}
	return degradedInterval
}

// deliver hands a snapshot to the registered callback. Snapshots arriving
// after Stop are dropped.
func (s *Source) deliver(snap domain.OrderbookSnapshot) {
	s.mu.Lock()
	if s.state == SourceStopped {
		s.mu.Unlock()
		return
	}
	cb := s.callback
	s.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

func (s *Source) setState(state SourceState) {
	s.mu.Lock()
	if s.state != SourceStopped && s.state != state {
		s.logger.Info("feed mode changed",
			slog.String("symbol", s.symbol.String()),
			slog.String("state", state.String()),
		)
		s.state = state
	}
	s.mu.Unlock()
}
