package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantfall/quantbot/internal/domain"
)

const (
	// DefaultStreamURL is the production market-stream endpoint.
	DefaultStreamURL = "wss://stream.binance.com:9443"

	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// SnapshotHandler is called for every partial-depth snapshot received on the
// stream.
type SnapshotHandler func(domain.OrderbookSnapshot)

// StreamClient subscribes to a partial book depth stream and delivers parsed
// snapshots to a registered handler. It owns the connection lifecycle and
// reconnects with exponential backoff until closed.
type StreamClient struct {
	baseURL string
	symbol  domain.Symbol
	conn    *websocket.Conn

	mu     sync.RWMutex
	closed bool

	handler   SnapshotHandler
	handlerMu sync.RWMutex

	connected atomic.Bool

	// done is closed when the client is shut down.
	done      chan struct{}
	closeOnce sync.Once
}

// NewStreamClient creates a stream client for the given symbol. An empty
// baseURL selects the production endpoint.
func NewStreamClient(baseURL string, symbol domain.Symbol) *StreamClient {
	if baseURL == "" {
		baseURL = DefaultStreamURL
	}
	return &StreamClient{
		baseURL: baseURL,
		symbol:  symbol,
		done:    make(chan struct{}),
	}
}

// OnSnapshot registers the handler invoked for every depth snapshot. Only one
// handler is kept; a later call replaces the earlier one.
func (w *StreamClient) OnSnapshot(handler func(domain.OrderbookSnapshot)) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.handler = handler
}

// Connected reports whether the stream currently has a live connection.
func (w *StreamClient) Connected() bool {
	return w.connected.Load()
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops.
func (w *StreamClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("binance/ws: %w", domain.ErrFeedClosed)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	url := fmt.Sprintf("%s/ws/%s@depth%d@100ms", w.baseURL, w.symbol.StreamName(), domain.DepthLimit)
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("binance/ws: connect %s: %w", w.symbol, err)
	}

	w.conn = conn
	w.connected.Store(true)

	// Keep-alive: extend the read deadline on every pong.
	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.readLoop()
	go w.pingLoop()

	return nil
}

// Close shuts down the connection and stops the background loops. Safe to
// call more than once.
func (w *StreamClient) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		w.closed = true
		w.connected.Store(false)
		close(w.done)

		if w.conn != nil {
			_ = w.conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			err = w.conn.Close()
		}
	})
	return err
}

// readLoop continuously reads depth messages and dispatches parsed snapshots.
// On disconnect it hands off to reconnect, which restarts the loop on success.
func (w *StreamClient) readLoop() {
	for {
		select {
		case <-w.done:
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			w.connected.Store(false)

			select {
			case <-w.done:
				return
			default:
			}

			conn.Close()
			w.reconnect()
			return
		}

		w.handleMessage(message)
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (w *StreamClient) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()

			if conn == nil {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses a raw depth message and delivers the snapshot.
// Unparseable messages are dropped without tearing down the connection.
func (w *StreamClient) handleMessage(raw []byte) {
	sym := w.symbol

	// Raw /ws streams deliver the payload bare; combined /stream endpoints
	// wrap it in an envelope naming the stream. Accept both.
	var envelope streamEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}
	if envelope.Stream != "" {
		if s, ok := domain.SymbolFromStream(envelope.Stream); ok {
			sym = s
		}
		raw = envelope.Data
	}

	var depth depthData
	if err := json.Unmarshal(raw, &depth); err != nil {
		return
	}
	if len(depth.Bids) == 0 && len(depth.Asks) == 0 {
		return
	}

	ts := uint64(nowMillis())
	snap := domain.OrderbookSnapshot{
		Symbol:    sym,
		Bids:      parseLevels(depth.Bids, ts),
		Asks:      parseLevels(depth.Asks, ts),
		Timestamp: ts,
	}

	w.handlerMu.RLock()
	handler := w.handler
	w.handlerMu.RUnlock()

	if handler != nil {
		handler(snap)
	}
}

// reconnect re-establishes the connection with exponential backoff. It blocks
// until successful or the client is closed.
func (w *StreamClient) reconnect() {
	delay := reconnectDelay

	for {
		select {
		case <-w.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
