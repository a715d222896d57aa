// Package feed maintains the websocket connection to the all-market
// mini-ticker stream and hands each message off as one ingestion batch.
package feed

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/gorilla/websocket"

	"tickersentry/internal/config"
	"tickersentry/internal/logger"
	"tickersentry/internal/metrics"
	"tickersentry/internal/normalize"
)

// Handler consumes one raw batch. A batch is exactly one websocket message:
// the stream delivers an array of per-symbol tickers per push.
type Handler func(batch []normalize.RawTicker, receivedAt time.Time)

// Feed is the market-data websocket collaborator. It owns connection
// lifecycle only; all interpretation of messages happens downstream.
type Feed struct {
	url              string
	handshakeTimeout time.Duration
	readTimeout      time.Duration
	pingInterval     time.Duration
	maxBackoff       time.Duration
	handle           Handler
}

// New constructs a feed delivering batches to handle.
func New(cfg config.FeedConfig, handle Handler) *Feed {
	return &Feed{
		url:              cfg.StreamURL,
		handshakeTimeout: cfg.HandshakeTimeout,
		readTimeout:      cfg.ReadTimeout,
		pingInterval:     cfg.PingInterval,
		maxBackoff:       cfg.MaxBackoff,
		handle:           handle,
	}
}

// Run consumes the stream until ctx is cancelled, reconnecting with
// multiplicative backoff after any disconnect.
func (f *Feed) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := f.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Feed disconnected, retrying in %v: %v", backoff, err)
		metrics.FeedReconnects.Inc()
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(f.maxBackoff), float64(backoff)*1.8))
	}
}

func (f *Feed) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("Connected to market data feed at %s", f.url)

	conn.SetReadLimit(1 << 22) // the all-market array runs to a few MB
	_ = conn.SetReadDeadline(time.Now().Add(f.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(f.readTimeout))
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(f.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					logger.Warn("Feed ping failed: %v", err)
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		batch, ok := decodeBatch(message)
		if !ok {
			logger.Warn("Failed to decode feed message (%d bytes), skipping", len(message))
			metrics.TicksDropped.Inc()
			continue
		}
		f.handle(batch, time.Now())
	}
}

// decodeBatch accepts both the array form of the combined stream and a single
// ticker object, which some gateways deliver for sparse pushes.
func decodeBatch(message []byte) ([]normalize.RawTicker, bool) {
	var batch []normalize.RawTicker
	if err := json.Unmarshal(message, &batch); err == nil {
		return batch, true
	}
	var single normalize.RawTicker
	if err := json.Unmarshal(message, &single); err == nil && single.EventType != "" {
		return []normalize.RawTicker{single}, true
	}
	return nil, false
}
