// Package feed maintains the websocket subscription to the node's
// transaction event stream (CometBFT JSON-RPC framing).
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

// Config describes how to reach the feed and where in its envelopes the
// transaction fields live. The envelope paths are configuration because they
// are node-specific framing, not a stable schema.
type Config struct {
	URL            string
	SubscribeQuery string   // e.g. tm.event='Tx'
	HashEvent      string   // envelope event key carrying the tx hash, e.g. tx.hash
	TxPath         []string // object path under result.data to the base64 tx bytes
	DialTimeout    time.Duration
}

// Conn is a single subscribed feed connection.
type Conn struct {
	ws  *websocket.Conn
	cfg Config
}

// Dial connects to the feed and issues the subscribe request.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	ws, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	sub := map[string]any{
		"jsonrpc": "2.0",
		"method":  "subscribe",
		"id":      1,
		"params":  map[string]string{"query": cfg.SubscribeQuery},
	}
	if err := ws.WriteJSON(sub); err != nil {
		ws.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	return &Conn{ws: ws, cfg: cfg}, nil
}

// Next blocks until the next feed message and extracts its envelope. Any
// read error means the connection is gone and the caller should redial.
func (c *Conn) Next() (Envelope, error) {
	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		return Envelope{}, err
	}
	return ExtractEnvelope(raw, c.cfg), nil
}

// Close tears down the transport. Safe to call concurrently with Next; the
// pending read fails and unblocks.
func (c *Conn) Close() error {
	return c.ws.Close()
}
