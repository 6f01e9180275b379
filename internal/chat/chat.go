// Package chat is the reconnecting ingress adapter that turns an upstream
// chat websocket's messages into arbiter.Submit calls. Reconnect/backoff
// (1s doubling to a 30s cap) and the one-second backfill discard window on
// each fresh connection are carried over from original_source's
// src/chat/client.rs, translated from tokio-tungstenite to gorilla/
// websocket.
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jetsetilly/crowdcade/internal/logger"
)

// backfillDiscardWindow matches BACKFILL_DISCARD_MS: messages that arrive
// in the first second after a (re)connect are assumed to be the server's
// backlog replay and are dropped rather than arbitrated.
const backfillDiscardWindow = time.Second

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// messageView mirrors the subset of the upstream event-stream schema the
// adapter cares about.
type messageView struct {
	Type   string `json:"$type"`
	Author struct {
		Handle string `json:"handle"`
	} `json:"author"`
	Record struct {
		Text string `json:"text"`
	} `json:"record"`
}

const wantMessageType = "place.stream.chat.defs#messageView"

// Submitter is the arbiter-facing surface the adapter drives; satisfied by
// *arbiter.Arbiter.
type Submitter interface {
	Submit(user, text string, nowMs int64)
}

// Adapter owns the reconnect loop for one upstream chat endpoint.
type Adapter struct {
	url   string
	token string
	sub   Submitter
	nowMs func() int64
}

// New returns an Adapter that will dial url (with token as a bearer
// credential, if non-empty) and forward accepted messages to sub. nowMs
// supplies the same monotonic millisecond clock the rest of the core uses.
func New(url, token string, sub Submitter, nowMs func() int64) *Adapter {
	return &Adapter{url: url, token: token, sub: sub, nowMs: nowMs}
}

// Run drives the reconnect loop until ctx is cancelled. It never returns a
// non-nil error for ordinary connection failures — those are logged and
// retried with backoff — only when ctx is done.
func (a *Adapter) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		err := a.connectAndRun(ctx)
		if err == nil {
			logger.Logf(logger.Allow, "chat", "connection to %s closed cleanly, reconnecting", a.url)
			backoff = initialBackoff
		} else {
			logger.Warnf(logger.Allow, "chat", "connection error: %v, reconnecting in %s", err, backoff)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (a *Adapter) connectAndRun(ctx context.Context) error {
	header := http.Header{}
	if a.token != "" {
		header.Set("Authorization", "Bearer "+a.token)
	}

	logger.Logf(logger.Allow, "chat", "connecting to %s", a.url)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Logf(logger.Allow, "chat", "connected")

	connectedAt := time.Now()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		if time.Since(connectedAt) < backfillDiscardWindow {
			continue
		}

		var view messageView
		if err := json.Unmarshal(data, &view); err != nil {
			continue
		}
		if view.Type != wantMessageType {
			continue
		}

		a.sub.Submit(view.Author.Handle, view.Record.Text, a.nowMs())
	}
}
