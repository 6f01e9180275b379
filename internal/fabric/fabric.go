// Package fabric is the lossy broadcast fanout: one producer (the
// supervisor) feeds frame/audio/state/party/location events to many
// overlay consumers over gorilla/websocket connections, each with its own
// small bounded outbound queue so a slow consumer is dropped rather than
// stalling the producer. It also accepts a capability-gated back-channel
// of held-key messages from privileged clients, folded into the
// supervisor's held-key mask. Grounded on the subscriber-map broadcast
// pattern in mine-and-die/server/hub.go, generalized from one JSON state
// message to the five typed frames in the wire format.
package fabric

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jetsetilly/crowdcade/internal/button"
	"github.com/jetsetilly/crowdcade/internal/emulator"
	"github.com/jetsetilly/crowdcade/internal/logger"
	"github.com/jetsetilly/crowdcade/internal/notifications"
)

// Wire type prefixes, one byte, prepended to every fanout/back-channel
// message.
const (
	TypeFrame    byte = 0x01
	TypeAudio    byte = 0x02
	TypeState    byte = 0x03
	TypeParty    byte = 0x04
	TypeLocation byte = 0x05
	TypeKeyDown  byte = 0x06
	TypeKeyUp    byte = 0x07
)

// outboundCapacity bounds each consumer's per-connection queue. A consumer
// that falls more than this far behind is dropped rather than stalling
// fanout for everyone else.
const outboundCapacity = 2

// KeyApplier is the supervisor-facing surface the fabric drives for the
// back-channel: held-key updates and per-client release on disconnect.
type KeyApplier interface {
	SetHeldKey(clientID string, b button.Button, down bool)
	ReleaseClient(clientID string)
}

// consumer is one connected overlay session. done is closed exactly once,
// by evict, and signals writeLoop to stop — outbound itself is never
// closed, so a send racing an eviction can never panic on a closed channel.
type consumer struct {
	id         string
	conn       *websocket.Conn
	outbound   chan []byte
	done       chan struct{}
	capability bool
}

// Hub is the single producer's fanout point. The supervisor calls the
// Publish* methods once per event; Hub owns turning each into a framed
// message and writing it to every live consumer's outbound queue.
type Hub struct {
	mu        sync.Mutex
	consumers map[string]*consumer

	keys                KeyApplier
	allowAnonymousInput bool
	notify              notifications.Notify
}

// New returns an empty Hub. allowAnonymousInput mirrors the
// allow_anonymous_keyboard config option: when true, back-channel keypress
// messages are applied even from consumers with no capability token.
func New(keys KeyApplier, allowAnonymousInput bool) *Hub {
	return &Hub{
		consumers:           make(map[string]*consumer),
		keys:                keys,
		allowAnonymousInput: allowAnonymousInput,
	}
}

// SetNotifier wires a subscriber for join/part notices. Optional; a Hub
// with no notifier set simply skips the call.
func (h *Hub) SetNotifier(n notifications.Notify) {
	h.notify = n
}

// Join registers a new consumer connection and starts its writer and
// reader goroutines. capability marks whether the connection presented a
// valid capability token (entitling it to send back-channel keypresses).
func (h *Hub) Join(conn *websocket.Conn, capability bool) {
	c := &consumer{
		id:         uuid.NewString(),
		conn:       conn,
		outbound:   make(chan []byte, outboundCapacity),
		done:       make(chan struct{}),
		capability: capability,
	}

	h.mu.Lock()
	h.consumers[c.id] = c
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)

	if h.notify != nil {
		if err := h.notify.Notify(notifications.NotifyClientJoined); err != nil {
			logger.Debugf(logger.Allow, "fabric", "notify join: %v", err)
		}
	}
}

func frame(prefix byte, payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = prefix
	copy(out[1:], payload)
	return out
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	targets := make([]*consumer, 0, len(h.consumers))
	for _, c := range h.consumers {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.outbound <- msg:
		case <-c.done:
			// already evicted by another goroutine; nothing to send to.
		default:
			// consumer is lagging: drop it rather than block the producer.
			h.evict(c, "outbound queue overflow")
		}
	}
}

// PublishFrame fans out an encoded video blob.
func (h *Hub) PublishFrame(f emulator.Frame) { h.broadcast(frame(TypeFrame, f)) }

// PublishAudio fans out a PCM chunk.
func (h *Hub) PublishAudio(a emulator.AudioChunk) { h.broadcast(frame(TypeAudio, a)) }

// PublishState fans out a JSON game-state event.
func (h *Hub) PublishState(data []byte) { h.broadcast(frame(TypeState, data)) }

// PublishParty fans out a JSON party array.
func (h *Hub) PublishParty(data []byte) { h.broadcast(frame(TypeParty, data)) }

// PublishLocation fans out a JSON player location.
func (h *Hub) PublishLocation(data []byte) { h.broadcast(frame(TypeLocation, data)) }

func (h *Hub) writeLoop(c *consumer) {
	for {
		select {
		case msg := <-c.outbound:
			if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				h.evict(c, "write error")
				return
			}
		case <-c.done:
			return
		}
	}
}

func (h *Hub) readLoop(c *consumer) {
	defer h.evict(c, "connection closed")
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if len(data) < 2 {
			continue
		}
		prefix, id := data[0], data[1]
		b := button.Button(id)
		if !b.Valid() {
			continue
		}
		if !c.capability && !h.allowAnonymousInput {
			continue
		}
		switch prefix {
		case TypeKeyDown:
			h.keys.SetHeldKey(c.id, b, true)
		case TypeKeyUp:
			h.keys.SetHeldKey(c.id, b, false)
		}
	}
}

// evict removes c from the live set, releases its held keys, and closes
// the connection. Safe to call more than once for the same consumer.
func (h *Hub) evict(c *consumer, reason string) {
	h.mu.Lock()
	_, live := h.consumers[c.id]
	if live {
		delete(h.consumers, c.id)
	}
	h.mu.Unlock()
	if !live {
		return
	}

	logger.Debugf(logger.Allow, "fabric", "consumer %s evicted: %s", c.id, reason)
	h.keys.ReleaseClient(c.id)
	close(c.done)
	c.conn.Close()

	if h.notify != nil {
		if err := h.notify.Notify(notifications.NotifyClientParted); err != nil {
			logger.Debugf(logger.Allow, "fabric", "notify part: %v", err)
		}
	}
}

// ConsumerCount reports the number of currently connected overlay sessions.
func (h *Hub) ConsumerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.consumers)
}
