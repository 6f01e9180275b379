package fabric_test

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetilly/crowdcade/internal/button"
	"github.com/jetsetilly/crowdcade/internal/emulator"
	"github.com/jetsetilly/crowdcade/internal/fabric"
)

type fakeKeys struct {
	mu       sync.Mutex
	held     map[string]map[button.Button]bool
	released []string
}

func newFakeKeys() *fakeKeys {
	return &fakeKeys{held: make(map[string]map[button.Button]bool)}
}

func (f *fakeKeys) SetHeldKey(clientID string, b button.Button, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[clientID] == nil {
		f.held[clientID] = make(map[button.Button]bool)
	}
	f.held[clientID][b] = down
}

func (f *fakeKeys) ReleaseClient(clientID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, clientID)
}

func dialOverlay(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/overlay"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestPublishFrameReachesConnectedConsumer(t *testing.T) {
	keys := newFakeKeys()
	hub := fabric.New(keys, false)
	srv := httptest.NewServer(fabric.Router(hub, "secret"))
	defer srv.Close()

	conn := dialOverlay(t, srv, "")
	defer conn.Close()

	// give the server a moment to register the consumer
	time.Sleep(20 * time.Millisecond)
	hub.PublishFrame(emulator.Frame{0xAA, 0xBB})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Len(t, data, 3)
	assert.Equal(t, fabric.TypeFrame, data[0])
	assert.Equal(t, []byte{0xAA, 0xBB}, data[1:])
}

func TestBackChannelRequiresCapabilityByDefault(t *testing.T) {
	keys := newFakeKeys()
	hub := fabric.New(keys, false)
	srv := httptest.NewServer(fabric.Router(hub, "secret"))
	defer srv.Close()

	conn := dialOverlay(t, srv, "") // no token
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{fabric.TypeKeyDown, byte(button.A)}))
	time.Sleep(20 * time.Millisecond)

	keys.mu.Lock()
	defer keys.mu.Unlock()
	assert.Empty(t, keys.held)
}

func TestBackChannelAppliesWithCapabilityToken(t *testing.T) {
	keys := newFakeKeys()
	hub := fabric.New(keys, false)
	srv := httptest.NewServer(fabric.Router(hub, "secret"))
	defer srv.Close()

	conn := dialOverlay(t, srv, "secret")
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{fabric.TypeKeyDown, byte(button.A)}))

	require.Eventually(t, func() bool {
		keys.mu.Lock()
		defer keys.mu.Unlock()
		for _, m := range keys.held {
			if m[button.A] {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestDisconnectReleasesHeldKeys(t *testing.T) {
	keys := newFakeKeys()
	hub := fabric.New(keys, false)
	srv := httptest.NewServer(fabric.Router(hub, "secret"))
	defer srv.Close()

	conn := dialOverlay(t, srv, "secret")
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{fabric.TypeKeyDown, byte(button.A)}))
	time.Sleep(20 * time.Millisecond)
	conn.Close()

	require.Eventually(t, func() bool {
		keys.mu.Lock()
		defer keys.mu.Unlock()
		return len(keys.released) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestLaggingConsumerIsEvicted(t *testing.T) {
	keys := newFakeKeys()
	hub := fabric.New(keys, false)
	srv := httptest.NewServer(fabric.Router(hub, "secret"))
	defer srv.Close()

	conn := dialOverlay(t, srv, "")
	defer conn.Close()
	time.Sleep(20 * time.Millisecond)

	// flood well past the bounded outbound queue without reading
	for i := 0; i < 50; i++ {
		hub.PublishFrame(emulator.Frame{byte(i)})
	}

	require.Eventually(t, func() bool {
		return hub.ConsumerCount() == 0
	}, time.Second, 5*time.Millisecond)
}
