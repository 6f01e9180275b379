package fabric

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// CapabilityToken is the query parameter a privileged overlay client
// presents to unlock the back-channel.
const CapabilityToken = "token"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Router builds the fabric's own tiny mux, kept separate from the admin
// surface's chi router so the public lossy fanout and the authenticated
// control surface never share a middleware stack.
func Router(h *Hub, capabilityToken string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/overlay", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		capability := capabilityToken != "" && req.URL.Query().Get(CapabilityToken) == capabilityToken
		h.Join(conn, capability)
	})
	return r
}
