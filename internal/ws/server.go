package ws

import (
	"context"
	"net/http"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/sirupsen/logrus"

	"go_netinv/internal/model"
	"go_netinv/internal/util"
)

// DeviceLister is what the hub needs to answer snapshot requests
type DeviceLister interface {
	AllDevices(ctx context.Context) ([]model.Device, error)
}

// Hub owns the Socket.IO server and broadcasts inventory events
type Hub struct {
	server  *socketio.Server
	devices DeviceLister
	logger  *logrus.Entry
}

// NewHub creates the Socket.IO server and registers its handlers
func NewHub(devices DeviceLister) *Hub {
	allowAll := func(r *http.Request) bool { return true }
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&polling.Transport{CheckOrigin: allowAll},
			&websocket.Transport{CheckOrigin: allowAll},
		},
	})

	h := &Hub{server: server, devices: devices, logger: util.WithComponent("ws")}

	// JWT is checked during the handshake, see WrapWithAuth
	server.OnConnect("/", func(s socketio.Conn) error {
		h.logger.WithField("sid", s.ID()).Debug("client connected")
		s.Emit("connected", map[string]interface{}{"ok": true})
		return nil
	})
	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		h.logger.WithField("sid", s.ID()).Debugf("client disconnected: %s", reason)
	})
	server.OnError("/", func(s socketio.Conn, e error) {
		if s != nil {
			h.logger.WithField("sid", s.ID()).WithError(e).Warn("socket error")
			return
		}
		h.logger.WithError(e).Warn("socket error")
	})
	server.OnEvent("/", EventRequestDevices, h.handleRequestDevices)

	return h
}

// Start serves the Socket.IO engine in the background
func (h *Hub) Start() {
	go func() {
		if err := h.server.Serve(); err != nil {
			h.logger.WithError(err).Error("socket.io server stopped")
		}
	}()
	h.logger.Info("socket.io server started")
}

// Close shuts the server down
func (h *Hub) Close() error {
	return h.server.Close()
}

// Handler returns the JWT-guarded HTTP handler for /socket.io/
func (h *Hub) Handler() http.Handler {
	return WrapWithAuth(h.server)
}

// Publish broadcasts an event to every connected client
func (h *Hub) Publish(event string, payload interface{}) {
	if h == nil || h.server == nil {
		return
	}
	h.server.BroadcastToNamespace("/", event, payload)
}
