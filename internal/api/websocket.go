package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vitalmesh/vitalmesh-core/internal/bus"
	"github.com/vitalmesh/vitalmesh-core/internal/hub"
	"github.com/vitalmesh/vitalmesh-core/internal/infrastructure/config"
	"github.com/vitalmesh/vitalmesh-core/internal/infrastructure/logging"
)

// wsClient errors reported to the hub, which drops the sink.
var (
	errClientClosed   = errors.New("websocket client closed")
	errSendBufferFull = errors.New("websocket send buffer full")
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// wsClient is one observer connection. It satisfies the hub's Sink:
// Send enqueues without blocking and reports a full buffer or closed
// connection as an error, after which the hub drops the client.
type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	logger *logging.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func newWSClient(conn *websocket.Conn, bufferSize int, logger *logging.Logger) *wsClient {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &wsClient{
		conn:   conn,
		send:   make(chan []byte, bufferSize),
		logger: logger,
		closed: make(chan struct{}),
	}
}

// Send enqueues a frame for the write pump. Never blocks: a slow
// client fills its buffer and is disconnected rather than stalling
// delivery to everyone else.
func (c *wsClient) Send(data []byte) error {
	select {
	case <-c.closed:
		return errClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.close()
		return errSendBufferFull
	}
}

// close shuts the connection down exactly once.
func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// writePump writes queued frames and protocol pings to the connection.
func (c *wsClient) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data := <-c.send:
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			//nolint:errcheck // Best-effort close message
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}

// readPump reads frames until the connection dies. Each frame is
// passed to onMessage when set; dashboards read nothing, device
// channels read outbound bus messages.
func (c *wsClient) readPump(cfg config.WebSocketConfig, onMessage func(data []byte)) {
	defer c.close()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			} else {
				c.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any client message resets the read deadline.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		if onMessage != nil {
			onMessage(message)
		}
	}
}

// handleDashboardWS upgrades the connection and subscribes it as a
// dashboard observer. The client receives one device_update per
// currently registered device before any live frame.
func (s *Server) handleDashboardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := newWSClient(conn, s.wsCfg.SendBufferSize, s.logger)

	snapshots := make([]hub.DeviceSnapshot, 0, s.registry.Count())
	for _, info := range s.registry.Discover("") {
		snapshots = append(snapshots, s.snapshotFor(info))
	}
	s.hub.SubscribeDashboard(client, snapshots)
	s.logger.Debug("dashboard connected", "devices", len(snapshots))

	go client.writePump(s.wsCfg)
	go func() {
		defer s.hub.UnsubscribeDashboard(client)
		client.readPump(s.wsCfg, nil)
	}()
}

// deviceFrame is the inbound shape on a device channel. Identity comes
// from the channel, never the frame; sender and server-assigned fields
// are ignored if supplied.
type deviceFrame struct {
	ReceiverID  *string        `json:"receiver_id"`
	MessageType string         `json:"message_type"`
	Payload     map[string]any `json:"payload"`
	Priority    int            `json:"priority"`
}

// handleDeviceWS upgrades the connection and binds it to one device's
// channel: inbound frames become bus messages from that device,
// outbound frames are the bus messages delivered to it. Messages
// already queued for the device are sent once at connect, then only
// live pushes follow.
func (s *Server) handleDeviceWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.registry.Contains(id) {
		writeNotFound(w, "device not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := newWSClient(conn, s.wsCfg.SendBufferSize, s.logger)

	// Deliver the device's queued messages once, before live frames.
	msgs := s.bus.ReceiveFor(id)
	backlog := make([][]byte, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.Error("marshal queued message", "device_id", id, "error", err)
			continue
		}
		backlog = append(backlog, data)
	}
	s.hub.SubscribeDevice(id, client, backlog)
	s.logger.Debug("device channel connected", "device_id", id, "queued", len(backlog))

	go client.writePump(s.wsCfg)
	go func() {
		defer s.hub.UnsubscribeDevice(id, client)
		client.readPump(s.wsCfg, func(data []byte) {
			s.handleDeviceFrame(id, data)
		})
	}()
}

// handleDeviceFrame turns an inbound channel frame into a bus send on
// behalf of the connected device. Send rejections are logged, not
// echoed; the channel stays open.
func (s *Server) handleDeviceFrame(deviceID string, data []byte) {
	var frame deviceFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Debug("invalid device frame", "device_id", deviceID, "error", err)
		return
	}
	if frame.MessageType == "" {
		frame.MessageType = bus.MessageTypeData
	}

	if _, err := s.bus.Send(bus.Message{
		SenderID:    deviceID,
		ReceiverID:  frame.ReceiverID,
		MessageType: frame.MessageType,
		Payload:     frame.Payload,
		Priority:    frame.Priority,
	}); err != nil {
		s.logger.Debug("device frame rejected by bus", "device_id", deviceID, "error", err)
	}
}
