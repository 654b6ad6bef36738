package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cam-cloud/ccs/internal/relay"
)

// wsStreamConn adapts a gorilla WebSocket connection to relay.StreamConn.
// Writes are serialized and bounded by the configured send timeout so a
// stalled viewer surfaces as a write error instead of blocking a broadcast
// pass indefinitely.
type wsStreamConn struct {
	conn        *websocket.Conn
	sendTimeout time.Duration

	writeMu sync.Mutex
}

func newWSStreamConn(conn *websocket.Conn, sendTimeout time.Duration, readLimit int64) *wsStreamConn {
	conn.SetReadLimit(readLimit)
	return &wsStreamConn{
		conn:        conn,
		sendTimeout: sendTimeout,
	}
}

// ReadFrame blocks until the next binary message. Text and other
// non-binary messages are not frame attempts and are skipped.
func (c *wsStreamConn) ReadFrame() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

func (c *wsStreamConn) WriteFrame(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (c *wsStreamConn) Close() error {
	return c.conn.Close()
}

// handleStream handles GET /ws/stream/{deviceId}.
//
// A connection presenting the shared secret becomes the device's producer;
// any other connection is assumed to be a viewer and is registered as a
// consumer without credentials. The handler blocks for the connection's
// lifetime; net/http gives every connection its own goroutine.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	deviceID := strings.TrimPrefix(r.URL.Path, "/ws/stream/")
	if deviceID == "" || strings.Contains(deviceID, "/") {
		WriteError(w, http.StatusBadRequest, "Device ID is required")
		return
	}

	// Role decided before the upgrade consumes the request.
	isProducer := s.keychecker.Authorize(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		s.log.Warnf("device %s: websocket upgrade failed: %v", deviceID, err)
		return
	}

	sc := newWSStreamConn(conn, s.cfg.SendTimeout(), s.cfg.Stream.ReadLimit)
	if isProducer {
		relay.NewProducerSession(deviceID, sc, s.registry, s.broadcaster, s.loggerFactory).Run()
	} else {
		relay.NewConsumerSession(deviceID, sc, s.registry, s.loggerFactory).Run()
	}
}
