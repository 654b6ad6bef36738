package relay

import (
	"github.com/pion/logging"

	"github.com/cam-cloud/ccs/internal/registry"
)

// StreamConn is a bidirectional stream connection: the registry's write/close
// handle plus a blocking frame reader.
type StreamConn interface {
	registry.Conn

	// ReadFrame blocks until the next inbound binary message or a transport
	// error. The returned error is terminal for the session.
	ReadFrame() ([]byte, error)
}

// ProducerSession is the receive loop for an authenticated device connection.
// Lifecycle: registered on start, streaming until the first read error, then
// unregistered exactly once.
type ProducerSession struct {
	deviceID string
	conn     StreamConn
	reg      *registry.Registry
	bc       *Broadcaster
	log      logging.LeveledLogger
}

// NewProducerSession creates a producer session for deviceID over conn.
func NewProducerSession(deviceID string, conn StreamConn, reg *registry.Registry, bc *Broadcaster, loggerFactory logging.LoggerFactory) *ProducerSession {
	return &ProducerSession{
		deviceID: deviceID,
		conn:     conn,
		reg:      reg,
		bc:       bc,
		log:      loggerFactory.NewLogger("relay"),
	}
}

// Run registers the producer and pumps frames until the connection drops.
// It blocks for the lifetime of the connection.
func (s *ProducerSession) Run() {
	// Last writer wins: a reconnecting camera replaces its stale predecessor.
	// The old connection is left to its own lifecycle, whose guarded
	// unregister can no longer remove us.
	if prev := s.reg.RegisterProducer(s.deviceID, s.conn); prev != nil {
		s.log.Infof("device %s: producer replaced", s.deviceID)
	}
	s.log.Infof("device %s: producer connected", s.deviceID)

	defer func() {
		s.reg.UnregisterProducer(s.deviceID, s.conn)
		_ = s.conn.Close()
		s.log.Infof("device %s: producer disconnected", s.deviceID)
	}()

	for {
		frame, err := s.conn.ReadFrame()
		if err != nil {
			return
		}
		if !ValidFrame(frame) {
			s.log.Warnf("device %s: dropping invalid frame (%d bytes)", s.deviceID, len(frame))
			continue
		}
		s.bc.Broadcast(s.deviceID, frame)
	}
}

// ConsumerSession holds a viewer connection open. The viewer never sends
// application data; the broadcaster pushes frames to it directly. The session
// only waits for the disconnect.
type ConsumerSession struct {
	deviceID string
	conn     StreamConn
	reg      *registry.Registry
	log      logging.LeveledLogger
}

// NewConsumerSession creates a consumer session for deviceID over conn.
func NewConsumerSession(deviceID string, conn StreamConn, reg *registry.Registry, loggerFactory logging.LoggerFactory) *ConsumerSession {
	return &ConsumerSession{
		deviceID: deviceID,
		conn:     conn,
		reg:      reg,
		log:      loggerFactory.NewLogger("relay"),
	}
}

// Run registers the consumer and blocks until the connection drops, then
// unregisters it. Inbound data from the viewer is discarded.
func (s *ConsumerSession) Run() {
	s.reg.RegisterConsumer(s.deviceID, s.conn)
	s.log.Infof("device %s: consumer connected", s.deviceID)

	defer func() {
		s.reg.UnregisterConsumer(s.deviceID, s.conn)
		_ = s.conn.Close()
		s.log.Infof("device %s: consumer disconnected", s.deviceID)
	}()

	for {
		if _, err := s.conn.ReadFrame(); err != nil {
			return
		}
	}
}
