package relay

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cam-cloud/ccs/internal/registry"
)

// scriptedConn feeds frames to ReadFrame from a channel and records writes.
type scriptedConn struct {
	inbound chan []byte

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newScriptedConn() *scriptedConn {
	return &scriptedConn{inbound: make(chan []byte, 16)}
}

func (c *scriptedConn) ReadFrame() ([]byte, error) {
	frame, ok := <-c.inbound
	if !ok {
		return nil, io.EOF
	}
	return frame, nil
}

func (c *scriptedConn) WriteFrame(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(frame))
	copy(buf, frame)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

func TestProducerSessionStreamsAndCleansUp(t *testing.T) {
	reg := registry.New()
	bc := newTestBroadcaster(reg)
	factory := logging.NewDefaultLoggerFactory()

	viewer := &fakeConsumer{}
	reg.RegisterConsumer("cam1", viewer)

	producer := newScriptedConn()
	session := NewProducerSession("cam1", producer, reg, bc, factory)

	done := make(chan struct{})
	go func() {
		session.Run()
		close(done)
	}()

	f1 := jpegFrame(0x01)
	f2 := jpegFrame(0x02)
	producer.inbound <- f1
	producer.inbound <- []byte{0x00, 0x11, 0x22} // invalid, dropped silently
	producer.inbound <- f2
	close(producer.inbound)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer session did not terminate")
	}

	// Valid frames delivered in order, invalid one never reached the viewer.
	assert.Equal(t, [][]byte{f1, f2}, viewer.received())

	// Terminal state: producer unregistered, connection closed.
	assert.Nil(t, reg.Producer("cam1"))
	producer.mu.Lock()
	assert.True(t, producer.closed)
	producer.mu.Unlock()
}

func TestProducerSessionInvalidFrameKeepsSessionAlive(t *testing.T) {
	reg := registry.New()
	bc := newTestBroadcaster(reg)

	producer := newScriptedConn()
	session := NewProducerSession("cam1", producer, reg, bc, logging.NewDefaultLoggerFactory())

	done := make(chan struct{})
	go func() {
		session.Run()
		close(done)
	}()

	producer.inbound <- []byte{0x00, 0x11, 0x22}

	// Session still registered after the invalid frame.
	require.Eventually(t, func() bool {
		return reg.Producer("cam1") != nil
	}, time.Second, 10*time.Millisecond)
	select {
	case <-done:
		t.Fatal("producer session terminated on invalid frame")
	default:
	}

	close(producer.inbound)
	<-done
}

func TestProducerReplacementStaleCleanup(t *testing.T) {
	reg := registry.New()
	bc := newTestBroadcaster(reg)
	factory := logging.NewDefaultLoggerFactory()

	p1 := newScriptedConn()
	p2 := newScriptedConn()
	s1 := NewProducerSession("cam1", p1, reg, bc, factory)
	s2 := NewProducerSession("cam1", p2, reg, bc, factory)

	done1 := make(chan struct{})
	go func() {
		s1.Run()
		close(done1)
	}()
	require.Eventually(t, func() bool {
		return reg.Producer("cam1") == registry.Conn(p1)
	}, time.Second, 10*time.Millisecond)

	done2 := make(chan struct{})
	go func() {
		s2.Run()
		close(done2)
	}()
	require.Eventually(t, func() bool {
		return reg.Producer("cam1") == registry.Conn(p2)
	}, time.Second, 10*time.Millisecond)

	// The replaced session's teardown must not evict its replacement.
	close(p1.inbound)
	<-done1
	assert.Same(t, p2, reg.Producer("cam1"))
	assert.True(t, reg.ListActiveDevices()["cam1"].HasProducer)

	// Frames now originate from p2.
	viewer := &fakeConsumer{}
	reg.RegisterConsumer("cam1", viewer)
	f := jpegFrame(0x42)
	p2.inbound <- f
	require.Eventually(t, func() bool {
		return len(viewer.received()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, f, viewer.received()[0])

	close(p2.inbound)
	<-done2
	assert.Empty(t, reg.ListActiveDevices())
}

func TestConsumerSessionLifecycle(t *testing.T) {
	reg := registry.New()
	factory := logging.NewDefaultLoggerFactory()

	conn := newScriptedConn()
	session := NewConsumerSession("cam1", conn, reg, factory)

	done := make(chan struct{})
	go func() {
		session.Run()
		close(done)
	}()

	require.Eventually(t, func() bool {
		return reg.ListActiveDevices()["cam1"].ConsumerCount == 1
	}, time.Second, 10*time.Millisecond)

	// Inbound data from a viewer is discarded without ending the session.
	conn.inbound <- []byte("ping")
	select {
	case <-done:
		t.Fatal("consumer session terminated on inbound data")
	case <-time.After(50 * time.Millisecond):
	}

	close(conn.inbound)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer session did not terminate")
	}

	assert.Empty(t, reg.ListActiveDevices(), "consumer unregistered and entry pruned")
	conn.mu.Lock()
	assert.True(t, conn.closed)
	conn.mu.Unlock()
}
