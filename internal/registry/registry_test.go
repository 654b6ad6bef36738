package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConn is a minimal comparable Conn for registry tests.
type stubConn struct {
	name string
}

func (c *stubConn) WriteFrame([]byte) error { return nil }
func (c *stubConn) Close() error            { return nil }

func TestRegisterProducerLastWriterWins(t *testing.T) {
	r := New()
	p1 := &stubConn{name: "p1"}
	p2 := &stubConn{name: "p2"}

	prev := r.RegisterProducer("cam1", p1)
	assert.Nil(t, prev)

	prev = r.RegisterProducer("cam1", p2)
	assert.Same(t, p1, prev)
	assert.Same(t, p2, r.Producer("cam1"))

	assert.True(t, r.ListActiveDevices()["cam1"].HasProducer)
}

func TestUnregisterProducerStaleTeardown(t *testing.T) {
	r := New()
	p1 := &stubConn{name: "p1"}
	p2 := &stubConn{name: "p2"}

	r.RegisterProducer("cam1", p1)
	r.RegisterProducer("cam1", p2)

	// p1's delayed teardown must not remove the replacement.
	r.UnregisterProducer("cam1", p1)
	assert.Same(t, p2, r.Producer("cam1"))

	r.UnregisterProducer("cam1", p2)
	assert.Nil(t, r.Producer("cam1"))

	// Redundant removal is a no-op.
	r.UnregisterProducer("cam1", p2)
	assert.Empty(t, r.ListActiveDevices())
}

func TestConsumerSetPruning(t *testing.T) {
	r := New()
	c1 := &stubConn{name: "c1"}
	c2 := &stubConn{name: "c2"}

	r.RegisterConsumer("cam1", c1)
	r.RegisterConsumer("cam1", c2)
	assert.Equal(t, 2, r.ListActiveDevices()["cam1"].ConsumerCount)

	r.UnregisterConsumer("cam1", c1)
	assert.Equal(t, 1, r.ListActiveDevices()["cam1"].ConsumerCount)

	r.UnregisterConsumer("cam1", c2)
	_, present := r.ListActiveDevices()["cam1"]
	assert.False(t, present, "empty consumer set must be pruned")

	// Removing from an absent device is a no-op.
	r.UnregisterConsumer("cam1", c2)
	r.UnregisterConsumer("never-seen", c2)
}

func TestConsumerMembershipUnique(t *testing.T) {
	r := New()
	c1 := &stubConn{name: "c1"}

	r.RegisterConsumer("cam1", c1)
	r.RegisterConsumer("cam1", c1)

	assert.Len(t, r.ListConsumers("cam1"), 1)
}

func TestListConsumersReturnsSnapshot(t *testing.T) {
	r := New()
	c1 := &stubConn{name: "c1"}
	c2 := &stubConn{name: "c2"}

	r.RegisterConsumer("cam1", c1)
	snapshot := r.ListConsumers("cam1")
	require.Len(t, snapshot, 1)

	// Mutations after the snapshot do not alter it.
	r.RegisterConsumer("cam1", c2)
	r.UnregisterConsumer("cam1", c1)
	assert.Len(t, snapshot, 1)
	assert.Same(t, c1, snapshot[0].(*stubConn))

	assert.Nil(t, r.ListConsumers("no-such-device"))
}

func TestListActiveDevicesMixedRoles(t *testing.T) {
	r := New()
	p := &stubConn{name: "p"}
	c := &stubConn{name: "c"}

	r.RegisterProducer("cam1", p)
	r.RegisterConsumer("cam2", c)

	devices := r.ListActiveDevices()
	require.Len(t, devices, 2)
	assert.Equal(t, DeviceState{HasProducer: true, ConsumerCount: 0}, devices["cam1"])
	assert.Equal(t, DeviceState{HasProducer: false, ConsumerCount: 1}, devices["cam2"])
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	const workers = 16
	const iterations = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			device := fmt.Sprintf("cam%d", w%4)
			conn := &stubConn{name: fmt.Sprintf("conn-%d", w)}
			for i := 0; i < iterations; i++ {
				r.RegisterConsumer(device, conn)
				r.ListConsumers(device)
				r.RegisterProducer(device, conn)
				r.ListActiveDevices()
				r.UnregisterConsumer(device, conn)
				r.UnregisterProducer(device, conn)
			}
		}(w)
	}
	wg.Wait()

	assert.Empty(t, r.ListActiveDevices())
}
