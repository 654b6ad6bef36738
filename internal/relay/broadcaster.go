package relay

import (
	"sync"

	"github.com/pion/logging"
	"golang.org/x/sync/errgroup"

	"github.com/cam-cloud/ccs/internal/registry"
)

// Broadcaster delivers validated frames to every consumer registered for a
// device. Consumers are dispatched in parallel so one stalled connection
// cannot delay the rest of the pass; each send is bounded by the connection's
// own write deadline.
type Broadcaster struct {
	reg *registry.Registry
	log logging.LeveledLogger
}

// NewBroadcaster creates a broadcaster backed by reg.
func NewBroadcaster(reg *registry.Registry, loggerFactory logging.LoggerFactory) *Broadcaster {
	return &Broadcaster{
		reg: reg,
		log: loggerFactory.NewLogger("relay"),
	}
}

// Broadcast attempts delivery of one frame to all consumers currently
// registered for deviceID. Failed consumers are unregistered and closed after
// the pass; nothing is reported back to the caller. Callers must invoke
// Broadcast sequentially per producer to preserve per-consumer frame order.
func (b *Broadcaster) Broadcast(deviceID string, frame []byte) {
	conns := b.reg.ListConsumers(deviceID)
	if len(conns) == 0 {
		return
	}

	var (
		mu     sync.Mutex
		failed []registry.Conn
	)

	g := new(errgroup.Group)
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			if err := conn.WriteFrame(frame); err != nil {
				b.log.Warnf("device %s: dropping consumer after send failure: %v", deviceID, err)
				mu.Lock()
				failed = append(failed, conn)
				mu.Unlock()
			}
			return nil
		})
	}
	// Send goroutines never return errors; failures are collected above so
	// one consumer cannot abort delivery to the others.
	_ = g.Wait()

	for _, conn := range failed {
		b.reg.UnregisterConsumer(deviceID, conn)
		_ = conn.Close()
	}

	if len(failed) > 0 {
		b.log.Debugf("device %s: delivered frame to %d/%d consumers", deviceID, len(conns)-len(failed), len(conns))
	}
}
