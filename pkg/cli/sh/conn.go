package sh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rover.go/pkg/remote"
	"github.com/robotalks/rover.go/pkg/rover"
)

// Conn is a live connection to a rover. The current input is re-sent
// every half input TTL so the rover keeps holding it.
type Conn struct {
	Meta   remote.RoverMeta
	Client *remote.Client

	cancel    context.CancelFunc
	stop      context.CancelFunc
	done      chan struct{}
	refreshed chan struct{}
	lock      sync.Mutex
	input     rover.DirectionalInput
	watch     atomic.Bool
}

// NewConn creates a Conn over a PacketReadWriter.
func NewConn(meta remote.RoverMeta, rw remote.PacketReadWriter) *Conn {
	return &Conn{
		Meta:      meta,
		Client:    remote.NewClient(rw),
		done:      make(chan struct{}),
		refreshed: make(chan struct{}),
	}
}

// Start runs the connection in background until ctx is done or Close.
func (c *Conn) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go func() {
		defer close(c.done)
		if err := c.Client.Run(ctx); err != nil {
			glog.Errorf("rover %s: %v", c.Meta.ID, err)
		}
	}()
	refreshCtx, stop := context.WithCancel(ctx)
	c.stop = stop
	go func() {
		defer close(c.refreshed)
		c.refresh(refreshCtx)
	}()
}

// Close stops the rover and closes the connection.
func (c *Conn) Close() error {
	if c.cancel == nil {
		return nil
	}
	c.lock.Lock()
	c.input = rover.DirectionalInput{}
	c.lock.Unlock()
	c.stop()
	<-c.refreshed
	err := c.Client.Stop()
	c.cancel()
	<-c.done
	return err
}

// SetInput sends the input now and keeps refreshing it.
func (c *Conn) SetInput(in rover.DirectionalInput) error {
	c.lock.Lock()
	c.input = in
	c.lock.Unlock()
	return c.Client.Drive(in)
}

// Input is the input being held.
func (c *Conn) Input() rover.DirectionalInput {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.input
}

// Watch turns on/off printing of telemetry.
func (c *Conn) Watch(on bool) {
	c.watch.Store(on)
}

// Watching tells if telemetry is being printed.
func (c *Conn) Watching() bool {
	return c.watch.Load()
}

func (c *Conn) refresh(ctx context.Context) {
	period := c.Meta.InputTTL() / 2
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			in := c.Input()
			if in == (rover.DirectionalInput{}) {
				continue
			}
			if err := c.Client.Drive(in); err != nil {
				glog.Warningf("rover %s: refresh input: %v", c.Meta.ID, err)
			}
		}
	}
}
