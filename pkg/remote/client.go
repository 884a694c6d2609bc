package remote

import (
	"context"
	"errors"
	"io"
	"sync"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/rover"
)

// Client is the controller side of a remote connection.
type Client struct {
	Pipe *Pipe
	// OnTelemetry is called from the receiving goroutine.
	OnTelemetry func(*Telemetry)

	lock      sync.RWMutex
	telemetry *Telemetry
}

// NewClient creates a Client over a PacketReadWriter.
func NewClient(rw PacketReadWriter) *Client {
	c := &Client{}
	c.Pipe = NewPipe(rw, HandleTypedMsgFunc(c.handleTypedMsg))
	return c
}

// Drive sends the directional input. It must be re-sent within the
// rover's input TTL to stay held.
func (c *Client) Drive(in rover.DirectionalInput) error {
	return c.Pipe.Send(DriveInputFrom(in))
}

// Stop releases all directions.
func (c *Client) Stop() error {
	return c.Drive(rover.DirectionalInput{})
}

// Telemetry is the last received telemetry, nil if none.
func (c *Client) Telemetry() *Telemetry {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.telemetry
}

// Run implements Runnable. It runs the ReadWriter too if it is a Runnable.
// The connection closed by the rover is not an error.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := fx.NewRunnerWith(ctx)
	if r, ok := c.Pipe.ReadWriter.(fx.Runnable); ok {
		runner.Go(fx.RunFunc(func(ctx context.Context) error {
			defer cancel()
			return r.Run(ctx)
		}))
	}
	runner.Go(fx.RunFunc(func(ctx context.Context) error {
		defer cancel()
		if err := c.Pipe.Run(ctx); !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}))
	return runner.Wait()
}

func (c *Client) handleTypedMsg(_ context.Context, msg fx.Message, _ *Typed) error {
	t, ok := msg.(*Telemetry)
	if !ok {
		return nil
	}
	c.lock.Lock()
	c.telemetry = t
	c.lock.Unlock()
	if fn := c.OnTelemetry; fn != nil {
		fn(t)
	}
	return nil
}
