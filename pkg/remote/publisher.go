package remote

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/rover"
)

// DefaultTelemetryEvery publishes 10 times a second at 60 frames per second.
const DefaultTelemetryEvery = 6

// Sender sends a message to the remote side.
type Sender interface {
	Send(fx.Message) error
}

// TelemetryPublisher is a rover.Sink sending telemetry from its own
// goroutine. A snapshot is dropped if the previous one is still being
// sent.
type TelemetryPublisher struct {
	Sender Sender
	// Every publishes one frame out of Every.
	Every uint64

	sendCh  chan *Telemetry
	dropped uint64
}

// NewTelemetryPublisher creates a TelemetryPublisher.
func NewTelemetryPublisher(sender Sender, every uint64) *TelemetryPublisher {
	return &TelemetryPublisher{Sender: sender, Every: every, sendCh: make(chan *Telemetry, 1)}
}

// AddToLoop implements LoopAdder.
func (p *TelemetryPublisher) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("telemetry", p))
}

// Report implements rover.Sink.
func (p *TelemetryPublisher) Report(snap *rover.Snapshot) error {
	if p.Every > 1 && snap.Frame%p.Every != 0 {
		return nil
	}
	select {
	case p.sendCh <- TelemetryFrom(snap):
	default:
		p.dropped++
		glog.V(2).Infof("telemetry frame %d dropped (%d total)", snap.Frame, p.dropped)
	}
	return nil
}

// Dropped is the number of snapshots dropped.
func (p *TelemetryPublisher) Dropped() uint64 {
	return p.dropped
}

// Run implements Runnable.
func (p *TelemetryPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-p.sendCh:
			if err := p.Sender.Send(msg); err != nil {
				glog.Warningf("send telemetry frame %d: %v", msg.Frame, err)
			}
		}
	}
}
