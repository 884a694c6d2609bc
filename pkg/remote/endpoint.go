package remote

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/input"
	"github.com/robotalks/rover.go/pkg/rover"
)

// SourceName identifies key events from remote controllers.
const SourceName = "remote"

// PrLvRemote is where remote input becomes key events, right before
// the keyboard state is updated.
const PrLvRemote = fx.PrLvInput - 1

// DefaultInputTTL is how long a remote input is held without refresh.
const DefaultInputTTL = 500 * time.Millisecond

// Endpoint is the rover side of a remote connection. Received
// DriveInput messages press the remote virtual keys, which are
// released when the input isn't refreshed within InputTTL.
// DriveInput posted to the loop by other transports is handled too.
type Endpoint struct {
	Pipe     *Pipe
	InputTTL time.Duration

	input   rover.DirectionalInput
	expires time.Time
}

// NewEndpoint creates an Endpoint over a PacketReadWriter.
func NewEndpoint(rw PacketReadWriter, ttl time.Duration) *Endpoint {
	e := &Endpoint{InputTTL: ttl}
	e.Pipe = NewPipe(rw, LoopHandler)
	return e
}

// AddToLoop implements LoopAdder.
func (e *Endpoint) AddToLoop(l *fx.Loop) {
	if e.Pipe != nil {
		l.Add(e.Pipe)
	}
	l.AddController(PrLvRemote, e)
}

// Publisher creates a TelemetryPublisher sending over the same pipe.
func (e *Endpoint) Publisher(every uint64) *TelemetryPublisher {
	return NewTelemetryPublisher(e.Pipe, every)
}

// LoopHandler posts received DriveInput messages into the loop found
// in the context, for an Endpoint to pick up.
var LoopHandler = HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *Typed) error {
	if _, ok := msg.(*DriveInput); ok {
		fx.LoopCtlFrom(ctx).PostMessage(msg)
	} else {
		glog.V(1).Infof("remote: ignore %T (seq %d)", msg, typed.Sequence)
	}
	return nil
})

// Control implements Controller.
func (e *Endpoint) Control(cc fx.ControlContext) error {
	now := cc.Time()
	var events []fx.Message
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if msg, ok := mctx.CurrentMessage().(*DriveInput); ok {
			mctx.MessageTaken()
			events = e.press(msg.Directional(), events)
			e.expires = now.Add(e.ttl())
		}
	}))
	if e.input != (rover.DirectionalInput{}) && !now.Before(e.expires) {
		glog.V(1).Info("remote input expired")
		e.input = rover.DirectionalInput{}
		events = append(events, &input.ReleaseAll{Source: SourceName})
	}
	cc.Messages().AddMessages(events...)
	return nil
}

// Input is the remote input currently held.
func (e *Endpoint) Input() rover.DirectionalInput {
	return e.input
}

func (e *Endpoint) ttl() time.Duration {
	if e.InputTTL > 0 {
		return e.InputTTL
	}
	return DefaultInputTTL
}

func (e *Endpoint) press(in rover.DirectionalInput, events []fx.Message) []fx.Message {
	set := func(key input.Key, was, is bool) {
		if was != is {
			events = append(events, &input.KeyEvent{Key: key, Pressed: is, Source: SourceName})
		}
	}
	set(input.RemoteForward, e.input.Forward, in.Forward)
	set(input.RemoteBackward, e.input.Backward, in.Backward)
	set(input.RemoteLeft, e.input.Left, in.Left)
	set(input.RemoteRight, e.input.Right, in.Right)
	e.input = in
	return events
}
