package rover

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/input"
	"github.com/robotalks/rover.go/pkg/physics"
)

func TestReporter(t *testing.T) {
	e := &fakeEngine{}
	rig, err := NewConfig().Assemble(e)
	require.NoError(t, err)

	var got *Snapshot
	r := NewReporter(e, rig, nil, SinkFunc(func(s *Snapshot) error {
		got = s
		return nil
	}), &LogSink{Every: 1})
	loop := fx.NewLoop()
	loop.AddController(fx.PrLvPostProc, r)
	require.NoError(t, loop.Step(context.Background(), frame))

	require.NotNil(t, got)
	require.Equal(t, uint64(1), got.Frame)
	require.Equal(t, frame, got.Delta)
	require.Len(t, got.Bodies, 3)
	chassis, ok := got.Body("chassis")
	require.True(t, ok)
	require.Equal(t, DefaultDropHeight, chassis.Altitude())
	require.False(t, chassis.Sleeping, "unknown without an inspector")
	wheel, ok := got.Body("left_wheel")
	require.True(t, ok)
	require.InDelta(t, DefaultDropHeight-0.1, wheel.Altitude(), 1e-9)
	_, ok = got.Body("ground")
	require.False(t, ok)
	require.Zero(t, e.writes, "read only")
}

func TestReporterSkipsUnreadable(t *testing.T) {
	e := &fakeEngine{}
	rig, err := NewConfig().Assemble(e)
	require.NoError(t, err)
	r := NewReporter(e, rig, NewDriver(input.NewKeyboard(), input.NewBindings()))
	r.Bodies = append(r.Bodies, TrackedBody{Name: "ghost", Body: 42})

	snap := &Snapshot{}
	err = r.Sample(snap)
	require.ErrorIs(t, err, physics.ErrUnknownBody)
	require.Len(t, snap.Bodies, 3)
}
