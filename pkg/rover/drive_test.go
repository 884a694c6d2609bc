package rover

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/input"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		name   string
		input  DirectionalInput
		expect DriveCommand
	}{
		{name: "idle", expect: DriveCommand{0, 0}},
		{name: "forward", input: DirectionalInput{Forward: true}, expect: DriveCommand{1, 1}},
		{name: "backward", input: DirectionalInput{Backward: true}, expect: DriveCommand{-1, -1}},
		{name: "left", input: DirectionalInput{Left: true}, expect: DriveCommand{-1, 1}},
		{name: "right", input: DirectionalInput{Right: true}, expect: DriveCommand{1, -1}},
		{name: "forward left", input: DirectionalInput{Forward: true, Left: true}, expect: DriveCommand{0, 2}},
		{name: "backward right", input: DirectionalInput{Backward: true, Right: true}, expect: DriveCommand{0, -2}},
		{name: "forward backward", input: DirectionalInput{Forward: true, Backward: true}, expect: DriveCommand{0, 0}},
		{name: "all", input: DirectionalInput{true, true, true, true}, expect: DriveCommand{0, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, Resolve(tc.input))
		})
	}
}

func TestResolveCancellation(t *testing.T) {
	for _, turn := range []DirectionalInput{{}, {Left: true}, {Right: true}, {Left: true, Right: true}} {
		base := Resolve(turn)
		// both or neither of forward/backward contribute nothing
		both := turn
		both.Forward, both.Backward = true, true
		assert.Equal(t, base, Resolve(both), "turn %s", turn)
	}
	for _, drive := range []DirectionalInput{{}, {Forward: true}, {Backward: true}, {Forward: true, Backward: true}} {
		cmd := Resolve(drive)
		assert.Equal(t, cmd.Left, cmd.Right, "no turning for %s", drive)
		both := drive
		both.Left, both.Right = true, true
		assert.Equal(t, cmd, Resolve(both), "drive %s", drive)
	}
}

func TestResolveRange(t *testing.T) {
	for bits := 0; bits < 16; bits++ {
		in := DirectionalInput{bits&1 != 0, bits&2 != 0, bits&4 != 0, bits&8 != 0}
		cmd := Resolve(in)
		require.Equal(t, cmd, Resolve(in), "pure")
		require.True(t, cmd.Left >= -2 && cmd.Left <= 2, "left of %s", in)
		require.True(t, cmd.Right >= -2 && cmd.Right <= 2, "right of %s", in)
	}
}

func TestSampleInput(t *testing.T) {
	var queries []input.KeySet
	keys := input.KeyStateFunc(func(set input.KeySet) bool {
		queries = append(queries, set)
		return set.Contains(input.KeyUp) || set.Contains(input.KeyA)
	})
	b := input.NewBindings()
	in := SampleInput(keys, b)
	require.Equal(t, DirectionalInput{Forward: true, Left: true}, in)
	require.Equal(t, []input.KeySet{b.Forward, b.Backward, b.Left, b.Right}, queries)
	require.Equal(t, "FL", in.String())
}

func TestDriverHasNoMemory(t *testing.T) {
	kb := input.NewKeyboard()
	d := NewDriver(kb, input.NewBindings())
	loop := fx.NewLoop().Add(kb)
	loop.AddController(fx.PrLvSense, d)

	loop.PostMessage(&input.KeyEvent{Key: input.KeyW, Pressed: true, Source: "test"})
	require.NoError(t, loop.Step(context.Background(), frame))
	require.Equal(t, DriveCommand{1, 1}, d.Command())

	loop.PostMessage(&input.KeyEvent{Key: input.KeyW, Source: "test"})
	require.NoError(t, loop.Step(context.Background(), frame))
	require.Equal(t, DriveCommand{}, d.Command())
}
