package input

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	fx "github.com/robotalks/rover.go/pkg/framework"
)

func TestParseKeySet(t *testing.T) {
	testCases := []struct {
		in     string
		expect KeySet
		err    bool
	}{
		{in: "W,Up", expect: KeySet{KeyW, KeyUp}},
		{in: "w, up ,UP", expect: KeySet{KeyW, KeyUp}},
		{in: "remote.forward", expect: KeySet{RemoteForward}},
		{in: "", expect: nil},
		{in: "7", expect: KeySet{"7"}},
		{in: "W,PageUp", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			set, err := ParseKeySet(tc.in)
			if tc.err {
				require.ErrorIs(t, err, ErrUnknownKey)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, set)
		})
	}
}

func TestKeySetFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	b := NewBindings()
	fs.Var(&b.Forward, "keys-forward", "")
	require.NoError(t, fs.Parse([]string{"-keys-forward", "I,Up"}))
	require.Equal(t, KeySet{"I", KeyUp}, b.Forward)
	require.Equal(t, "I,Up", b.Forward.String())
	// defaults untouched
	require.True(t, DefaultBindings().Forward.Contains(KeyW))
}

func TestKeySetYAML(t *testing.T) {
	testCases := []struct {
		name   string
		doc    string
		expect KeySet
		err    bool
	}{
		{name: "string", doc: "keys: w,Up", expect: KeySet{KeyW, KeyUp}},
		{name: "list", doc: "keys: [w, up, W]", expect: KeySet{KeyW, KeyUp}},
		{name: "block list", doc: "keys:\n  - i\n  - joy.forward\n", expect: KeySet{"I", JoyForward}},
		{name: "unknown in string", doc: "keys: w,Bogus", err: true},
		{name: "unknown in list", doc: "keys: [w, Bogus]", err: true},
		{name: "nested list", doc: "keys: [[w]]", err: true},
		{name: "map", doc: "keys: {w: 1}", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var doc struct {
				Keys KeySet `yaml:"keys"`
			}
			err := yaml.Unmarshal([]byte(tc.doc), &doc)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, doc.Keys)
		})
	}

	t.Run("unknown key error", func(t *testing.T) {
		var set KeySet
		err := yaml.Unmarshal([]byte("[w, Bogus]"), &set)
		require.ErrorIs(t, err, ErrUnknownKey)
	})
}

func TestKeyboardSources(t *testing.T) {
	k := NewKeyboard()
	k.Apply(KeyEvent{Key: KeyW, Pressed: true, Source: "terminal"})
	k.Apply(KeyEvent{Key: KeyW, Pressed: true, Source: "remote"})
	require.True(t, k.IsAnyPressed(KeySet{KeyUp, KeyW}))
	require.False(t, k.IsAnyPressed(KeySet{KeyUp}))
	require.False(t, k.IsAnyPressed(nil))

	k.Apply(KeyEvent{Key: KeyW, Source: "terminal"})
	assert.True(t, k.IsPressed(KeyW), "still held by remote")
	k.ReleaseAll("remote")
	assert.False(t, k.IsPressed(KeyW))

	k.Apply(KeyEvent{Key: KeyA, Pressed: true, Source: "joystick"})
	k.Apply(KeyEvent{Key: KeyD, Pressed: true, Source: "terminal"})
	require.Equal(t, KeySet{KeyA, KeyD}, k.Pressed())
	k.ReleaseAll("")
	require.Empty(t, k.Pressed())

	// releasing a key never pressed is harmless
	k.Apply(KeyEvent{Key: KeyS, Source: "terminal"})
	require.Empty(t, k.Pressed())
}

func TestKeyboardInLoop(t *testing.T) {
	k := NewKeyboard()
	var seen []bool
	loop := fx.NewLoop().Add(k)
	loop.AddController(fx.PrLvSense, fx.ControlFunc(func(fx.ControlContext) error {
		seen = append(seen, k.IsAnyPressed(KeySet{KeyUp}))
		return nil
	}))

	loop.PostMessage(&KeyEvent{Key: KeyUp, Pressed: true, Source: "terminal"})
	require.NoError(t, loop.Step(context.Background(), time.Second/60))
	require.NoError(t, loop.Step(context.Background(), time.Second/60))
	loop.PostMessage(&ReleaseAll{Source: "terminal"})
	require.NoError(t, loop.Step(context.Background(), time.Second/60))
	require.Equal(t, []bool{true, true, false}, seen)
}

func TestKeyDecoder(t *testing.T) {
	var d keyDecoder
	var keys []Key
	for _, b := range []byte("w\x1b[A\x1b[Dx \x1bOB?") {
		if k, ok := d.feed(b); ok {
			keys = append(keys, k)
		}
	}
	require.Equal(t, []Key{KeyW, KeyUp, KeyLeft, "X", KeySpace, KeyDown}, keys)
}

func TestTerminalReaderStopsWithContext(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	term := &Terminal{In: r}
	ctx, cancel := context.WithCancel(context.Background())
	bytesCh := make(chan byte)
	done := make(chan struct{})
	go func() {
		term.readBytes(ctx, bytesCh)
		close(done)
	}()

	_, err = w.Write([]byte("wasd"))
	require.NoError(t, err)
	require.Equal(t, byte('w'), <-bytesCh)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after cancel")
	}
}
