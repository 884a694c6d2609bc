package input

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
)

// KeyEvent reports a key changing state on one source.
type KeyEvent struct {
	Key     Key
	Pressed bool
	// Source identifies the device, e.g. "terminal", "joystick".
	Source string
}

// NewMessage implements fx.Message.
func (m *KeyEvent) NewMessage() fx.Message { return &KeyEvent{} }

// ReleaseAll releases every key held by Source, e.g. when the device is
// lost. An empty Source releases all keys.
type ReleaseAll struct {
	Source string
}

// NewMessage implements fx.Message.
func (m *ReleaseAll) NewMessage() fx.Message { return &ReleaseAll{} }

// Keyboard is the pressed state of all keys. A key is held while any
// source holds it. It consumes KeyEvent and ReleaseAll messages before
// anything samples it, so all readers within a frame see the same state.
type Keyboard struct {
	Verbose bool

	pressed map[Key]map[string]struct{}
}

// NewKeyboard creates a Keyboard.
func NewKeyboard() *Keyboard {
	return &Keyboard{pressed: make(map[Key]map[string]struct{})}
}

// AddToLoop implements LoopAdder.
func (k *Keyboard) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvInput, k)
}

// Control implements Controller.
func (k *Keyboard) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *KeyEvent:
			mctx.MessageTaken()
			k.Apply(*msg)
		case *ReleaseAll:
			mctx.MessageTaken()
			k.ReleaseAll(msg.Source)
		}
	}))
	return nil
}

// Apply updates the state with an event.
func (k *Keyboard) Apply(ev KeyEvent) {
	if k.pressed == nil {
		k.pressed = make(map[Key]map[string]struct{})
	}
	sources := k.pressed[ev.Key]
	if ev.Pressed {
		if sources == nil {
			sources = make(map[string]struct{})
			k.pressed[ev.Key] = sources
		}
		sources[ev.Source] = struct{}{}
	} else if sources != nil {
		delete(sources, ev.Source)
		if len(sources) == 0 {
			delete(k.pressed, ev.Key)
		}
	}
	if k.Verbose {
		glog.Infof("key %s pressed=%v source=%q", ev.Key, ev.Pressed, ev.Source)
	}
}

// ReleaseAll releases every key held by source.
func (k *Keyboard) ReleaseAll(source string) {
	for key, sources := range k.pressed {
		if source == "" {
			delete(k.pressed, key)
			continue
		}
		delete(sources, source)
		if len(sources) == 0 {
			delete(k.pressed, key)
		}
	}
}

// IsPressed determines if a key is held.
func (k *Keyboard) IsPressed(key Key) bool {
	_, ok := k.pressed[key]
	return ok
}

// IsAnyPressed implements KeyState.
func (k *Keyboard) IsAnyPressed(keys KeySet) bool {
	for _, key := range keys {
		if k.IsPressed(key) {
			return true
		}
	}
	return false
}

// Pressed lists the held keys in order.
func (k *Keyboard) Pressed() KeySet {
	keys := make(KeySet, 0, len(k.pressed))
	for key := range k.pressed {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}
