package input

import "flag"

// Bindings maps each directional intent to the keys that activate it.
type Bindings struct {
	Forward  KeySet `yaml:"forward"`
	Backward KeySet `yaml:"backward"`
	Left     KeySet `yaml:"left"`
	Right    KeySet `yaml:"right"`
}

var defaultBindings = Bindings{
	Forward:  KeySet{KeyW, KeyUp, JoyForward, RemoteForward},
	Backward: KeySet{KeyS, KeyDown, JoyBackward, RemoteBackward},
	Left:     KeySet{KeyA, KeyLeft, JoyLeft, RemoteLeft},
	Right:    KeySet{KeyD, KeyRight, JoyRight, RemoteRight},
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Var(&defaultBindings.Forward, "keys-forward", "Keys driving forward.")
	flag.Var(&defaultBindings.Backward, "keys-backward", "Keys driving backward.")
	flag.Var(&defaultBindings.Left, "keys-left", "Keys turning left.")
	flag.Var(&defaultBindings.Right, "keys-right", "Keys turning right.")
}

// DefaultBindings gets the default bindings.
func DefaultBindings() *Bindings {
	return &defaultBindings
}

// NewBindings creates bindings from defaults.
func NewBindings() *Bindings {
	b := defaultBindings.clone()
	return &b
}

func (b Bindings) clone() Bindings {
	cp := func(s KeySet) KeySet { return append(KeySet(nil), s...) }
	return Bindings{
		Forward:  cp(b.Forward),
		Backward: cp(b.Backward),
		Left:     cp(b.Left),
		Right:    cp(b.Right),
	}
}
