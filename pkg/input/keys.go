// Package input tracks which keys are held down. Keys come from the local
// terminal, a joystick or a remote controller; every source maps onto the
// same Key names so that bindings can alias them.
package input

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Key names a physical or virtual key.
type Key string

// Keyboard keys.
const (
	KeyW     Key = "W"
	KeyA     Key = "A"
	KeyS     Key = "S"
	KeyD     Key = "D"
	KeyUp    Key = "Up"
	KeyDown  Key = "Down"
	KeyLeft  Key = "Left"
	KeyRight Key = "Right"
	KeySpace Key = "Space"
)

// Virtual keys generated by the joystick.
const (
	JoyForward  Key = "Joy.Forward"
	JoyBackward Key = "Joy.Backward"
	JoyLeft     Key = "Joy.Left"
	JoyRight    Key = "Joy.Right"
)

// Virtual keys generated by a remote controller.
const (
	RemoteForward  Key = "Remote.Forward"
	RemoteBackward Key = "Remote.Backward"
	RemoteLeft     Key = "Remote.Left"
	RemoteRight    Key = "Remote.Right"
)

// ErrUnknownKey indicates a key name can't be parsed.
var ErrUnknownKey = errors.New("unknown key")

var namedKeys = map[string]Key{}

func init() {
	for _, k := range []Key{
		KeyUp, KeyDown, KeyLeft, KeyRight, KeySpace,
		JoyForward, JoyBackward, JoyLeft, JoyRight,
		RemoteForward, RemoteBackward, RemoteLeft, RemoteRight,
	} {
		namedKeys[strings.ToLower(string(k))] = k
	}
}

// ParseKey parses a key name, case insensitive. Any single letter or
// digit is a key.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		c := s[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return Key(c), nil
		}
	}
	if k, ok := namedKeys[strings.ToLower(s)]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// KeySet is a set of aliased keys: any of them activates the intent.
type KeySet []Key

// ParseKeySet parses a comma separated list of keys, e.g. "W,Up".
func ParseKeySet(s string) (KeySet, error) {
	var set KeySet
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		k, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		if !set.Contains(k) {
			set = append(set, k)
		}
	}
	return set, nil
}

// Contains determines if k is in the set.
func (s KeySet) Contains(k Key) bool {
	for _, key := range s {
		if key == k {
			return true
		}
	}
	return false
}

// String implements flag.Value.
func (s KeySet) String() string {
	names := make([]string, len(s))
	for i, k := range s {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}

// Set implements flag.Value.
func (s *KeySet) Set(v string) error {
	set, err := ParseKeySet(v)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *KeySet) UnmarshalText(text []byte) error {
	return s.Set(string(text))
}

// UnmarshalYAML implements yaml.Unmarshaler. A set is either a comma
// separated string or a list of key names, parsed the same way.
func (s *KeySet) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if err := s.Set(value.Value); err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		return nil
	case yaml.SequenceNode:
		var set KeySet
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: key name expected", item.Line)
			}
			k, err := ParseKey(item.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			if !set.Contains(k) {
				set = append(set, k)
			}
		}
		*s = set
		return nil
	}
	return fmt.Errorf("line %d: key list expected", value.Line)
}

// MarshalText implements encoding.TextMarshaler.
func (s KeySet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// KeyState answers whether keys are currently held.
type KeyState interface {
	IsAnyPressed(KeySet) bool
}

// KeyStateFunc is the func form of KeyState.
type KeyStateFunc func(KeySet) bool

// IsAnyPressed implements KeyState.
func (f KeyStateFunc) IsAnyPressed(keys KeySet) bool {
	return f(keys)
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
