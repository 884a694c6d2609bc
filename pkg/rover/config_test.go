package rover

import (
	"flag"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/rover.go/pkg/input"
	"github.com/robotalks/rover.go/pkg/physics"
)

func TestDefaultConfigValid(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.Validate())
	require.Equal(t, physics.StandardGravity, conf.Gravity)
	require.Equal(t, 0.0, conf.Chassis.Friction)
	require.Equal(t, 1.0, conf.Wheel.Friction)
	require.True(t, conf.Keys.Forward.Contains(input.KeyW))
}

func TestLoadYAML(t *testing.T) {
	conf := NewConfig()
	err := conf.LoadYAML(strings.NewReader(`
drop_height: 2
wheel:
  radius: 0.3
gravity: [0, -30, 0]
keys:
  forward: [I]
motor:
  sign: 1
`))
	require.NoError(t, err)
	require.Equal(t, 2.0, conf.DropHeight)
	require.Equal(t, 0.3, conf.Wheel.Radius)
	require.Equal(t, 1.0, conf.Wheel.Friction, "absent keys are kept")
	require.Equal(t, mgl64.Vec3{0, -30, 0}, conf.Gravity)
	require.Equal(t, input.KeySet{"I"}, conf.Keys.Forward)
	require.Equal(t, 1.0, conf.Motor.Sign)
	require.Equal(t, DefaultMaxSpeed, conf.Motor.MaxSpeed)

	require.Error(t, NewConfig().LoadYAML(strings.NewReader("wheels: {}")), "unknown field")
	require.ErrorIs(t, NewConfig().LoadYAML(strings.NewReader("keys:\n  forward: [w, Bogus]\n")), input.ErrUnknownKey)
	require.ErrorIs(t, NewConfig().LoadYAML(strings.NewReader("keys:\n  forward: w,Bogus\n")), input.ErrUnknownKey)
	require.NoError(t, NewConfig().LoadYAML(strings.NewReader("")))
}

func TestLoadYAMLKeyList(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.LoadYAML(strings.NewReader("keys:\n  forward: [w, up]\n")))
	require.Equal(t, input.KeySet{input.KeyW, input.KeyUp}, conf.Keys.Forward)

	kb := input.NewKeyboard()
	kb.Apply(input.KeyEvent{Key: input.KeyW, Pressed: true, Source: "test"})
	require.True(t, kb.IsAnyPressed(conf.Keys.Forward))
}

func TestDefaultFollowsBindingFlags(t *testing.T) {
	bindings := input.DefaultBindings()
	saved := bindings.Forward
	defer func() { bindings.Forward = saved }()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&bindings.Forward, "keys-forward", "")
	require.NoError(t, fs.Parse([]string{"-keys-forward", "I"}))
	require.Equal(t, input.KeySet{"I"}, Default().Keys.Forward)
	require.Equal(t, input.KeySet{"I"}, NewConfig().Keys.Forward)
}

func TestLoadConfigFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "rover.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("axle:\n  half_width: 0.5\n"), 0644))
	conf := NewConfig()
	require.NoError(t, conf.LoadConfigFile(fn))
	require.Equal(t, 0.5, conf.Axle.HalfWidth)
	require.Equal(t, mgl64.Vec3{-0.5, -0.1, 0.6}, conf.AxleAnchor(SideLeft))

	require.Error(t, conf.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestValidateNonFinite(t *testing.T) {
	conf := NewConfig()
	conf.Gravity[1] = math.NaN()
	var ce *physics.ConfigError
	require.ErrorAs(t, conf.Validate(), &ce)
	require.Equal(t, "gravity.y", ce.Field)

	conf = NewConfig()
	conf.DropHeight = math.Inf(1)
	require.ErrorAs(t, conf.Validate(), &ce)
	require.Equal(t, "drop_height", ce.Field)
}

func TestVec3Flag(t *testing.T) {
	var v mgl64.Vec3
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var((*vec3Value)(&v), "gravity", "")
	require.NoError(t, fs.Parse([]string{"-gravity", "0, -20,0.5"}))
	require.Equal(t, mgl64.Vec3{0, -20, 0.5}, v)
	require.Equal(t, "0,-20,0.5", (*vec3Value)(&v).String())
	require.Error(t, fs.Parse([]string{"-gravity", "1,2"}))
}
