package rover

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/rover.go/pkg/input"
	"github.com/robotalks/rover.go/pkg/physics"
)

// Config defines the rig geometry, motors and world parameters.
type Config struct {
	DropHeight float64        `yaml:"drop_height"`
	Chassis    ChassisConfig  `yaml:"chassis"`
	Wheel      WheelConfig    `yaml:"wheel"`
	Axle       AxleConfig     `yaml:"axle"`
	Ground     GroundConfig   `yaml:"ground"`
	Motor      MotorConfig    `yaml:"motor"`
	Gravity    mgl64.Vec3     `yaml:"gravity"`
	Keys       input.Bindings `yaml:"keys"`
	// AllowSleep lets the solver put the rig to sleep. Only meant to
	// demonstrate why it must stay off.
	AllowSleep bool `yaml:"allow_sleep"`
}

// ChassisConfig is the box body of the rover.
type ChassisConfig struct {
	HalfExtents mgl64.Vec3 `yaml:"half_extents"`
	Friction    float64    `yaml:"friction"`
	Restitution float64    `yaml:"restitution"`
}

// WheelConfig is shared by both wheels.
type WheelConfig struct {
	Radius      float64 `yaml:"radius"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

// AxleConfig places the wheel joints on the chassis. The right wheel is
// at +HalfWidth, the left one at -HalfWidth.
type AxleConfig struct {
	HalfWidth float64 `yaml:"half_width"`
	Offset    float64 `yaml:"offset"`
	Height    float64 `yaml:"height"`
}

// GroundConfig is the static plane.
type GroundConfig struct {
	HalfExtents mgl64.Vec3 `yaml:"half_extents"`
	Friction    float64    `yaml:"friction"`
	Restitution float64    `yaml:"restitution"`
}

// MotorConfig configures the wheel motors.
type MotorConfig struct {
	// MaxSpeed is the wheel angular velocity (rad/s) at full intent.
	MaxSpeed float64 `yaml:"max_speed"`
	// Factor bounds the motor torque, like a proportional gain.
	Factor float64 `yaml:"factor"`
	// Sign maps forward intent to the joint rotation direction. With
	// the axle along +X and forward being -Z, forward is a negative
	// rotation.
	Sign float64 `yaml:"sign"`
}

// Defaults
const (
	DefaultDropHeight float64 = 0.7
	DefaultMaxSpeed   float64 = 8
	DefaultFactor     float64 = 1
	DefaultSign       float64 = -1
)

var defaultConfig = Config{
	DropHeight: DefaultDropHeight,
	Chassis: ChassisConfig{
		HalfExtents: mgl64.Vec3{0.6, 0.25, 0.85},
	},
	Wheel: WheelConfig{
		Radius:   0.4,
		Friction: 1,
	},
	Axle: AxleConfig{
		HalfWidth: 0.4,
		Offset:    0.6,
		Height:    -0.1,
	},
	Ground: GroundConfig{
		HalfExtents: mgl64.Vec3{100, 0.1, 100},
		Friction:    0.5,
	},
	Motor: MotorConfig{
		MaxSpeed: DefaultMaxSpeed,
		Factor:   DefaultFactor,
		Sign:     DefaultSign,
	},
	Gravity: physics.StandardGravity,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.DropHeight, "drop-height", defaultConfig.DropHeight, "Initial height of the chassis.")
	flag.Var((*vec3Value)(&defaultConfig.Chassis.HalfExtents), "chassis-size", "Half extents x,y,z of the chassis.")
	flag.Float64Var(&defaultConfig.Wheel.Radius, "wheel-radius", defaultConfig.Wheel.Radius, "Wheel radius.")
	flag.Float64Var(&defaultConfig.Wheel.Friction, "wheel-friction", defaultConfig.Wheel.Friction, "Wheel friction.")
	flag.Float64Var(&defaultConfig.Axle.HalfWidth, "axle-half-width", defaultConfig.Axle.HalfWidth, "Lateral distance of each wheel from the chassis center.")
	flag.Float64Var(&defaultConfig.Axle.Offset, "axle-offset", defaultConfig.Axle.Offset, "Longitudinal offset of the axle.")
	flag.Float64Var(&defaultConfig.Axle.Height, "axle-height", defaultConfig.Axle.Height, "Vertical offset of the axle.")
	flag.Float64Var(&defaultConfig.Motor.MaxSpeed, "max-speed", defaultConfig.Motor.MaxSpeed, "Wheel angular velocity (rad/s) at full input.")
	flag.Float64Var(&defaultConfig.Motor.Factor, "motor-factor", defaultConfig.Motor.Factor, "Motor drive factor.")
	flag.Float64Var(&defaultConfig.Motor.Sign, "motor-sign", defaultConfig.Motor.Sign, "Direction (1 or -1) of wheel rotation for forward input.")
	flag.Var((*vec3Value)(&defaultConfig.Gravity), "gravity", "Gravity vector x,y,z.")
	flag.BoolVar(&defaultConfig.AllowSleep, "allow-sleep", defaultConfig.AllowSleep, "Allow the rover to fall asleep (broken on purpose).")
}

// Default gets default config. Keys are refreshed from the input
// bindings, which have their own flags.
func Default() *Config {
	defaultConfig.Keys = *input.NewBindings()
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Keys = *input.NewBindings()
	return &conf
}

// LoadConfigFile overlays a YAML file onto the config. Absent keys keep
// their current values.
func (c *Config) LoadConfigFile(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := c.LoadYAML(f); err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}
	return nil
}

// LoadYAML overlays YAML from a reader onto the config.
func (c *Config) LoadYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Validate rejects invalid geometry and physical parameters.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value float64
		check func(float64) bool
		want  string
	}{
		{"drop_height", c.DropHeight, finite, "must be finite"},
		{"chassis.half_extents.x", c.Chassis.HalfExtents.X(), positive, "must be positive"},
		{"chassis.half_extents.y", c.Chassis.HalfExtents.Y(), positive, "must be positive"},
		{"chassis.half_extents.z", c.Chassis.HalfExtents.Z(), positive, "must be positive"},
		{"chassis.friction", c.Chassis.Friction, nonNegative, "must not be negative"},
		{"chassis.restitution", c.Chassis.Restitution, nonNegative, "must not be negative"},
		{"wheel.radius", c.Wheel.Radius, positive, "must be positive"},
		{"wheel.friction", c.Wheel.Friction, nonNegative, "must not be negative"},
		{"wheel.restitution", c.Wheel.Restitution, nonNegative, "must not be negative"},
		{"axle.half_width", c.Axle.HalfWidth, positive, "must be positive"},
		{"axle.offset", c.Axle.Offset, finite, "must be finite"},
		{"axle.height", c.Axle.Height, finite, "must be finite"},
		{"ground.half_extents.x", c.Ground.HalfExtents.X(), positive, "must be positive"},
		{"ground.half_extents.y", c.Ground.HalfExtents.Y(), positive, "must be positive"},
		{"ground.half_extents.z", c.Ground.HalfExtents.Z(), positive, "must be positive"},
		{"ground.friction", c.Ground.Friction, nonNegative, "must not be negative"},
		{"ground.restitution", c.Ground.Restitution, nonNegative, "must not be negative"},
		{"motor.max_speed", c.Motor.MaxSpeed, nonNegative, "must not be negative"},
		{"motor.factor", c.Motor.Factor, nonNegative, "must not be negative"},
		{"motor.sign", c.Motor.Sign, unitSign, "must be 1 or -1"},
		{"gravity.x", c.Gravity.X(), finite, "must be finite"},
		{"gravity.y", c.Gravity.Y(), finite, "must be finite"},
		{"gravity.z", c.Gravity.Z(), finite, "must be finite"},
	}
	for _, ch := range checks {
		if !ch.check(ch.value) {
			return &physics.ConfigError{Field: ch.field, Value: ch.value, Reason: ch.want}
		}
	}
	return nil
}

func finite(v float64) bool      { return !math.IsNaN(v) && !math.IsInf(v, 0) }
func positive(v float64) bool    { return finite(v) && v > 0 }
func nonNegative(v float64) bool { return finite(v) && v >= 0 }
func unitSign(v float64) bool    { return v == 1 || v == -1 }

type vec3Value mgl64.Vec3

func (v *vec3Value) String() string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", v[0], v[1], v[2])
}

func (v *vec3Value) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expect x,y,z: %q", s)
	}
	var vec mgl64.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return err
		}
		vec[i] = f
	}
	*v = vec3Value(vec)
	return nil
}
