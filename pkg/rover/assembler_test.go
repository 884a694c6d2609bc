package rover

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/rover.go/pkg/physics"
	"github.com/robotalks/rover.go/pkg/physics/simple"
)

func TestAssemble(t *testing.T) {
	conf := NewConfig()
	w := simple.New(simple.DefaultParams())
	rig, err := conf.Assemble(w)
	require.NoError(t, err)

	require.Len(t, rig.Wheels, 2)
	left, right := rig.Wheel(SideLeft), rig.Wheel(SideRight)
	require.NotNil(t, left)
	require.NotNil(t, right)
	require.NotEqual(t, left.Body, right.Body)
	require.NotEqual(t, left.Joint, right.Joint)

	anchors := make(map[Side][2]mgl64.Vec3)
	for _, wheel := range rig.Wheels {
		a, b, spec, ok := w.Joint(wheel.Joint)
		require.True(t, ok)
		require.Equal(t, rig.Chassis, a)
		require.Equal(t, wheel.Body, b)
		rev, ok := spec.(physics.RevoluteJointSpec)
		require.True(t, ok, "wheel joint must be revolute")
		require.Equal(t, physics.AxisX, rev.Axis)
		require.NotNil(t, rev.Motor)
		require.Equal(t, physics.Motor{Factor: conf.Motor.Factor}, *rev.Motor)
		anchors[wheel.Side] = [2]mgl64.Vec3{rev.AnchorA, rev.AnchorB}
	}
	// mirrored across the chassis centerline
	l, r := anchors[SideLeft][0], anchors[SideRight][0]
	require.Equal(t, -l.X(), r.X())
	require.Equal(t, l.Y(), r.Y())
	require.Equal(t, l.Z(), r.Z())
	require.Equal(t, mgl64.Vec3{0.4, -0.1, 0.6}, r)
	require.Equal(t, mgl64.Vec3{}, anchors[SideLeft][1])
	require.Equal(t, mgl64.Vec3{}, anchors[SideRight][1])

	ground, ok := w.Body(rig.Ground)
	require.True(t, ok)
	require.Equal(t, physics.Fixed, ground.Kind)

	chassis, ok := w.Body(rig.Chassis)
	require.True(t, ok)
	require.Equal(t, physics.Dynamic, chassis.Kind)
	require.Equal(t, physics.ShapeBox, chassis.Collider.Shape)
	require.Equal(t, 0.0, chassis.Friction)
	require.Equal(t, DefaultDropHeight, chassis.Pose.Altitude())

	groups := []physics.CollisionGroups{chassis.Groups}
	for _, wheel := range rig.Wheels {
		desc, ok := w.Body(wheel.Body)
		require.True(t, ok)
		require.Equal(t, physics.Dynamic, desc.Kind)
		require.Equal(t, physics.ShapeBall, desc.Collider.Shape)
		require.Equal(t, conf.Wheel.Radius, desc.Collider.Radius)
		require.Equal(t, 1.0, desc.Friction)
		groups = append(groups, desc.Groups)
	}
	// distinct groups which never interact with each other
	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			assert.NotEqual(t, groups[i].Memberships, groups[j].Memberships)
			assert.False(t, groups[i].Interacts(groups[j]))
		}
		assert.True(t, groups[i].Interacts(ground.Groups))
	}
}

func TestAssembleNeverSleeps(t *testing.T) {
	e := &fakeEngine{}
	_, err := NewConfig().Assemble(e)
	require.NoError(t, err)
	require.Len(t, e.bodies, 4)
	for _, desc := range e.bodies {
		if desc.Kind == physics.Dynamic {
			assert.Equal(t, physics.SleepNever, desc.Sleep, desc.Name)
		}
	}
}

func TestAssembleInvalidGeometry(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{name: "zero radius", modify: func(c *Config) { c.Wheel.Radius = 0 }, field: "wheel.radius"},
		{name: "negative radius", modify: func(c *Config) { c.Wheel.Radius = -0.4 }, field: "wheel.radius"},
		{name: "flat chassis", modify: func(c *Config) { c.Chassis.HalfExtents[1] = 0 }, field: "chassis.half_extents.y"},
		{name: "no axle", modify: func(c *Config) { c.Axle.HalfWidth = 0 }, field: "axle.half_width"},
		{name: "negative friction", modify: func(c *Config) { c.Wheel.Friction = -1 }, field: "wheel.friction"},
		{name: "negative factor", modify: func(c *Config) { c.Motor.Factor = -1 }, field: "motor.factor"},
		{name: "bad sign", modify: func(c *Config) { c.Motor.Sign = 0 }, field: "motor.sign"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.modify(conf)
			e := &fakeEngine{}
			_, err := conf.Assemble(e)
			var ce *physics.ConfigError
			require.True(t, errors.As(err, &ce), "got %v", err)
			require.Equal(t, tc.field, ce.Field)
			require.Empty(t, e.bodies, "nothing created")
		})
	}
}

func TestAssembleNoEngine(t *testing.T) {
	_, err := NewConfig().Assemble(nil)
	require.ErrorIs(t, err, physics.ErrNotInitialized)

	var w *simple.World
	_, err = NewConfig().Assemble(w)
	require.ErrorIs(t, err, physics.ErrNotInitialized)
}

func TestTracked(t *testing.T) {
	rig, err := NewConfig().Assemble(&fakeEngine{})
	require.NoError(t, err)
	var names []string
	for _, b := range rig.Tracked() {
		names = append(names, b.Name)
	}
	require.Equal(t, []string{"chassis", "right_wheel", "left_wheel"}, names)
	require.Nil(t, rig.Wheel("middle"))
}
