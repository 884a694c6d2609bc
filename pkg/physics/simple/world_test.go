package simple

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/rover.go/pkg/physics"
)

const frame = time.Second / 60

type testRig struct {
	ground, chassis, left, right physics.BodyHandle
	leftJoint, rightJoint        physics.JointHandle
}

func buildRig(t *testing.T, w *World, sleep physics.SleepPolicy) testRig {
	var r testRig
	var err error
	r.ground, err = w.CreateBody(physics.BodyDesc{
		Name:     "ground",
		Kind:     physics.Fixed,
		Pose:     physics.PoseAt(0, 0, 0),
		Collider: physics.Cuboid(100, 0.1, 100),
		Friction: 0.5,
		Groups:   physics.DefaultCollisionGroups,
	})
	require.NoError(t, err)
	r.chassis, err = w.CreateBody(physics.BodyDesc{
		Name:     "chassis",
		Kind:     physics.Dynamic,
		Pose:     physics.PoseAt(0, 0.7, 0),
		Collider: physics.Cuboid(0.6, 0.25, 0.85),
		Groups:   physics.NewCollisionGroups(physics.Group2, physics.Group2),
		Sleep:    sleep,
	})
	require.NoError(t, err)
	wheel := func(name string, x float64, g physics.Group) (physics.BodyHandle, physics.JointHandle) {
		b, err := w.CreateBody(physics.BodyDesc{
			Name:     name,
			Kind:     physics.Dynamic,
			Pose:     physics.PoseAt(x, 0.6, 0.6),
			Collider: physics.Ball(0.4),
			Friction: 1,
			Groups:   physics.NewCollisionGroups(g, g),
			Sleep:    sleep,
		})
		require.NoError(t, err)
		j, err := w.CreateJoint(r.chassis, b, physics.RevoluteJointSpec{
			Axis:    physics.AxisX,
			AnchorA: mgl64.Vec3{x, -0.1, 0.6},
			Motor:   &physics.Motor{Factor: 1},
		})
		require.NoError(t, err)
		return b, j
	}
	r.right, r.rightJoint = wheel("right", 0.4, physics.Group3)
	r.left, r.leftJoint = wheel("left", -0.4, physics.Group4)
	return r
}

func run(t *testing.T, w *World, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += frame {
		require.NoError(t, w.Step(frame, physics.StandardGravity))
	}
}

func pose(t *testing.T, w *World, h physics.BodyHandle) physics.Pose {
	p, err := w.BodyTransform(h)
	require.NoError(t, err)
	return p
}

func TestHandles(t *testing.T) {
	w := New(DefaultParams())
	r := buildRig(t, w, physics.SleepNever)
	require.Equal(t, physics.BodyHandle(1), r.ground)
	require.Equal(t, physics.JointHandle(1), r.rightJoint)

	_, err := w.BodyTransform(99)
	require.ErrorIs(t, err, physics.ErrUnknownBody)
	require.ErrorIs(t, w.SetJointMotorTarget(99, 1, 1), physics.ErrUnknownJoint)
	_, err = w.CreateJoint(r.chassis, 42, physics.FixedJointSpec{})
	require.ErrorIs(t, err, physics.ErrUnknownBody)
	_, err = w.CreateJoint(r.left, r.chassis, physics.FixedJointSpec{})
	require.ErrorIs(t, err, physics.ErrUnsupported)

	desc, ok := w.Body(r.left)
	require.True(t, ok)
	require.Equal(t, "left", desc.Name)
	a, b, spec, ok := w.Joint(r.leftJoint)
	require.True(t, ok)
	require.Equal(t, r.chassis, a)
	require.Equal(t, r.left, b)
	require.Equal(t, physics.JointRevolute, spec.Kind())
}

func TestWheelSnapsToAnchor(t *testing.T) {
	w := New(DefaultParams())
	r := buildRig(t, w, physics.SleepNever)
	p := pose(t, w, r.left)
	require.InDelta(t, -0.4, p.Position.X(), 1e-9)
	require.InDelta(t, 0.6, p.Position.Y(), 1e-9)
	require.InDelta(t, 0.6, p.Position.Z(), 1e-9)
}

func TestStepErrors(t *testing.T) {
	var w *World
	require.ErrorIs(t, w.Step(frame, physics.StandardGravity), physics.ErrNotInitialized)
	_, err := w.CreateBody(physics.BodyDesc{Collider: physics.Ball(1)})
	require.ErrorIs(t, err, physics.ErrNotInitialized)

	w = New(DefaultParams())
	require.ErrorIs(t, w.Step(0, physics.StandardGravity), physics.ErrInvalidStep)
	require.ErrorIs(t, w.Step(-frame, physics.StandardGravity), physics.ErrInvalidStep)
}

func TestInvalidBody(t *testing.T) {
	w := New(DefaultParams())
	_, err := w.CreateBody(physics.BodyDesc{Kind: physics.Dynamic, Collider: physics.Ball(0)})
	var ce *physics.ConfigError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "radius", ce.Field)
}

func TestSettlesOnGround(t *testing.T) {
	w := New(DefaultParams())
	r := buildRig(t, w, physics.SleepNever)
	run(t, w, 2*time.Second)

	chassis := pose(t, w, r.chassis)
	// ground top 0.1 + wheel radius 0.4 + axle offset 0.1
	assert.InDelta(t, 0.6, chassis.Altitude(), 1e-3)
	assert.InDelta(t, 0, chassis.Position.X(), 1e-9)
	assert.InDelta(t, 0, chassis.Position.Z(), 1e-9)
	assert.InDelta(t, 0.5, pose(t, w, r.left).Altitude(), 1e-3)
	assert.False(t, w.Sleeping(r.chassis))
}

func TestFixedBodyNeverMoves(t *testing.T) {
	w := New(DefaultParams())
	r := buildRig(t, w, physics.SleepNever)
	run(t, w, time.Second)
	require.Equal(t, physics.PoseAt(0, 0, 0), pose(t, w, r.ground))
	require.ErrorIs(t, w.SetVelocity(r.ground, mgl64.Vec3{1, 0, 0}), physics.ErrUnsupported)
}

func TestNegativeSpinDrivesForward(t *testing.T) {
	w := New(DefaultParams())
	r := buildRig(t, w, physics.SleepNever)
	run(t, w, time.Second)
	require.NoError(t, w.SetJointMotorTarget(r.leftJoint, -8, 1))
	require.NoError(t, w.SetJointMotorTarget(r.rightJoint, -8, 1))
	run(t, w, 2*time.Second)

	p := pose(t, w, r.chassis)
	assert.Less(t, p.Position.Z(), -3.0)
	assert.InDelta(t, 0, p.Position.X(), 1e-6)
	assert.InDelta(t, 0, p.Heading().Degrees(), 1e-6)
	assert.InDelta(t, -8, w.JointSpin(r.leftJoint), 1e-3)
}

func TestDifferentialTurn(t *testing.T) {
	testCases := []struct {
		name        string
		left, right float64
		positive    bool
	}{
		{name: "left turn", left: 8, right: -8, positive: true},
		{name: "right turn", left: -8, right: 8, positive: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := New(DefaultParams())
			r := buildRig(t, w, physics.SleepNever)
			run(t, w, time.Second)
			require.NoError(t, w.SetJointMotorTarget(r.leftJoint, tc.left, 1))
			require.NoError(t, w.SetJointMotorTarget(r.rightJoint, tc.right, 1))
			run(t, w, frame*10)

			heading := pose(t, w, r.chassis).Heading().Degrees()
			if tc.positive {
				assert.Greater(t, heading, 5.0)
			} else {
				assert.Less(t, heading, -5.0)
			}
		})
	}
}

func TestSleepingRigIgnoresMotors(t *testing.T) {
	w := New(DefaultParams())
	r := buildRig(t, w, physics.SleepAllowed)
	run(t, w, 3*time.Second)
	require.True(t, w.Sleeping(r.chassis))
	require.True(t, w.Sleeping(r.left))

	before := pose(t, w, r.chassis)
	require.NoError(t, w.SetJointMotorTarget(r.leftJoint, -8, 1))
	require.NoError(t, w.SetJointMotorTarget(r.rightJoint, -8, 1))
	run(t, w, time.Second)
	require.Equal(t, before, pose(t, w, r.chassis))

	w.WakeUp(r.chassis)
	run(t, w, time.Second)
	require.Less(t, pose(t, w, r.chassis).Position.Z(), before.Position.Z()-0.5)
}

func TestNeverSleep(t *testing.T) {
	w := New(DefaultParams())
	r := buildRig(t, w, physics.SleepNever)
	run(t, w, 3*time.Second)
	require.False(t, w.Sleeping(r.chassis))
}

func TestCollisionGroupsFilterGround(t *testing.T) {
	w := New(DefaultParams())
	_, err := w.CreateBody(physics.BodyDesc{
		Kind:     physics.Fixed,
		Collider: physics.Cuboid(10, 0.1, 10),
		Groups:   physics.NewCollisionGroups(physics.Group1, physics.Group1),
	})
	require.NoError(t, err)
	ball, err := w.CreateBody(physics.BodyDesc{
		Kind:     physics.Dynamic,
		Pose:     physics.PoseAt(0, 1, 0),
		Collider: physics.Ball(0.5),
		Groups:   physics.NewCollisionGroups(physics.Group2, physics.Group2),
		Sleep:    physics.SleepNever,
	})
	require.NoError(t, err)
	run(t, w, time.Second)
	require.Less(t, pose(t, w, ball).Altitude(), 0.0)
}

func TestNotRevolute(t *testing.T) {
	w := New(DefaultParams())
	a, err := w.CreateBody(physics.BodyDesc{Kind: physics.Dynamic, Collider: physics.Cuboid(1, 1, 1)})
	require.NoError(t, err)
	b, err := w.CreateBody(physics.BodyDesc{Kind: physics.Dynamic, Collider: physics.Ball(1)})
	require.NoError(t, err)
	j, err := w.CreateJoint(a, b, physics.FixedJointSpec{AnchorA: mgl64.Vec3{0, 2, 0}})
	require.NoError(t, err)
	require.ErrorIs(t, w.SetJointMotorTarget(j, 1, 1), physics.ErrNotRevolute)
	require.InDelta(t, 2, pose(t, w, b).Altitude(), 1e-9)
}

func TestPlanarFit(t *testing.T) {
	pos := []mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}}
	vel := []mgl64.Vec3{{0, 0, 1}, {0, 0, -1}}
	v, omega := planarFit(mgl64.Vec3{}, pos, vel)
	require.InDelta(t, 1, omega, 1e-12)
	require.InDelta(t, 0, v.Len(), 1e-12)

	v, omega = planarFit(mgl64.Vec3{0, 0, 1}, pos, []mgl64.Vec3{{0, 0, -2}, {0, 0, -2}})
	require.InDelta(t, 0, omega, 1e-12)
	require.InDelta(t, -2, v.Z(), 1e-12)
}
