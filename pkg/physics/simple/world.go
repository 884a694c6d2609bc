// Package simple is a small deterministic rigid-body solver implementing
// physics.Engine. It supports rigs of bodies linked by joints resting on
// fixed ground boxes, which is all a wheeled vehicle on flat ground needs.
// Bodies linked by joints never collide with each other.
package simple

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/robotalks/rover.go/pkg/physics"
)

var (
	_ physics.Engine    = (*World)(nil)
	_ physics.Inspector = (*World)(nil)
)

// World implements physics.Engine and physics.Inspector.
type World struct {
	Params Params

	bodies []*body
	joints []*joint
}

type body struct {
	handle physics.BodyHandle
	desc   physics.BodyDesc
	pose   physics.Pose

	// root only
	vel      mgl64.Vec3
	yawRate  float64
	idleTime time.Duration
	sleeping bool

	parent   *joint
	children []*joint

	// set during a step
	grounded bool
	groundMu float64
}

type joint struct {
	handle physics.JointHandle
	a, b   *body
	spec   physics.JointSpec
	axis   mgl64.Vec3 // unit, in the frame of a
	motor  physics.Motor
	spin   float64 // rad/s about axis
	angle  float64
}

// New creates an empty world.
func New(params Params) *World {
	return &World{Params: params}
}

// CreateBody implements physics.Engine.
func (w *World) CreateBody(desc physics.BodyDesc) (physics.BodyHandle, error) {
	if w == nil {
		return 0, physics.ErrNotInitialized
	}
	if err := desc.Validate(); err != nil {
		return 0, err
	}
	if desc.Pose.Rotation.Len() == 0 {
		desc.Pose.Rotation = mgl64.QuatIdent()
	} else {
		desc.Pose.Rotation = desc.Pose.Rotation.Normalize()
	}
	b := &body{
		handle: physics.BodyHandle(len(w.bodies) + 1),
		desc:   desc,
		pose:   desc.Pose,
	}
	w.bodies = append(w.bodies, b)
	return b.handle, nil
}

// CreateJoint implements physics.Engine. Body b is snapped onto the
// anchor of body a immediately.
func (w *World) CreateJoint(a, b physics.BodyHandle, spec physics.JointSpec) (physics.JointHandle, error) {
	if w == nil {
		return 0, physics.ErrNotInitialized
	}
	ba, bb := w.body(a), w.body(b)
	if ba == nil {
		return 0, fmt.Errorf("joint body a %d: %w", a, physics.ErrUnknownBody)
	}
	if bb == nil {
		return 0, fmt.Errorf("joint body b %d: %w", b, physics.ErrUnknownBody)
	}
	if ba == bb || root(ba) == bb {
		return 0, fmt.Errorf("joint between %d and %d forms a loop: %w", a, b, physics.ErrUnsupported)
	}
	if bb.parent != nil {
		return 0, fmt.Errorf("body %d already has a parent joint: %w", b, physics.ErrUnsupported)
	}
	if bb.desc.Kind == physics.Fixed {
		return 0, fmt.Errorf("fixed body %d can't be carried by a joint: %w", b, physics.ErrUnsupported)
	}
	j := &joint{
		handle: physics.JointHandle(len(w.joints) + 1),
		a:      ba,
		b:      bb,
		spec:   spec,
	}
	switch s := spec.(type) {
	case physics.RevoluteJointSpec:
		if err := s.Validate(); err != nil {
			return 0, err
		}
		j.axis = s.Axis.Normalize()
		if s.Motor != nil {
			j.motor = *s.Motor
		}
	case physics.FixedJointSpec:
	default:
		return 0, fmt.Errorf("joint kind %T: %w", spec, physics.ErrUnsupported)
	}
	w.joints = append(w.joints, j)
	bb.parent = j
	ba.children = append(ba.children, j)
	bb.vel, bb.yawRate, bb.sleeping = mgl64.Vec3{}, 0, false
	poseChildren(ba)
	return j.handle, nil
}

// SetJointMotorTarget implements physics.Engine. A sleeping rig keeps the
// new target but doesn't act on it until woken up.
func (w *World) SetJointMotorTarget(h physics.JointHandle, velocity, factor float64) error {
	if w == nil {
		return physics.ErrNotInitialized
	}
	j := w.joint(h)
	if j == nil {
		return fmt.Errorf("joint %d: %w", h, physics.ErrUnknownJoint)
	}
	if j.spec.Kind() != physics.JointRevolute {
		return fmt.Errorf("joint %d (%s): %w", h, j.spec.Kind(), physics.ErrNotRevolute)
	}
	if math.IsNaN(velocity) || math.IsNaN(factor) || factor < 0 {
		return &physics.ConfigError{Field: "motor.factor", Value: factor, Reason: "must be a non-negative number"}
	}
	j.motor = physics.Motor{TargetVelocity: velocity, Factor: factor}
	return nil
}

// BodyTransform implements physics.Engine.
func (w *World) BodyTransform(h physics.BodyHandle) (physics.Pose, error) {
	if w == nil {
		return physics.Pose{}, physics.ErrNotInitialized
	}
	b := w.body(h)
	if b == nil {
		return physics.Pose{}, fmt.Errorf("body %d: %w", h, physics.ErrUnknownBody)
	}
	return b.pose, nil
}

// Body implements physics.Inspector.
func (w *World) Body(h physics.BodyHandle) (physics.BodyDesc, bool) {
	if b := w.body(h); b != nil {
		return b.desc, true
	}
	return physics.BodyDesc{}, false
}

// Joint implements physics.Inspector.
func (w *World) Joint(h physics.JointHandle) (a, b physics.BodyHandle, spec physics.JointSpec, ok bool) {
	if j := w.joint(h); j != nil {
		return j.a.handle, j.b.handle, j.spec, true
	}
	return 0, 0, nil, false
}

// Motor implements physics.Inspector, returning the latest motor target.
func (w *World) Motor(h physics.JointHandle) (physics.Motor, bool) {
	if j := w.joint(h); j != nil && j.spec.Kind() == physics.JointRevolute {
		return j.motor, true
	}
	return physics.Motor{}, false
}

// Sleeping implements physics.Inspector.
func (w *World) Sleeping(h physics.BodyHandle) bool {
	if b := w.body(h); b != nil {
		return root(b).sleeping
	}
	return false
}

// WakeUp wakes the rig containing the body.
func (w *World) WakeUp(h physics.BodyHandle) {
	if b := w.body(h); b != nil {
		r := root(b)
		r.sleeping, r.idleTime = false, 0
	}
}

// SetVelocity overrides the linear velocity of the rig containing a
// dynamic body. It's meant for scenarios and tests.
func (w *World) SetVelocity(h physics.BodyHandle, vel mgl64.Vec3) error {
	b := w.body(h)
	if b == nil {
		return fmt.Errorf("body %d: %w", h, physics.ErrUnknownBody)
	}
	r := root(b)
	if r.desc.Kind == physics.Fixed {
		return fmt.Errorf("body %d is fixed: %w", h, physics.ErrUnsupported)
	}
	r.vel = vel
	return nil
}

// JointSpin returns the angular velocity of a revolute joint.
func (w *World) JointSpin(h physics.JointHandle) float64 {
	if j := w.joint(h); j != nil {
		return j.spin
	}
	return 0
}

// Step implements physics.Engine.
func (w *World) Step(dt time.Duration, gravity mgl64.Vec3) error {
	if w == nil {
		return physics.ErrNotInitialized
	}
	if dt <= 0 {
		return fmt.Errorf("step %v: %w", dt, physics.ErrInvalidStep)
	}
	substep := w.Params.Substep
	if substep <= 0 {
		substep = DefaultParams().Substep
	}
	n := int((dt + substep - 1) / substep)
	h := dt / time.Duration(n)
	for i := 0; i < n; i++ {
		for _, b := range w.bodies {
			if b.parent == nil && b.desc.Kind == physics.Dynamic && !b.sleeping {
				w.stepRig(b, h, gravity)
			}
		}
	}
	return nil
}

func (w *World) body(h physics.BodyHandle) *body {
	if w == nil || !h.IsValid() || int(h) > len(w.bodies) {
		return nil
	}
	return w.bodies[h-1]
}

func (w *World) joint(h physics.JointHandle) *joint {
	if w == nil || !h.IsValid() || int(h) > len(w.joints) {
		return nil
	}
	return w.joints[h-1]
}

func root(b *body) *body {
	for b.parent != nil {
		b = b.parent.a
	}
	return b
}

// members lists the root followed by every body it carries.
func members(r *body) []*body {
	list := []*body{r}
	for i := 0; i < len(list); i++ {
		for _, j := range list[i].children {
			list = append(list, j.b)
		}
	}
	return list
}

func poseChildren(b *body) {
	for _, j := range b.children {
		anchorA, anchorB := j.spec.Anchors()
		rot := b.pose.Rotation
		if j.spec.Kind() == physics.JointRevolute {
			rot = rot.Mul(mgl64.QuatRotate(j.angle, j.axis)).Normalize()
		}
		j.b.pose.Rotation = rot
		j.b.pose.Position = b.pose.Transform(anchorA).Sub(rot.Rotate(anchorB))
		poseChildren(j.b)
	}
}
