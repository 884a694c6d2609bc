package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// JointKind is the type of a joint.
type JointKind int

// Joint kinds.
const (
	JointFixed JointKind = iota
	JointRevolute
)

// String implements fmt.Stringer.
func (k JointKind) String() string {
	if k == JointRevolute {
		return "revolute"
	}
	return "fixed"
}

// JointSpec describes a joint between body A (parent) and body B.
// Anchors are offsets in each body's own local frame.
type JointSpec interface {
	Kind() JointKind
	Anchors() (a, b mgl64.Vec3)
}

// Motor drives a revolute joint toward TargetVelocity (rad/s). Factor
// bounds the corrective torque, like a proportional gain.
type Motor struct {
	TargetVelocity float64
	Factor         float64
}

// RevoluteJointSpec permits a single rotation about Axis.
type RevoluteJointSpec struct {
	Axis    mgl64.Vec3
	AnchorA mgl64.Vec3
	AnchorB mgl64.Vec3
	// Motor is nil for a free spinning joint.
	Motor *Motor
}

// Kind implements JointSpec.
func (s RevoluteJointSpec) Kind() JointKind { return JointRevolute }

// Anchors implements JointSpec.
func (s RevoluteJointSpec) Anchors() (a, b mgl64.Vec3) { return s.AnchorA, s.AnchorB }

// Validate checks the axis.
func (s RevoluteJointSpec) Validate() error {
	if l := s.Axis.Len(); !(l > 1e-9) || math.IsInf(l, 0) {
		return &ConfigError{Field: "axis", Value: l, Reason: "must be a non-zero vector"}
	}
	if s.Motor != nil && (s.Motor.Factor < 0 || math.IsNaN(s.Motor.Factor)) {
		return &ConfigError{Field: "motor.factor", Value: s.Motor.Factor, Reason: "must not be negative"}
	}
	return nil
}

// FixedJointSpec welds body B to body A.
type FixedJointSpec struct {
	AnchorA mgl64.Vec3
	AnchorB mgl64.Vec3
}

// Kind implements JointSpec.
func (s FixedJointSpec) Kind() JointKind { return JointFixed }

// Anchors implements JointSpec.
func (s FixedJointSpec) Anchors() (a, b mgl64.Vec3) { return s.AnchorA, s.AnchorB }
