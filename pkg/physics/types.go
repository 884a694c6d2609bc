// Package physics defines the contract between the rover and a rigid-body
// solver. The solver owns all bodies and joints; callers only keep handles.
//
// Conventions: Y is up, a vehicle's forward direction is -Z in its local
// frame, and its right-hand side is +X.
package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyHandle references a rigid body owned by an Engine. Zero is invalid.
type BodyHandle uint32

// JointHandle references a joint owned by an Engine. Zero is invalid.
type JointHandle uint32

// IsValid reports whether the handle may reference a body.
func (h BodyHandle) IsValid() bool { return h != 0 }

// IsValid reports whether the handle may reference a joint.
func (h JointHandle) IsValid() bool { return h != 0 }

// BodyKind is the motion kind of a rigid body.
type BodyKind int

// Body kinds.
const (
	// Fixed bodies never move and never receive velocity or force writes.
	Fixed BodyKind = iota
	// Dynamic bodies are integrated by the solver.
	Dynamic
)

// String implements fmt.Stringer.
func (k BodyKind) String() string {
	switch k {
	case Fixed:
		return "fixed"
	case Dynamic:
		return "dynamic"
	}
	return fmt.Sprintf("BodyKind(%d)", int(k))
}

// SleepPolicy controls whether the solver may put a body to sleep.
type SleepPolicy int

// Sleep policies.
const (
	SleepAllowed SleepPolicy = iota
	// SleepNever is required for actuated bodies: a sleeping body
	// ignores new motor targets.
	SleepNever
)

// String implements fmt.Stringer.
func (p SleepPolicy) String() string {
	if p == SleepNever {
		return "never"
	}
	return "allowed"
}

// Axes of the local frame.
var (
	AxisX   = mgl64.Vec3{1, 0, 0}
	AxisY   = mgl64.Vec3{0, 1, 0}
	AxisZ   = mgl64.Vec3{0, 0, 1}
	Forward = mgl64.Vec3{0, 0, -1}
)

// Pose is the position and orientation of a body.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// PoseAt creates an unrotated pose.
func PoseAt(x, y, z float64) Pose {
	return Pose{Position: mgl64.Vec3{x, y, z}, Rotation: mgl64.QuatIdent()}
}

// Transform maps a point in the local frame into the world frame.
func (p Pose) Transform(local mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.rotation().Rotate(local))
}

// Direction rotates a local direction into the world frame.
func (p Pose) Direction(local mgl64.Vec3) mgl64.Vec3 {
	return p.rotation().Rotate(local)
}

// Altitude is the vertical coordinate.
func (p Pose) Altitude() float64 {
	return p.Position.Y()
}

// Heading is the yaw of the forward direction, counter-clockwise
// seen from above, zero when facing -Z.
func (p Pose) Heading() Angle {
	f := p.Direction(Forward)
	return AngleFromVector(-f.Z(), -f.X())
}

// rotation treats the zero quaternion as identity so that zero-valued
// poses stay usable.
func (p Pose) rotation() mgl64.Quat {
	if p.Rotation.W == 0 && p.Rotation.V.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return p.Rotation
}

// String implements fmt.Stringer.
func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f) heading %.1f°",
		p.Position.X(), p.Position.Y(), p.Position.Z(), p.Heading().Degrees())
}
