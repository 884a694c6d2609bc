package physics

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// StandardGravity is the realistic downward gravity.
var StandardGravity = mgl64.Vec3{0, -9.81, 0}

// Engine is the rigid-body solver consumed by the rover.
// Bodies and joints are owned by the Engine; handles stay valid for the
// life of the world since nothing is destroyed at runtime.
type Engine interface {
	// CreateBody creates a rigid body.
	CreateBody(BodyDesc) (BodyHandle, error)
	// CreateJoint constrains body b to body a.
	CreateJoint(a, b BodyHandle, spec JointSpec) (JointHandle, error)
	// SetJointMotorTarget sets the motor of a revolute joint.
	// ErrNotRevolute is returned for other joint kinds.
	SetJointMotorTarget(j JointHandle, velocity, factor float64) error
	// BodyTransform reads the current pose of a body.
	BodyTransform(BodyHandle) (Pose, error)
	// Step advances the world by dt.
	Step(dt time.Duration, gravity mgl64.Vec3) error
}

// Inspector is optionally implemented by an Engine to expose the
// descriptors of created bodies and joints.
type Inspector interface {
	Body(BodyHandle) (BodyDesc, bool)
	Joint(JointHandle) (a, b BodyHandle, spec JointSpec, ok bool)
	Motor(JointHandle) (Motor, bool)
	Sleeping(BodyHandle) bool
}

var (
	// ErrUnknownBody indicates the body handle is not known by the engine.
	ErrUnknownBody = errors.New("unknown body")
	// ErrUnknownJoint indicates the joint handle is not known by the engine.
	ErrUnknownJoint = errors.New("unknown joint")
	// ErrNotRevolute indicates a motor write to a joint which is not revolute.
	ErrNotRevolute = errors.New("joint is not revolute")
	// ErrNotInitialized indicates the engine is missing or not ready.
	ErrNotInitialized = errors.New("physics engine not initialized")
	// ErrInvalidStep indicates a non-positive timestep.
	ErrInvalidStep = errors.New("invalid timestep")
	// ErrUnsupported indicates a construct the engine can't simulate.
	ErrUnsupported = errors.New("unsupported")
)

// ConfigError reports invalid geometry or physical parameters.
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// WithPrefix qualifies the field name, e.g. "wheel.radius".
func (e *ConfigError) WithPrefix(prefix string) *ConfigError {
	return &ConfigError{Field: prefix + "." + e.Field, Value: e.Value, Reason: e.Reason}
}
