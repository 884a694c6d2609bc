package rover

import (
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/robotalks/rover.go/pkg/physics"
)

var errBroken = errors.New("broken joint")

type fakeJoint struct {
	a, b  physics.BodyHandle
	spec  physics.JointSpec
	motor physics.Motor
}

// fakeEngine records what is created and written.
type fakeEngine struct {
	bodies []physics.BodyDesc
	joints []*fakeJoint
	// jointErrs fails motor writes on specific joints.
	jointErrs map[physics.JointHandle]error
	writes    int
	steps     []time.Duration
}

func (e *fakeEngine) CreateBody(desc physics.BodyDesc) (physics.BodyHandle, error) {
	if err := desc.Validate(); err != nil {
		return 0, err
	}
	e.bodies = append(e.bodies, desc)
	return physics.BodyHandle(len(e.bodies)), nil
}

func (e *fakeEngine) CreateJoint(a, b physics.BodyHandle, spec physics.JointSpec) (physics.JointHandle, error) {
	j := &fakeJoint{a: a, b: b, spec: spec}
	if s, ok := spec.(physics.RevoluteJointSpec); ok && s.Motor != nil {
		j.motor = *s.Motor
	}
	e.joints = append(e.joints, j)
	return physics.JointHandle(len(e.joints)), nil
}

func (e *fakeEngine) SetJointMotorTarget(h physics.JointHandle, velocity, factor float64) error {
	if err := e.jointErrs[h]; err != nil {
		return err
	}
	if !h.IsValid() || int(h) > len(e.joints) {
		return physics.ErrUnknownJoint
	}
	e.writes++
	e.joints[h-1].motor = physics.Motor{TargetVelocity: velocity, Factor: factor}
	return nil
}

func (e *fakeEngine) BodyTransform(h physics.BodyHandle) (physics.Pose, error) {
	if !h.IsValid() || int(h) > len(e.bodies) {
		return physics.Pose{}, physics.ErrUnknownBody
	}
	return e.bodies[h-1].Pose, nil
}

func (e *fakeEngine) Step(dt time.Duration, gravity mgl64.Vec3) error {
	if dt <= 0 {
		return physics.ErrInvalidStep
	}
	e.steps = append(e.steps, dt)
	return nil
}

func (e *fakeEngine) motor(h physics.JointHandle) physics.Motor {
	return e.joints[h-1].motor
}
