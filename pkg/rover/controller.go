package rover

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/physics"
)

// MotorController writes the wheel motor targets from the drive command.
// It only ever touches joint motors.
type MotorController struct {
	Engine physics.Engine
	Rig    *Rig
	Source CommandSource

	MaxSpeed  float64
	MaxFactor float64
	// Sign is the rotation direction for forward intent.
	Sign float64
}

// NewMotorController creates a MotorController.
func (c *Config) NewMotorController(engine physics.Engine, rig *Rig, source CommandSource) *MotorController {
	return &MotorController{
		Engine:    engine,
		Rig:       rig,
		Source:    source,
		MaxSpeed:  c.Motor.MaxSpeed,
		MaxFactor: c.Motor.Factor,
		Sign:      c.Motor.Sign,
	}
}

// Target computes the joint target velocity for an intent. No intent
// is a plain 0, never -0.
func (m *MotorController) Target(intent float64) float64 {
	if intent == 0 {
		return 0
	}
	return intent * m.Sign * m.MaxSpeed
}

// Apply writes the motor target of every wheel. A joint which isn't
// revolute is skipped. Other failures are collected and returned once
// all wheels have been written.
func (m *MotorController) Apply(cmd DriveCommand) error {
	if m.Engine == nil {
		return physics.ErrNotInitialized
	}
	var errs fx.AggregatedError
	for _, w := range m.Rig.Wheels {
		err := m.Engine.SetJointMotorTarget(w.Joint, m.Target(cmd.Intent(w.Side)), m.MaxFactor)
		switch {
		case err == nil:
		case errors.Is(err, physics.ErrNotRevolute):
			glog.Warningf("%s wheel joint %d skipped: %v", w.Side, w.Joint, err)
		case errors.Is(err, physics.ErrNotInitialized):
			return err
		default:
			errs.Add(fmt.Errorf("%s wheel: %w", w.Side, err))
		}
	}
	return errs.Aggregate()
}

// Control implements Controller.
func (m *MotorController) Control(fx.ControlContext) error {
	err := m.Apply(m.Source.Command())
	if errors.Is(err, physics.ErrNotInitialized) {
		return fx.Fatal(err)
	}
	return err
}
