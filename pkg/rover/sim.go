package rover

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/input"
	"github.com/robotalks/rover.go/pkg/physics"
)

// Simulation wires the rover into the loop. Every frame runs, in order:
// input sampling, motor control, the physics step and telemetry.
type Simulation struct {
	Engine   physics.Engine
	Gravity  mgl64.Vec3
	Rig      *Rig
	Driver   *Driver
	Motors   *MotorController
	Reporter *Reporter
}

// NewSimulation assembles the rover in the engine.
func (c *Config) NewSimulation(engine physics.Engine, keys input.KeyState) (*Simulation, error) {
	if engine == nil {
		return nil, physics.ErrNotInitialized
	}
	rig, err := c.Assemble(engine)
	if err != nil {
		return nil, err
	}
	driver := NewDriver(keys, &c.Keys)
	return &Simulation{
		Engine:   engine,
		Gravity:  c.Gravity,
		Rig:      rig,
		Driver:   driver,
		Motors:   c.NewMotorController(engine, rig, driver),
		Reporter: NewReporter(engine, rig, driver),
	}, nil
}

// AddToLoop implements LoopAdder.
func (s *Simulation) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, s.Driver)
	l.AddController(fx.PrLvControl, s.Motors)
	l.AddController(fx.PrLvAcuate, fx.ControlFunc(s.Step))
	l.AddController(fx.PrLvPostProc, s.Reporter)
}

// Step advances the world by the delta of the frame.
func (s *Simulation) Step(cc fx.ControlContext) error {
	err := s.Engine.Step(cc.Delta(), s.Gravity)
	if errors.Is(err, physics.ErrNotInitialized) {
		return fx.Fatal(err)
	}
	return err
}
