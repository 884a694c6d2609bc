package rover

import (
	"fmt"

	"github.com/robotalks/rover.go/pkg/physics"
)

// Side labels a wheel.
type Side string

// Sides.
const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Sides lists both sides in a stable order.
var Sides = []Side{SideLeft, SideRight}

// ChassisName is the telemetry name of the chassis.
const ChassisName = "chassis"

// BodyName is the telemetry name of the wheel on this side.
func (s Side) BodyName() string {
	return string(s) + "_wheel"
}

// Wheel tags a driven body with its side and the joint linking it to the
// chassis.
type Wheel struct {
	Side  Side
	Body  physics.BodyHandle
	Joint physics.JointHandle
	// Reading is reserved for wheel telemetry. Control never reads it.
	Reading float64
}

// TrackedBody is a body reported by telemetry.
type TrackedBody struct {
	Name string
	Body physics.BodyHandle
}

// Rig is the registry of the bodies making up the rover and its world.
// Handles stay valid because bodies are never destroyed while the world
// lives. Anything that starts destroying bodies must rebuild the Rig.
type Rig struct {
	Ground  physics.BodyHandle
	Chassis physics.BodyHandle
	Wheels  []*Wheel

	bySide map[Side]*Wheel
}

func newRig(ground, chassis physics.BodyHandle) *Rig {
	return &Rig{Ground: ground, Chassis: chassis, bySide: make(map[Side]*Wheel)}
}

func (r *Rig) addWheel(w *Wheel) error {
	if _, exists := r.bySide[w.Side]; exists {
		return fmt.Errorf("duplicated %s wheel", w.Side)
	}
	r.Wheels = append(r.Wheels, w)
	r.bySide[w.Side] = w
	return nil
}

// Wheel looks up the wheel on a side, nil if absent.
func (r *Rig) Wheel(side Side) *Wheel {
	return r.bySide[side]
}

// Tracked lists the dynamic bodies of the rover.
func (r *Rig) Tracked() []TrackedBody {
	bodies := []TrackedBody{{Name: ChassisName, Body: r.Chassis}}
	for _, w := range r.Wheels {
		bodies = append(bodies, TrackedBody{Name: w.Side.BodyName(), Body: w.Body})
	}
	return bodies
}
