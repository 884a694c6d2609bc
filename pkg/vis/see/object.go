package see

import (
	"github.com/robotalks/rover.go/pkg/rover"
)

// Object is the data model used to represents an object.
type Object map[string]interface{}

// Rect is object rect area.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Pos is a position.
type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Message is the message for see.
type Message struct {
	Action   string `json:"action"`
	Object   Object `json:"object,omitempty"`
	RemoveID string `json:"id,omitempty"`
}

// Actions
const (
	ActionReset  = "reset"
	ActionObject = "object"
	ActionRemove = "remove"
)

// Properties
const (
	PropID     = "id"
	PropType   = "type"
	PropRect   = "rect"
	PropOrigin = "origin"
	PropRadius = "radius"
	PropRotate = "rotate"
)

// NewObject creates Object.
func NewObject(typ, id string) Object {
	return Object{PropID: id, PropType: typ}
}

// Rc sets rect relative to the origin.
func (o Object) Rc(x, y, w, h float64) Object {
	o[PropRect] = &Rect{X: x, Y: y, W: w, H: h}
	return o
}

// At sets origin.
func (o Object) At(x, y float64) Object {
	o[PropOrigin] = &Pos{X: x, Y: y}
	return o
}

// Radius sets radius.
func (o Object) Radius(r float64) Object {
	o[PropRadius] = r
	return o
}

// Rotate sets rotate.
func (o Object) Rotate(deg float64) Object {
	o[PropRotate] = deg
	return o
}

// With sets a custom property.
func (o Object) With(key string, val interface{}) Object {
	o[key] = val
	return o
}

// Shape is the top-down outline of a body in meters.
type Shape struct {
	// HalfW and HalfL are half the width (X) and length (Z) of a box.
	HalfW, HalfL float64
	// Radius makes the shape a circle when non-zero.
	Radius float64
}

// Shapes maps tracked body names to shapes.
type Shapes map[string]Shape

// ShapesOf describes the rover bodies.
func ShapesOf(conf *rover.Config) Shapes {
	shapes := Shapes{
		rover.ChassisName: {HalfW: conf.Chassis.HalfExtents.X(), HalfL: conf.Chassis.HalfExtents.Z()},
	}
	for _, side := range rover.Sides {
		shapes[side.BodyName()] = Shape{Radius: conf.Wheel.Radius}
	}
	return shapes
}

// ObjectOf projects a body onto the ground plane: X stays X, Z becomes
// the screen Y, so forward (-Z) is up.
func (c *Config) ObjectOf(b rover.BodySample, shape Shape) Object {
	scale := c.Scale
	if scale <= 0 {
		scale = 1
	}
	p := b.Pose.Position
	// counter-clockwise on the ground is clockwise on a Y-down screen
	obj := NewObject("body", b.Name).
		At(p.X()*scale, p.Z()*scale).
		Rotate(-b.Pose.Heading().Degrees()).
		With("altitude", p.Y())
	if shape.Radius > 0 {
		return obj.With(PropType, "wheel").Radius(shape.Radius * scale)
	}
	w, l := shape.HalfW*scale, shape.HalfL*scale
	return obj.With(PropType, "chassis").Rc(-w, -l, 2*w, 2*l).Radius(max(w, l))
}
