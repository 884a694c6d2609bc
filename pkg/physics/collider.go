package physics

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind is the kind of a collision shape.
type ShapeKind int

// Shapes.
const (
	ShapeBox ShapeKind = iota
	ShapeBall
)

// Collider is the collision shape of a body, centered at its origin.
type Collider struct {
	Shape       ShapeKind
	HalfExtents mgl64.Vec3 // ShapeBox
	Radius      float64    // ShapeBall
}

// Cuboid creates a box collider from half extents.
func Cuboid(hx, hy, hz float64) Collider {
	return Collider{Shape: ShapeBox, HalfExtents: mgl64.Vec3{hx, hy, hz}}
}

// Ball creates a sphere collider.
func Ball(radius float64) Collider {
	return Collider{Shape: ShapeBall, Radius: radius}
}

// Validate rejects non-positive or non-finite geometry.
func (c Collider) Validate() error {
	switch c.Shape {
	case ShapeBox:
		for i, name := range []string{"half_extents.x", "half_extents.y", "half_extents.z"} {
			if !positive(c.HalfExtents[i]) {
				return &ConfigError{Field: name, Value: c.HalfExtents[i], Reason: "must be positive"}
			}
		}
	case ShapeBall:
		if !positive(c.Radius) {
			return &ConfigError{Field: "radius", Value: c.Radius, Reason: "must be positive"}
		}
	default:
		return &ConfigError{Field: "shape", Value: float64(c.Shape), Reason: "unknown shape"}
	}
	return nil
}

// Volume of the shape.
func (c Collider) Volume() float64 {
	if c.Shape == ShapeBall {
		return 4.0 / 3.0 * math.Pi * c.Radius * c.Radius * c.Radius
	}
	return 8 * c.HalfExtents.X() * c.HalfExtents.Y() * c.HalfExtents.Z()
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Group is a bitmask of collision groups.
type Group uint32

// Collision groups.
const (
	Group1 Group = 1 << iota
	Group2
	Group3
	Group4
	Group5
	Group6
	Group7
	Group8

	GroupNone Group = 0
	GroupAll  Group = math.MaxUint32
)

// CollisionGroups decides which bodies may touch: a pair interacts only
// when each one's memberships intersect the other's filter.
type CollisionGroups struct {
	Memberships Group
	Filter      Group
}

// DefaultCollisionGroups interacts with everything.
var DefaultCollisionGroups = CollisionGroups{Memberships: GroupAll, Filter: GroupAll}

// NewCollisionGroups creates CollisionGroups.
func NewCollisionGroups(memberships, filter Group) CollisionGroups {
	return CollisionGroups{Memberships: memberships, Filter: filter}
}

// Interacts determines if two bodies may collide.
func (g CollisionGroups) Interacts(other CollisionGroups) bool {
	return g.Memberships&other.Filter != 0 && other.Memberships&g.Filter != 0
}

// BodyDesc describes a body to be created.
type BodyDesc struct {
	Name        string
	Kind        BodyKind
	Pose        Pose
	Collider    Collider
	Friction    float64
	Restitution float64
	Groups      CollisionGroups
	Sleep       SleepPolicy
}

// Validate checks the physical parameters.
func (d *BodyDesc) Validate() error {
	if err := d.validate(); err != nil {
		if d.Name != "" {
			return err.WithPrefix(d.Name)
		}
		return err
	}
	return nil
}

func (d *BodyDesc) validate() *ConfigError {
	if err := d.Collider.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			return ce
		}
		return &ConfigError{Field: "collider", Reason: err.Error()}
	}
	if d.Friction < 0 || math.IsNaN(d.Friction) {
		return &ConfigError{Field: "friction", Value: d.Friction, Reason: "must not be negative"}
	}
	if d.Restitution < 0 || math.IsNaN(d.Restitution) {
		return &ConfigError{Field: "restitution", Value: d.Restitution, Reason: "must not be negative"}
	}
	for i := 0; i < 3; i++ {
		if v := d.Pose.Position[i]; math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigError{Field: "position", Value: v, Reason: "must be finite"}
		}
	}
	return nil
}
