package simple

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/robotalks/rover.go/pkg/physics"
)

type contact struct {
	b, ground *body
	depth     float64
}

func (w *World) stepRig(r *body, h time.Duration, gravity mgl64.Vec3) {
	secs := h.Seconds()
	rig := members(r)

	for _, b := range rig[1:] {
		if j := b.parent; driven(j) {
			inertia := momentOfInertia(b.desc.Collider, j.axis)
			alpha := 1 - math.Exp(-j.motor.Factor*secs/inertia)
			j.spin += (j.motor.TargetVelocity - j.spin) * alpha
		}
	}

	r.vel = r.vel.Add(gravity.Mul(secs)).Mul(math.Exp(-w.Params.LinearDamping * secs))
	r.pose.Position = r.pose.Position.Add(r.vel.Mul(secs))
	poseChildren(r)

	w.resolveContacts(r, rig)
	w.applyTraction(r, rig, secs)

	if r.yawRate != 0 {
		r.pose.Rotation = mgl64.QuatRotate(r.yawRate*secs, physics.AxisY).Mul(r.pose.Rotation).Normalize()
	}
	for _, b := range rig[1:] {
		if j := b.parent; j.spin != 0 {
			j.angle = math.Remainder(j.angle+j.spin*secs, 2*math.Pi)
		}
	}
	poseChildren(r)

	w.updateSleep(r, rig, h)
}

// resolveContacts lifts the rig out of the ground boxes it interacts with
// and marks the members touching the ground.
func (w *World) resolveContacts(r *body, rig []*body) {
	var contacts []contact
	for _, b := range rig {
		b.grounded, b.groundMu = false, 0
	}
	for _, g := range w.bodies {
		if g.desc.Kind != physics.Fixed || g.desc.Collider.Shape != physics.ShapeBox {
			continue
		}
		top := g.pose.Position.Y() + g.desc.Collider.HalfExtents.Y()
		for _, b := range rig {
			if !b.desc.Groups.Interacts(g.desc.Groups) || !over(g, b.pose.Position) {
				continue
			}
			depth := top - (b.pose.Position.Y() - halfHeight(b))
			if depth > -w.Params.ContactSlop {
				contacts = append(contacts, contact{b: b, ground: g, depth: depth})
			}
		}
	}
	if len(contacts) == 0 {
		return
	}

	deepest := contacts[0]
	for _, c := range contacts[1:] {
		if c.depth > deepest.depth {
			deepest = c
		}
	}
	lift := math.Max(deepest.depth, 0)
	if lift > 0 {
		r.pose.Position = r.pose.Position.Add(mgl64.Vec3{0, lift, 0})
		poseChildren(r)
	}
	for _, c := range contacts {
		if c.depth-lift > -w.Params.ContactSlop {
			c.b.grounded = true
			c.b.groundMu = math.Max(c.b.groundMu, (c.b.desc.Friction+c.ground.desc.Friction)/2)
		}
	}
	if vy := r.vel.Y(); vy < 0 {
		restitution := (deepest.b.desc.Restitution + deepest.ground.desc.Restitution) / 2
		if bounce := -vy * restitution; bounce > w.Params.SleepThreshold {
			r.vel[1] = bounce
		} else {
			r.vel[1] = 0
		}
	}
}

// applyTraction moves the rig the way its grounded wheels roll. Wheels
// roll without slipping; the planar rigid motion that best matches all
// wheel velocities is blended in according to friction. Other grounded
// bodies only drag.
func (w *World) applyTraction(r *body, rig []*body, secs float64) {
	var (
		pos, vel []mgl64.Vec3
		mu, drag float64
	)
	for _, b := range rig {
		if !b.grounded {
			continue
		}
		j := b.parent
		if j != nil && j.spec.Kind() == physics.JointRevolute && b.desc.Collider.Shape == physics.ShapeBall {
			if !driven(j) {
				// rolls freely
				continue
			}
			axis := j.a.pose.Direction(j.axis)
			pos = append(pos, b.pose.Position)
			vel = append(vel, axis.Mul(j.spin).Cross(mgl64.Vec3{0, b.desc.Collider.Radius, 0}))
			mu += b.groundMu
			continue
		}
		drag = math.Max(drag, b.groundMu)
	}

	if len(pos) > 0 {
		target, yawRate := planarFit(r.pose.Position, pos, vel)
		k := 1 - math.Exp(-mu/float64(len(pos))*w.Params.TractionRate*secs)
		r.vel[0] += (target.X() - r.vel.X()) * k
		r.vel[2] += (target.Z() - r.vel.Z()) * k
		r.yawRate += (yawRate - r.yawRate) * k
		return
	}
	if drag > 0 {
		f := math.Exp(-drag * w.Params.TractionRate * secs)
		r.vel[0] *= f
		r.vel[2] *= f
		r.yawRate *= f
	}
}

// planarFit finds the least-squares rigid motion in the XZ plane from
// point velocities, returning the velocity at origin and the yaw rate.
func planarFit(origin mgl64.Vec3, pos, vel []mgl64.Vec3) (mgl64.Vec3, float64) {
	n := float64(len(pos))
	var c, v0 mgl64.Vec3
	for i := range pos {
		c = c.Add(pos[i])
		v0 = v0.Add(vel[i])
	}
	c, v0 = c.Mul(1/n), v0.Mul(1/n)

	var num, den float64
	for i := range pos {
		dx, dz := pos[i].X()-c.X(), pos[i].Z()-c.Z()
		num += dz*vel[i].X() - dx*vel[i].Z()
		den += dx*dx + dz*dz
	}
	var omega float64
	if den > 1e-12 {
		omega = num / den
	}
	dx, dz := origin.X()-c.X(), origin.Z()-c.Z()
	return mgl64.Vec3{v0.X() + omega*dz, 0, v0.Z() - omega*dx}, omega
}

func (w *World) updateSleep(r *body, rig []*body, h time.Duration) {
	speed := r.vel.Len()
	for _, b := range rig {
		if b.desc.Sleep == physics.SleepNever {
			r.idleTime = 0
			return
		}
		speed = math.Max(speed, math.Abs(r.yawRate)*r.pose.Position.Sub(b.pose.Position).Len())
		if j := b.parent; j != nil {
			speed = math.Max(speed, math.Abs(j.spin)*boundingRadius(b.desc.Collider))
		}
	}
	if speed >= w.Params.SleepThreshold {
		r.idleTime = 0
		return
	}
	r.idleTime += h
	if r.idleTime >= w.Params.SleepTime {
		r.sleeping = true
		r.vel, r.yawRate = mgl64.Vec3{}, 0
		for _, b := range rig[1:] {
			b.parent.spin = 0
		}
	}
}

func driven(j *joint) bool {
	return j != nil && j.spec.Kind() == physics.JointRevolute && j.motor.Factor > 0
}

// over reports whether p is above the footprint of the ground box g.
func over(g *body, p mgl64.Vec3) bool {
	he := g.desc.Collider.HalfExtents
	return math.Abs(p.X()-g.pose.Position.X()) <= he.X() &&
		math.Abs(p.Z()-g.pose.Position.Z()) <= he.Z()
}

func halfHeight(b *body) float64 {
	c := b.desc.Collider
	if c.Shape == physics.ShapeBall {
		return c.Radius
	}
	rot := b.pose.Rotation
	return math.Abs(rot.Rotate(physics.AxisX).Y())*c.HalfExtents.X() +
		math.Abs(rot.Rotate(physics.AxisY).Y())*c.HalfExtents.Y() +
		math.Abs(rot.Rotate(physics.AxisZ).Y())*c.HalfExtents.Z()
}

func boundingRadius(c physics.Collider) float64 {
	if c.Shape == physics.ShapeBall {
		return c.Radius
	}
	return c.HalfExtents.Len()
}

// momentOfInertia about a unit axis through the center at unit density.
func momentOfInertia(c physics.Collider, axis mgl64.Vec3) float64 {
	m := c.Volume()
	if c.Shape == physics.ShapeBall {
		return 0.4 * m * c.Radius * c.Radius
	}
	hx, hy, hz := c.HalfExtents.X(), c.HalfExtents.Y(), c.HalfExtents.Z()
	ix, iy, iz := m/3*(hy*hy+hz*hz), m/3*(hx*hx+hz*hz), m/3*(hx*hx+hy*hy)
	return axis.X()*axis.X()*ix + axis.Y()*axis.Y()*iy + axis.Z()*axis.Z()*iz
}
