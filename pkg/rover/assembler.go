package rover

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/glog"

	"github.com/robotalks/rover.go/pkg/physics"
)

// Collision groups of the rover bodies. Each body is alone in its group
// so the wheels never touch the chassis or each other where the colliders
// overlap around the axle. The ground interacts with everything.
var (
	ChassisGroups    = physics.NewCollisionGroups(physics.Group2, physics.Group2)
	RightWheelGroups = physics.NewCollisionGroups(physics.Group3, physics.Group3)
	LeftWheelGroups  = physics.NewCollisionGroups(physics.Group4, physics.Group4)
)

// WheelGroups returns the collision groups of the wheel on a side.
func WheelGroups(side Side) physics.CollisionGroups {
	if side == SideLeft {
		return LeftWheelGroups
	}
	return RightWheelGroups
}

// AxleAnchor is the joint anchor of a wheel in the chassis frame.
func (c *Config) AxleAnchor(side Side) mgl64.Vec3 {
	x := c.Axle.HalfWidth
	if side == SideLeft {
		x = -x
	}
	return mgl64.Vec3{x, c.Axle.Height, c.Axle.Offset}
}

// Assemble creates the ground, the chassis and both wheels with their
// motorized joints. The configuration is validated before anything is
// created.
func (c *Config) Assemble(engine physics.Engine) (*Rig, error) {
	if engine == nil {
		return nil, physics.ErrNotInitialized
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	ground, err := engine.CreateBody(physics.BodyDesc{
		Name:        "ground",
		Kind:        physics.Fixed,
		Pose:        physics.PoseAt(0, 0, 0),
		Collider:    physics.Cuboid(c.Ground.HalfExtents.X(), c.Ground.HalfExtents.Y(), c.Ground.HalfExtents.Z()),
		Friction:    c.Ground.Friction,
		Restitution: c.Ground.Restitution,
		Groups:      physics.DefaultCollisionGroups,
	})
	if err != nil {
		return nil, fmt.Errorf("create ground: %w", err)
	}

	sleep := physics.SleepNever
	if c.AllowSleep {
		glog.Warning("rover may fall asleep and ignore input")
		sleep = physics.SleepAllowed
	}

	chassisPose := physics.PoseAt(0, c.DropHeight, 0)
	he := c.Chassis.HalfExtents
	chassis, err := engine.CreateBody(physics.BodyDesc{
		Name:        "chassis",
		Kind:        physics.Dynamic,
		Pose:        chassisPose,
		Collider:    physics.Cuboid(he.X(), he.Y(), he.Z()),
		Friction:    c.Chassis.Friction,
		Restitution: c.Chassis.Restitution,
		Groups:      ChassisGroups,
		Sleep:       sleep,
	})
	if err != nil {
		return nil, fmt.Errorf("create chassis: %w", err)
	}

	rig := newRig(ground, chassis)
	for _, side := range []Side{SideRight, SideLeft} {
		anchor := c.AxleAnchor(side)
		body, err := engine.CreateBody(physics.BodyDesc{
			Name: string(side) + "_wheel",
			Kind: physics.Dynamic,
			Pose: physics.Pose{
				Position: chassisPose.Transform(anchor),
				Rotation: mgl64.QuatIdent(),
			},
			Collider:    physics.Ball(c.Wheel.Radius),
			Friction:    c.Wheel.Friction,
			Restitution: c.Wheel.Restitution,
			Groups:      WheelGroups(side),
			Sleep:       sleep,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s wheel: %w", side, err)
		}
		joint, err := engine.CreateJoint(chassis, body, physics.RevoluteJointSpec{
			Axis:    physics.AxisX,
			AnchorA: anchor,
			Motor:   &physics.Motor{Factor: c.Motor.Factor},
		})
		if err != nil {
			return nil, fmt.Errorf("create %s wheel joint: %w", side, err)
		}
		if err := rig.addWheel(&Wheel{Side: side, Body: body, Joint: joint}); err != nil {
			return nil, err
		}
		glog.V(1).Infof("%s wheel: body %d joint %d anchor %v", side, body, joint, anchor)
	}
	glog.Infof("rover assembled: chassis %d at %v", chassis, chassisPose)
	return rig, nil
}
