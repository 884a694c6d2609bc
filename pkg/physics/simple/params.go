package simple

import (
	"flag"
	"time"
)

// Params tunes the solver.
type Params struct {
	// Substep is the largest internal integration step.
	Substep time.Duration
	// LinearDamping is the fraction of velocity lost per second.
	LinearDamping float64
	// TractionRate is how fast (1/s) grounded contacts pull the rig
	// toward the motion its wheels impose, scaled by friction.
	TractionRate float64
	// ContactSlop is the distance under which a body counts as touching.
	ContactSlop float64
	// SleepThreshold is the speed under which a rig is considered idle.
	SleepThreshold float64
	// SleepTime is how long a rig must stay idle before it sleeps.
	SleepTime time.Duration
}

var defaultParams = Params{
	Substep:        time.Second / 120,
	LinearDamping:  0.05,
	TractionRate:   40,
	ContactSlop:    1e-3,
	SleepThreshold: 0.05,
	SleepTime:      time.Second,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultParams.Substep, "physics-substep", defaultParams.Substep, "Maximum internal integration step.")
	flag.Float64Var(&defaultParams.LinearDamping, "physics-damping", defaultParams.LinearDamping, "Linear damping (1/s).")
	flag.Float64Var(&defaultParams.TractionRate, "physics-traction", defaultParams.TractionRate, "Traction rate (1/s) at friction 1.")
	flag.Float64Var(&defaultParams.SleepThreshold, "physics-sleep-threshold", defaultParams.SleepThreshold, "Speed (m/s) under which a body may fall asleep.")
	flag.DurationVar(&defaultParams.SleepTime, "physics-sleep-time", defaultParams.SleepTime, "Idle time before a body falls asleep.")
}

// DefaultParams returns the default parameters.
func DefaultParams() Params {
	return defaultParams
}

// NewWorld creates a World using the parameters.
func (p Params) NewWorld() *World {
	return New(p)
}
