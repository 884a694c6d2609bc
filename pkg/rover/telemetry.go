package rover

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/physics"
)

// BodySample is the pose of a tracked body after a step.
type BodySample struct {
	Name string
	Body physics.BodyHandle
	Pose physics.Pose
	// Sleeping is only known when the engine is a physics.Inspector.
	Sleeping bool
}

// Altitude is the vertical coordinate of the body.
func (s BodySample) Altitude() float64 {
	return s.Pose.Altitude()
}

// Snapshot is the telemetry of one frame.
type Snapshot struct {
	Frame   uint64
	Time    time.Time
	Delta   time.Duration
	Input   DirectionalInput
	Command DriveCommand
	Bodies  []BodySample
}

// Body finds a sample by name.
func (s *Snapshot) Body(name string) (BodySample, bool) {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodySample{}, false
}

// Sink consumes telemetry. It must not block the loop.
type Sink interface {
	Report(*Snapshot) error
}

// SinkFunc is the func form of Sink.
type SinkFunc func(*Snapshot) error

// Report implements Sink.
func (f SinkFunc) Report(s *Snapshot) error {
	return f(s)
}

// Reporter reads the poses of tracked bodies once the world has been
// stepped and hands them to the sinks. It never writes to the engine.
type Reporter struct {
	Engine physics.Engine
	Bodies []TrackedBody
	Driver *Driver
	Sinks  []Sink
}

// NewReporter creates a Reporter tracking the rover bodies.
func NewReporter(engine physics.Engine, rig *Rig, driver *Driver, sinks ...Sink) *Reporter {
	return &Reporter{Engine: engine, Bodies: rig.Tracked(), Driver: driver, Sinks: sinks}
}

// AddSink adds sinks.
func (r *Reporter) AddSink(sinks ...Sink) *Reporter {
	r.Sinks = append(r.Sinks, sinks...)
	return r
}

// Sample reads the tracked bodies. Bodies which can't be read are left
// out and their errors returned.
func (r *Reporter) Sample(snap *Snapshot) error {
	inspector, _ := r.Engine.(physics.Inspector)
	var errs fx.AggregatedError
	for _, b := range r.Bodies {
		pose, err := r.Engine.BodyTransform(b.Body)
		if err != nil {
			errs.Add(fmt.Errorf("read %s: %w", b.Name, err))
			continue
		}
		sample := BodySample{Name: b.Name, Body: b.Body, Pose: pose}
		if inspector != nil {
			sample.Sleeping = inspector.Sleeping(b.Body)
		}
		snap.Bodies = append(snap.Bodies, sample)
	}
	return errs.Aggregate()
}

// Control implements Controller.
func (r *Reporter) Control(cc fx.ControlContext) error {
	if r.Engine == nil {
		return fx.Fatal(physics.ErrNotInitialized)
	}
	snap := &Snapshot{Frame: cc.Frame(), Time: cc.Time(), Delta: cc.Delta()}
	if r.Driver != nil {
		snap.Input, snap.Command = r.Driver.Input(), r.Driver.Command()
	}
	var errs fx.AggregatedError
	if err := r.Sample(snap); err != nil {
		if errors.Is(err, physics.ErrNotInitialized) {
			return fx.Fatal(err)
		}
		errs.Add(err)
	}
	for _, sink := range r.Sinks {
		errs.Add(sink.Report(snap))
	}
	return errs.Aggregate()
}

// LogSink logs the altitude of every body.
type LogSink struct {
	// Every logs one frame out of Every, 0 logs nothing.
	Every uint64
}

// Report implements Sink.
func (s *LogSink) Report(snap *Snapshot) error {
	if s.Every == 0 || snap.Frame%s.Every != 0 {
		return nil
	}
	for _, b := range snap.Bodies {
		glog.Infof("frame %d %s altitude: %.4f", snap.Frame, b.Name, b.Altitude())
		if b.Sleeping {
			glog.Warningf("frame %d %s is asleep and ignores motors", snap.Frame, b.Name)
		}
	}
	if glog.V(1) {
		glog.Infof("frame %d input %s command %s", snap.Frame, snap.Input, snap.Command)
	}
	return nil
}
