package remote

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/physics"
	"github.com/robotalks/rover.go/pkg/rover"
)

// DriveInput is the directional input of a remote controller. It is
// held on the rover until refreshed or expired.
type DriveInput struct {
	Forward  bool `protobuf:"varint,1,opt,name=forward,proto3" json:"forward,omitempty"`
	Backward bool `protobuf:"varint,2,opt,name=backward,proto3" json:"backward,omitempty"`
	Left     bool `protobuf:"varint,3,opt,name=left,proto3" json:"left,omitempty"`
	Right    bool `protobuf:"varint,4,opt,name=right,proto3" json:"right,omitempty"`
}

// DriveInputFrom converts directional input.
func DriveInputFrom(in rover.DirectionalInput) *DriveInput {
	return &DriveInput{Forward: in.Forward, Backward: in.Backward, Left: in.Left, Right: in.Right}
}

// Directional converts back to rover.DirectionalInput.
func (m *DriveInput) Directional() rover.DirectionalInput {
	return rover.DirectionalInput{Forward: m.Forward, Backward: m.Backward, Left: m.Left, Right: m.Right}
}

// NewMessage implements Message.
func (m *DriveInput) NewMessage() fx.Message { return &DriveInput{} }

// TypeID implements SerializableMessage.
func (m *DriveInput) TypeID() uint32 { return DriveInputTypeID }

// Serializable implements SerializableMessage.
func (m *DriveInput) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DriveInput) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DriveInput) Reset() { *m = DriveInput{} }

// String implements proto.Message.
func (m *DriveInput) String() string { return proto.CompactTextString(m) }

// BodyTelemetry is the pose of one body.
type BodyTelemetry struct {
	Name string  `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	X    float64 `protobuf:"fixed64,2,opt,name=x,proto3" json:"x,omitempty"`
	Y    float64 `protobuf:"fixed64,3,opt,name=y,proto3" json:"y,omitempty"`
	Z    float64 `protobuf:"fixed64,4,opt,name=z,proto3" json:"z,omitempty"`
	Qw   float64 `protobuf:"fixed64,5,opt,name=qw,proto3" json:"qw,omitempty"`
	Qx   float64 `protobuf:"fixed64,6,opt,name=qx,proto3" json:"qx,omitempty"`
	Qy   float64 `protobuf:"fixed64,7,opt,name=qy,proto3" json:"qy,omitempty"`
	Qz   float64 `protobuf:"fixed64,8,opt,name=qz,proto3" json:"qz,omitempty"`
}

// Pose converts back to physics.Pose.
func (m *BodyTelemetry) Pose() physics.Pose {
	return physics.Pose{
		Position: mgl64.Vec3{m.X, m.Y, m.Z},
		Rotation: mgl64.Quat{W: m.Qw, V: mgl64.Vec3{m.Qx, m.Qy, m.Qz}},
	}
}

// ProtoMessage implements proto.Message.
func (m *BodyTelemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BodyTelemetry) Reset() { *m = BodyTelemetry{} }

// String implements proto.Message.
func (m *BodyTelemetry) String() string { return proto.CompactTextString(m) }

// Telemetry is published once per reported frame.
type Telemetry struct {
	Frame uint64 `protobuf:"varint,1,opt,name=frame,proto3" json:"frame,omitempty"`
	// TimeNanos is the wall clock time in Unix nanoseconds.
	TimeNanos int64            `protobuf:"varint,2,opt,name=time_nanos,json=timeNanos,proto3" json:"time_nanos,omitempty"`
	Input     *DriveInput      `protobuf:"bytes,3,opt,name=input,proto3" json:"input,omitempty"`
	Left      float64          `protobuf:"fixed64,4,opt,name=left,proto3" json:"left,omitempty"`
	Right     float64          `protobuf:"fixed64,5,opt,name=right,proto3" json:"right,omitempty"`
	Bodies    []*BodyTelemetry `protobuf:"bytes,6,rep,name=bodies,proto3" json:"bodies,omitempty"`
}

// TelemetryFrom converts a snapshot.
func TelemetryFrom(snap *rover.Snapshot) *Telemetry {
	m := &Telemetry{
		Frame: snap.Frame,
		Input: DriveInputFrom(snap.Input),
		Left:  snap.Command.Left,
		Right: snap.Command.Right,
	}
	if !snap.Time.IsZero() {
		m.TimeNanos = snap.Time.UnixNano()
	}
	for _, b := range snap.Bodies {
		p, q := b.Pose.Position, b.Pose.Rotation
		m.Bodies = append(m.Bodies, &BodyTelemetry{
			Name: b.Name,
			X:    p.X(), Y: p.Y(), Z: p.Z(),
			Qw: q.W, Qx: q.V.X(), Qy: q.V.Y(), Qz: q.V.Z(),
		})
	}
	return m
}

// Time is the wall clock time of the frame.
func (m *Telemetry) Time() time.Time {
	return time.Unix(0, m.TimeNanos)
}

// Body finds a body by name.
func (m *Telemetry) Body(name string) *BodyTelemetry {
	for _, b := range m.Bodies {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// NewMessage implements Message.
func (m *Telemetry) NewMessage() fx.Message { return &Telemetry{} }

// TypeID implements SerializableMessage.
func (m *Telemetry) TypeID() uint32 { return TelemetryTypeID }

// Serializable implements SerializableMessage.
func (m *Telemetry) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Telemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Telemetry) Reset() { *m = Telemetry{} }

// String implements proto.Message.
func (m *Telemetry) String() string { return proto.CompactTextString(m) }
