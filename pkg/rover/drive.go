package rover

import (
	"fmt"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/input"
)

// DirectionalInput is the set of directional intents sampled in a frame.
type DirectionalInput struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
}

// String implements fmt.Stringer.
func (in DirectionalInput) String() string {
	var s []byte
	for _, f := range []struct {
		on bool
		c  byte
	}{{in.Forward, 'F'}, {in.Backward, 'B'}, {in.Left, 'L'}, {in.Right, 'R'}} {
		if f.on {
			s = append(s, f.c)
		}
	}
	if len(s) == 0 {
		return "-"
	}
	return string(s)
}

// DriveCommand is the signed intent of each side, in [-2, 2].
type DriveCommand struct {
	Left  float64
	Right float64
}

// Intent returns the intent of a side.
func (c DriveCommand) Intent(side Side) float64 {
	if side == SideLeft {
		return c.Left
	}
	return c.Right
}

// String implements fmt.Stringer.
func (c DriveCommand) String() string {
	return fmt.Sprintf("L%+g R%+g", c.Left, c.Right)
}

func unit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Resolve applies the differential steering rule. Opposite intents
// cancel out; turning speeds one side up and the other down.
func Resolve(in DirectionalInput) DriveCommand {
	drive := unit(in.Forward) - unit(in.Backward)
	turn := unit(in.Left) - unit(in.Right)
	return DriveCommand{
		Left:  drive - turn,
		Right: drive + turn,
	}
}

// SampleInput queries the key state once per intent.
func SampleInput(keys input.KeyState, b *input.Bindings) DirectionalInput {
	return DirectionalInput{
		Forward:  keys.IsAnyPressed(b.Forward),
		Backward: keys.IsAnyPressed(b.Backward),
		Left:     keys.IsAnyPressed(b.Left),
		Right:    keys.IsAnyPressed(b.Right),
	}
}

// CommandSource provides the drive command of the current frame.
type CommandSource interface {
	Command() DriveCommand
}

// Driver samples the input every frame and resolves the drive command.
// Nothing carries over between frames.
type Driver struct {
	Keys     input.KeyState
	Bindings *input.Bindings

	input   DirectionalInput
	command DriveCommand
}

// NewDriver creates a Driver.
func NewDriver(keys input.KeyState, bindings *input.Bindings) *Driver {
	return &Driver{Keys: keys, Bindings: bindings}
}

// Control implements Controller.
func (d *Driver) Control(fx.ControlContext) error {
	d.input = SampleInput(d.Keys, d.Bindings)
	d.command = Resolve(d.input)
	return nil
}

// Input returns the input sampled in the current frame.
func (d *Driver) Input() DirectionalInput {
	return d.input
}

// Command implements CommandSource.
func (d *Driver) Command() DriveCommand {
	return d.command
}
