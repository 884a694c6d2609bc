package sh

import (
	"fmt"
	"strings"

	"github.com/robotalks/rover.go/pkg/remote"
	"github.com/robotalks/rover.go/pkg/rover"
)

// FormatTelemetry prints Telemetry in one line.
func FormatTelemetry(t *remote.Telemetry) string {
	var w strings.Builder
	fmt.Fprintf(&w, "frame %d", t.Frame)
	if t.Input != nil {
		fmt.Fprintf(&w, " input %s", t.Input.Directional())
	}
	fmt.Fprintf(&w, " command %s", rover.DriveCommand{Left: t.Left, Right: t.Right})
	for _, b := range t.Bodies {
		pose := b.Pose()
		fmt.Fprintf(&w, " | %s (%.2f, %.2f, %.2f)", b.Name, b.X, b.Y, b.Z)
		if b.Name == rover.ChassisName {
			fmt.Fprintf(&w, " heading %.1f", pose.Heading().Degrees())
		}
	}
	return w.String()
}
