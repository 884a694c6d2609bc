// Package drive adds the drive commands to the shell.
package drive

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rover.go/pkg/cli/sh"
	"github.com/robotalks/rover.go/pkg/rover"
)

var words = map[string]byte{
	"forward": 'f', "fwd": 'f',
	"backward": 'b', "back": 'b',
	"left": 'l',
	"right": 'r',
}

// ParseInput parses directions like "fl", "f l" or "forward left".
func ParseInput(args []string) (in rover.DirectionalInput, err error) {
	for _, arg := range args {
		arg = strings.ToLower(arg)
		letters := arg
		if c, ok := words[arg]; ok {
			letters = string(c)
		}
		for _, c := range []byte(letters) {
			switch c {
			case 'f':
				in.Forward = true
			case 'b':
				in.Backward = true
			case 'l':
				in.Left = true
			case 'r':
				in.Right = true
			default:
				return in, fmt.Errorf("invalid direction %q, expect f, b, l, r", arg)
			}
		}
	}
	return
}

var (
	// DriveCmd holds directions until changed.
	DriveCmd = ishell.Cmd{
		Name:    "drive",
		Aliases: []string{"dr"},
		Help:    "[f][b][l][r]: hold directions, nothing releases all",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			in, err := ParseInput(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			if err := s.Conn.SetInput(in); err != nil {
				c.Err(err)
				return
			}
			s.PrintResult(c, in, in.String())
		}),
	}

	// StopCmd releases all directions.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "release all directions",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Conn.SetInput(rover.DirectionalInput{}); err != nil {
				c.Err(err)
			}
		}),
	}

	// StatusCmd prints the last telemetry.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "print last telemetry",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			t := s.Conn.Client.Telemetry()
			if t == nil {
				c.Err(fmt.Errorf("no telemetry from %s yet", s.Conn.Meta.ID))
				return
			}
			s.PrintResult(c, t, sh.FormatTelemetry(t))
		}),
	}

	// WatchCmd turns on/off telemetry printing.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			conn := sh.ShellFrom(c).Conn
			if len(c.Args) == 0 {
				conn.Watch(!conn.Watching())
			} else {
				switch strings.ToLower(c.Args[0]) {
				case "on":
					conn.Watch(true)
				case "off":
					conn.Watch(false)
				default:
					c.Err(fmt.Errorf("expect on or off"))
					return
				}
			}
			c.Printf("watch %v\n", conn.Watching())
		}),
	}
)

func init() {
	sh.AddCmds(
		&DriveCmd,
		&StopCmd,
		&StatusCmd,
		&WatchCmd,
	)
}
