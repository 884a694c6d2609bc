// Package sh is the interactive shell of roverctl.
package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/rover.go/pkg/remote"
	"github.com/robotalks/rover.go/pkg/remote/mqtt"
	"github.com/robotalks/rover.go/pkg/remote/websocket"
)

// Connector finds and connects to rovers.
type Connector interface {
	Discover(ctx context.Context) ([]remote.RoverMeta, error)
	Connect(ctx context.Context, id string) (remote.PacketReadWriter, error)
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// WebsocketURL connects a single rover directly, bypassing MQTT.
	WebsocketURL string

	Shell  *ishell.Shell
	Config *remote.Config
	Conn   *Conn
	// Connector defaults to the one derived from the config.
	Connector Connector
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
	connectTimeout    = 5 * time.Second
)

var (
	evalOnly     bool
	outputJSON   bool
	websocketURL string

	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&websocketURL, "ws", websocketURL, "Connect a rover directly at websocket URL, e.g. ws://localhost:8080/rover.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *remote.Config) *Shell {
	s := &Shell{
		Interactive:  !evalOnly,
		OutputJSON:   outputJSON,
		WebsocketURL: websocketURL,
		Shell:        ishell.New(),
		Config:       conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(errors.New("not connected"))
			return
		}
		fn(c)
	}
}

// PrintResult prints v as JSON, or formatted text.
func (s *Shell) PrintResult(c *ishell.Context, v interface{}, text string) {
	if !s.OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// FormatMeta prints RoverMeta into friendly string for display.
func FormatMeta(meta remote.RoverMeta) string {
	str := meta.ID
	if meta.StartedAtSeconds > 0 {
		str += fmt.Sprintf(" (up since %s)", time.Unix(meta.StartedAtSeconds, 0).Format(time.RFC3339))
	}
	return str
}

func (s *Shell) connector() (Connector, error) {
	if s.Connector != nil {
		return s.Connector, nil
	}
	if s.WebsocketURL != "" {
		return websocketConnector(s.WebsocketURL), nil
	}
	if s.Config.BrokerURL == "" {
		return nil, fmt.Errorf("no broker: use -mqtt-url or %s", remote.EnvBrokerURL)
	}
	c, err := mqtt.NewConnector(s.Config.BrokerURL)
	if err != nil {
		return nil, err
	}
	return &mqttConnector{Connector: c}, nil
}

// Discover lists online rovers.
func (s *Shell) Discover() ([]remote.RoverMeta, error) {
	connector, err := s.connector()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return connector.Discover(ctx)
}

// SelectRover discovers rovers and asks for a choice.
func (s *Shell) SelectRover() (*remote.RoverMeta, error) {
	found, err := s.Discover()
	if err != nil || len(found) == 0 {
		return nil, err
	}
	var index int
	if len(found) > 1 {
		if !s.Interactive {
			return nil, errors.New("more than 1 rovers discovered in non-interactive mode")
		}
		items := make([]string, len(found))
		for n, meta := range found {
			items[n] = FormatMeta(meta)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
		if index < 0 {
			return nil, nil
		}
	}
	return &found[index], nil
}

// Connect connects the rover.
func (s *Shell) Connect(meta remote.RoverMeta) error {
	connector, err := s.connector()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	rw, err := connector.Connect(ctx, meta.ID)
	if err != nil {
		return err
	}
	s.Disconnect()
	conn := NewConn(meta, rw)
	conn.Client.OnTelemetry = s.telemetryPrinter(conn)
	conn.Start(context.Background())
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", meta.ID))
	return nil
}

// Disconnect disconnects current rover.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		if err := s.Conn.Close(); err != nil {
			glog.Warningf("disconnect %s: %v", s.Conn.Meta.ID, err)
		}
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (s *Shell) telemetryPrinter(conn *Conn) func(*remote.Telemetry) {
	var last time.Time
	return func(t *remote.Telemetry) {
		if !conn.Watching() || time.Since(last) < 500*time.Millisecond {
			return
		}
		last = time.Now()
		s.Shell.Println(FormatTelemetry(t))
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if id := s.Config.RoverID; id != "" || s.WebsocketURL != "" {
		meta := remote.RoverMeta{ID: id}
		if id == "" {
			meta.ID = s.WebsocketURL
		}
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", meta.ID)
		}
		if err := s.Connect(meta); err != nil {
			glog.Exitf("connect %q failed: %v", meta.ID, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exitln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exitln("command expected")
}

var (
	// DiscoverCmd discovers rovers.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "list online rovers",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			found, err := s.Discover()
			if err != nil {
				c.Err(err)
				return
			}
			if found == nil {
				found = []remote.RoverMeta{}
			}
			if s.OutputJSON {
				s.PrintResult(c, found, "")
				return
			}
			if len(found) == 0 {
				c.Println("No rovers found")
				return
			}
			for _, meta := range found {
				c.Println(FormatMeta(meta))
			}
		},
	}

	// ConnectCmd connects a rover.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var meta remote.RoverMeta
			if len(c.Args) > 0 {
				meta.ID = c.Args[0]
			} else {
				found, err := s.SelectRover()
				if err != nil {
					c.Err(err)
					return
				}
				if found == nil {
					c.Err(errors.New("no rover discovered"))
					return
				}
				meta = *found
			}
			if err := s.Connect(meta); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current rover.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(remote.NewConfig()).Run(flag.Args()...)
}

type mqttConnector struct {
	*mqtt.Connector
}

func (c *mqttConnector) Connect(ctx context.Context, id string) (remote.PacketReadWriter, error) {
	conn, err := c.Connector.Connect(ctx, id)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type websocketConnector string

func (c websocketConnector) Discover(context.Context) ([]remote.RoverMeta, error) {
	return []remote.RoverMeta{{ID: string(c)}}, nil
}

func (c websocketConnector) Connect(context.Context, string) (remote.PacketReadWriter, error) {
	return websocket.Dial(string(c))
}
