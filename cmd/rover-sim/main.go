package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/input"
	"github.com/robotalks/rover.go/pkg/input/joystick"
	"github.com/robotalks/rover.go/pkg/physics/simple"
	"github.com/robotalks/rover.go/pkg/remote"
	"github.com/robotalks/rover.go/pkg/remote/mqtt"
	"github.com/robotalks/rover.go/pkg/remote/websocket"
	"github.com/robotalks/rover.go/pkg/rover"
	"github.com/robotalks/rover.go/pkg/vis/see"
)

var (
	configFile   string
	logEvery     uint64 = 1
	interval            = fx.DefaultInterval
	fixedStep    bool
	withJoystick bool
	withSee      bool
)

func init() {
	flag.StringVar(&configFile, "config", configFile, "YAML file overriding the rover configuration.")
	flag.Uint64Var(&logEvery, "log-every", logEvery, "Log altitudes every N frames, 0 disables.")
	flag.DurationVar(&interval, "interval", interval, "Loop iteration period.")
	flag.BoolVar(&fixedStep, "fixed-step", fixedStep, "Advance the simulation by exactly one interval per frame.")
	flag.BoolVar(&withJoystick, "joystick", withJoystick, "Read input from a joystick.")
	flag.BoolVar(&withSee, "see", withSee, "Write visualization messages to stdout.")
	rover.SetupFlags()
	input.SetupFlags()
	simple.SetupFlags()
	joystick.SetupFlags()
	remote.SetupFlags()
	see.SetupFlags()
}

func main() {
	flag.Parse()

	conf := rover.NewConfig()
	if configFile != "" {
		if err := conf.LoadConfigFile(configFile); err != nil {
			glog.Exitln(err)
		}
	}

	keyboard := input.NewKeyboard()
	sim, err := conf.NewSimulation(simple.DefaultParams().NewWorld(), keyboard)
	if err != nil {
		glog.Exitln(err)
	}
	sim.Reporter.AddSink(&rover.LogSink{Every: logEvery})

	loop := fx.NewLoop().WithInterval(interval, fixedStep)
	loop.Add(keyboard, sim)
	if withJoystick {
		loop.Add(joystick.NewConfig().NewSource())
	}
	if withSee {
		sim.Reporter.AddSink(see.NewConfig().NewSink(nil, see.ShapesOf(conf)))
	} else {
		// the terminal and see both own stdio.
		loop.Add(input.NewTerminal())
	}
	addRemote(loop, sim)

	loop.RunOrFail()
}

func addRemote(loop *fx.Loop, sim *rover.Simulation) {
	rconf := remote.NewConfig()
	var bodies []string
	for _, b := range sim.Rig.Tracked() {
		bodies = append(bodies, b.Name)
	}

	// without MQTT the endpoint only consumes input posted by the
	// websocket server.
	endpoint := &remote.Endpoint{InputTTL: rconf.InputTTL}
	if rconf.BrokerURL != "" {
		meta := rconf.Meta(bodies)
		conn, err := mqtt.NewRoverConn(rconf.BrokerURL, meta)
		if err != nil {
			glog.Exitln(err)
		}
		glog.Infof("rover %s: %v, input ttl %s", meta.ID, bodies, rconf.InputTTL.Round(time.Millisecond))
		endpoint = remote.NewEndpoint(conn, rconf.InputTTL)
		publisher := endpoint.Publisher(rconf.TelemetryEvery)
		sim.Reporter.AddSink(publisher)
		loop.Add(publisher)
	}
	if rconf.Listen != "" {
		server := websocket.NewServer(rconf.Listen)
		publisher := remote.NewTelemetryPublisher(server, rconf.TelemetryEvery)
		sim.Reporter.AddSink(publisher)
		loop.Add(server, publisher)
	}
	loop.Add(endpoint)
}
