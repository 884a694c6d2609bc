// Package joystick turns a joystick into virtual directional keys.
package joystick

import (
	"context"
	"flag"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/input"
	"github.com/robotalks/rover.go/pkg/input/joystick/device"
)

// SourceName identifies key events from the joystick.
const SourceName = "joystick"

// Config defines the configurations for the joystick source.
type Config struct {
	DeviceIndex int
	Threshold   int
	Verbose     bool
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Threshold:   8000,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "joystick-device", defaultConfig.DeviceIndex, "Joystick device index, -1 for auto detection.")
	flag.IntVar(&defaultConfig.Threshold, "joystick-threshold", defaultConfig.Threshold, "Axis deflection (of 32767) which presses a direction.")
	flag.BoolVar(&defaultConfig.Verbose, "joystick-verbose", defaultConfig.Verbose, "Print joystick events.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewSource creates a Source using the config.
func (c *Config) NewSource() *Source {
	return &Source{
		DeviceIndex: c.DeviceIndex,
		Threshold:   c.Threshold,
		Verbose:     c.Verbose,
		pressed:     make(map[input.Key]bool),
	}
}

// Source polls the joystick and posts input.KeyEvent messages.
// Axis 0 and 6 steer left/right, axis 1 and 7 drive forward/backward.
type Source struct {
	DeviceIndex int
	Threshold   int
	Verbose     bool

	open    func(index int) (device.Device, error)
	detect  func(start int) (device.Device, error)
	pressed map[input.Key]bool
}

// AddToLoop implements LoopAdder.
func (s *Source) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("joystick", s))
}

// Run implements Runnable. The device is re-detected every second
// while absent.
func (s *Source) Run(ctx context.Context) error {
	var dev device.Device
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()
	loopCtl := fx.LoopCtlFrom(ctx)
	deviceTimer := time.After(0)
	var eventCh chan device.Event
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deviceTimer:
			deviceTimer = nil
			var err error
			if dev, err = s.openDevice(); err != nil || dev == nil {
				if err == device.ErrNotSupported {
					glog.Warning("joystick disabled: ", err)
					return nil
				}
				deviceTimer = time.After(time.Second)
				continue
			}
			glog.Infof("joystick %d %q opened: %d axes, %d buttons", dev.Index(), dev.Name(), dev.AxisCount(), dev.ButtonCount())
			eventCh = make(chan device.Event, 1)
			go s.poll(dev, eventCh)
		case ev, ok := <-eventCh:
			if !ok {
				glog.Warningf("joystick %d lost", dev.Index())
				dev.Close()
				dev, eventCh = nil, nil
				s.pressed = make(map[input.Key]bool)
				loopCtl.PostMessage(&input.ReleaseAll{Source: SourceName})
				deviceTimer = time.After(time.Second)
				continue
			}
			for _, ke := range s.translate(ev) {
				ke := ke
				loopCtl.PostMessage(&ke)
			}
		}
	}
}

func (s *Source) openDevice() (device.Device, error) {
	open, detect := s.open, s.detect
	if open == nil {
		open = device.Open
	}
	if detect == nil {
		detect = device.DetectAndOpen
	}
	if s.DeviceIndex >= 0 {
		dev, err := open(s.DeviceIndex)
		if err != nil && err != device.ErrNotSupported {
			glog.V(1).Infof("open joystick %d: %v", s.DeviceIndex, err)
		}
		return dev, err
	}
	dev, err := detect(0)
	if err != nil && err != device.ErrNotSupported {
		glog.V(1).Infof("detect joystick: %v", err)
	}
	return dev, err
}

func (s *Source) poll(dev device.Device, ch chan<- device.Event) {
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.Errorf("joystick read: %v", err)
			return
		}
		if s.Verbose {
			switch e := ev.(type) {
			case device.AxisEvent:
				glog.Infof("joystick axis %d: %d init=%v", e.Index(), e.Value(), e.IsInit())
			case device.ButtonEvent:
				glog.Infof("joystick button %d: %v init=%v", e.Index(), e.Pressed(), e.IsInit())
			}
		}
		ch <- ev
	}
}

// translate converts an axis event into key changes.
func (s *Source) translate(ev device.Event) []input.KeyEvent {
	axis, ok := ev.(device.AxisEvent)
	if !ok {
		return nil
	}
	var neg, pos input.Key
	switch axis.Index() {
	case 0, 6:
		neg, pos = input.JoyLeft, input.JoyRight
	case 1, 7:
		// pushing up reads negative
		neg, pos = input.JoyForward, input.JoyBackward
	default:
		return nil
	}
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = defaultConfig.Threshold
	}
	var events []input.KeyEvent
	set := func(key input.Key, pressed bool) {
		if s.pressed[key] != pressed {
			s.pressed[key] = pressed
			events = append(events, input.KeyEvent{Key: key, Pressed: pressed, Source: SourceName})
		}
	}
	set(neg, axis.Value() < -threshold)
	set(pos, axis.Value() > threshold)
	return events
}
