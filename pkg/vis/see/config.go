package see

import (
	"flag"
	"io"
	"os"
)

// Config represents configuration for see.
type Config struct {
	// W and H are the visible area in meters, centered at the origin.
	W float64
	H float64
	// Scale converts meters to output units.
	Scale float64
	// Every reports one frame out of Every.
	Every uint64
}

var defaultConfig = Config{
	W:     40,
	H:     40,
	Scale: 1000,
	Every: 2,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.W, "see-w", defaultConfig.W, "Width (m) of visualization area")
	flag.Float64Var(&defaultConfig.H, "see-h", defaultConfig.H, "Height (m) of visualization area")
	flag.Float64Var(&defaultConfig.Scale, "see-scale", defaultConfig.Scale, "Output units per meter")
	flag.Uint64Var(&defaultConfig.Every, "see-every", defaultConfig.Every, "Report every N frames")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewSink creates a Sink writing to w, os.Stdout if nil.
func (c *Config) NewSink(w io.Writer, shapes Shapes) *Sink {
	if w == nil {
		w = os.Stdout
	}
	return &Sink{Config: c, Shapes: shapes, Writer: w}
}
