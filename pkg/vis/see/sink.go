// Package see visualizes the rover top-down in github.com/robotalks/see.
// Messages are JSON arrays written one per line.
package see

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/robotalks/rover.go/pkg/rover"
)

// Sink is a rover.Sink emitting see messages. It only reads snapshots.
type Sink struct {
	Config *Config
	Shapes Shapes
	Writer io.Writer

	started bool
	shown   map[string]bool
}

// Report implements rover.Sink.
func (s *Sink) Report(snap *rover.Snapshot) error {
	if s.started && s.Config.Every > 1 && snap.Frame%s.Config.Every != 0 {
		return nil
	}
	msgs := s.Messages(snap)
	if len(msgs) == 0 {
		return nil
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.Writer, string(encoded))
	return err
}

// Messages converts a snapshot. The first call resets the view and
// marks the corners of the area. Bodies missing from the snapshot are
// removed.
func (s *Sink) Messages(snap *rover.Snapshot) []Message {
	var msgs []Message
	if !s.started {
		s.started = true
		msgs = append(msgs, Message{Action: ActionReset})
		msgs = append(msgs, s.corners()...)
	}
	seen := make(map[string]bool, len(snap.Bodies))
	for _, b := range snap.Bodies {
		seen[b.Name] = true
		msgs = append(msgs, Message{Action: ActionObject, Object: s.Config.ObjectOf(b, s.Shapes[b.Name])})
	}
	for name := range s.shown {
		if !seen[name] {
			msgs = append(msgs, Message{Action: ActionRemove, RemoveID: name})
		}
	}
	s.shown = seen
	return msgs
}

func (s *Sink) corners() []Message {
	w, h := s.Config.W*s.Config.Scale/2, s.Config.H*s.Config.Scale/2
	var msgs []Message
	for _, c := range []struct {
		loc  string
		x, y float64
	}{{"lt", -w, -h}, {"lb", -w, h}, {"rt", w, -h}, {"rb", w, h}} {
		msgs = append(msgs, Message{
			Action: ActionObject,
			Object: NewObject("corner", "corner-"+c.loc).With("loc", c.loc).At(c.x, c.y).Radius(1),
		})
	}
	return msgs
}
