package input

import (
	"context"
	"os"
	"time"

	"github.com/abiosoft/readline"
	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
)

// DefaultHold is how long a terminal key stays pressed after its last
// repeat. Terminals don't report releases, and auto-repeat starts after
// a delay of a few hundred milliseconds.
const DefaultHold = 600 * time.Millisecond

// Terminal reads keys from a raw mode terminal and posts KeyEvent
// messages to the loop. Space releases everything, Ctrl-C interrupts the
// process.
type Terminal struct {
	In     *os.File
	Hold   time.Duration
	Source string

	held map[Key]time.Time
}

// NewTerminal creates a Terminal reading stdin.
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Hold: DefaultHold, Source: "terminal"}
}

// AddToLoop implements LoopAdder.
func (t *Terminal) AddToLoop(l *fx.Loop) {
	l.AddRunnable(t)
}

// Run implements Runnable.
func (t *Terminal) Run(ctx context.Context) error {
	fd := int(t.In.Fd())
	if !readline.IsTerminal(fd) {
		glog.Warning("input is not a terminal, keyboard disabled")
		return nil
	}
	state, err := readline.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer readline.Restore(fd, state)

	bytesCh := make(chan byte, 16)
	go t.readBytes(ctx, bytesCh)

	hold := t.Hold
	if hold <= 0 {
		hold = DefaultHold
	}
	ticker := time.NewTicker(hold / 4)
	defer ticker.Stop()

	loopCtl := fx.LoopCtlFrom(ctx)
	var dec keyDecoder
	t.held = make(map[Key]time.Time)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-bytesCh:
			if !ok {
				loopCtl.PostMessage(&ReleaseAll{Source: t.Source})
				return nil
			}
			key, ok := dec.feed(b)
			if !ok {
				continue
			}
			switch key {
			case keyInterrupt:
				if p, err := os.FindProcess(os.Getpid()); err == nil {
					p.Signal(os.Interrupt)
				}
			case KeySpace:
				t.held = make(map[Key]time.Time)
				loopCtl.PostMessage(&ReleaseAll{Source: t.Source})
			default:
				if _, pressed := t.held[key]; !pressed {
					loopCtl.PostMessage(&KeyEvent{Key: key, Pressed: true, Source: t.Source})
				}
				t.held[key] = time.Now().Add(hold)
			}
		case now := <-ticker.C:
			for key, deadline := range t.held {
				if now.After(deadline) {
					delete(t.held, key)
					loopCtl.PostMessage(&KeyEvent{Key: key, Source: t.Source})
				}
			}
		}
	}
}

const keyInterrupt Key = "\x03"

// keyDecoder turns raw terminal bytes into keys, including the ANSI
// escape sequences of arrow keys.
type keyDecoder struct {
	state int
}

func (d *keyDecoder) feed(b byte) (Key, bool) {
	switch d.state {
	case 1:
		if b == '[' || b == 'O' {
			d.state = 2
		} else {
			d.state = 0
		}
		return "", false
	case 2:
		d.state = 0
		switch b {
		case 'A':
			return KeyUp, true
		case 'B':
			return KeyDown, true
		case 'C':
			return KeyRight, true
		case 'D':
			return KeyLeft, true
		}
		return "", false
	}
	switch b {
	case 0x1b:
		d.state = 1
		return "", false
	case 0x03:
		return keyInterrupt, true
	case ' ':
		return KeySpace, true
	}
	if k, err := ParseKey(string(b)); err == nil {
		return k, true
	}
	return "", false
}

// readBytes forwards bytes from In until it fails or ctx is done. A Read
// in progress stays blocked until the next byte or the process exits.
func (t *Terminal) readBytes(ctx context.Context, bytesCh chan<- byte) {
	defer close(bytesCh)
	var buf [16]byte
	for {
		n, err := t.In.Read(buf[:])
		if err != nil {
			return
		}
		for _, b := range buf[:n] {
			select {
			case bytesCh <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}
