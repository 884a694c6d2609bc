package remote

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
)

// PacketReader reads one packet.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes one packet.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter combines PacketReader and PacketWriter.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Pipe exchanges typed messages over a PacketReadWriter.
type Pipe struct {
	ReadWriter PacketReadWriter
	Handler    TypedMsgHandler

	sendLock sync.Mutex
	seq      uint32
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(rw PacketReadWriter, handler TypedMsgHandler) *Pipe {
	return &Pipe{ReadWriter: rw, Handler: handler}
}

// Send sends a serializable message with the next sequence number.
func (p *Pipe) Send(msg fx.Message) error {
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	p.seq++
	typed, err := TypedFrom(msg, p.seq)
	if err != nil {
		return err
	}
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	return p.ReadWriter.WritePacket(pkt)
}

// Run implements Runnable. Packets which can't be decoded are dropped.
// The ReadWriter is closed when ctx is done.
func (p *Pipe) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, p, func() error {
		for {
			pkt, err := p.ReadWriter.ReadPacket()
			if err != nil {
				return err
			}
			typed, err := DecodeTyped(pkt)
			if err != nil {
				glog.V(1).Infof("drop malformed packet (%d bytes): %v", len(pkt), err)
				continue
			}
			msg, err := typed.Decode()
			if err != nil {
				glog.V(1).Infof("drop packet: %v", err)
				continue
			}
			if h := p.Handler; h != nil {
				if err := h.HandleTypedMsg(ctx, msg, typed); err != nil {
					return err
				}
			}
		}
	})
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	if adder, ok := p.ReadWriter.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := p.ReadWriter.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddRunnable(fx.NamedRun("remote-pipe", p))
}
