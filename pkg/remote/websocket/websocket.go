// Package websocket serves and dials remote rover packets over websocket
// connections.
package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/remote"
)

// DefaultPath is where the websocket endpoint is served.
const DefaultPath = "/rover"

// ReadWriter implements remote.PacketReadWriter with binary frames.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a websocket endpoint, e.g. ws://host:8080/rover.
func Dial(url string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Server accepts remote controllers. Every connection gets its own
// pipe; Send broadcasts to all of them.
type Server struct {
	Addr string
	Path string
	// Handler defaults to remote.LoopHandler.
	Handler remote.TypedMsgHandler

	lock  sync.RWMutex
	pipes map[*remote.Pipe]struct{}
}

// NewServer creates a Server.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, Path: DefaultPath}
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("websocket", s))
}

// HTTPHandler creates the http.Handler serving connections. Pipes run
// with ctx and are closed when it's done.
func (s *Server) HTTPHandler(ctx context.Context) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		s.serve(ctx, New(conn))
	})
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, s.HTTPHandler(ctx))
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	glog.Infof("websocket endpoint on %s%s", s.Addr, path)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// Send implements remote.Sender.
func (s *Server) Send(msg fx.Message) error {
	s.lock.RLock()
	pipes := make([]*remote.Pipe, 0, len(s.pipes))
	for p := range s.pipes {
		pipes = append(pipes, p)
	}
	s.lock.RUnlock()
	var errs fx.AggregatedError
	for _, p := range pipes {
		errs.Add(p.Send(msg))
	}
	return errs.Aggregate()
}

// Conns is the number of connected controllers.
func (s *Server) Conns() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.pipes)
}

func (s *Server) serve(ctx context.Context, rw *ReadWriter) {
	handler := s.Handler
	if handler == nil {
		handler = remote.LoopHandler
	}
	pipe := remote.NewPipe(rw, handler)
	s.lock.Lock()
	if s.pipes == nil {
		s.pipes = make(map[*remote.Pipe]struct{})
	}
	s.pipes[pipe] = struct{}{}
	s.lock.Unlock()
	addr := (*websocket.Conn)(rw).Request().RemoteAddr
	glog.Infof("websocket %s connected", addr)

	err := pipe.Run(ctx)

	s.lock.Lock()
	delete(s.pipes, pipe)
	s.lock.Unlock()
	glog.Infof("websocket %s disconnected: %v", addr, err)
}
