package mqtt

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/remote"
)

// Topic names relative to the rover ID.
const (
	TopicInput     = "input"
	TopicTelemetry = "telemetry"
	TopicMeta      = "meta"
)

// Topic builds the topic of a rover.
func Topic(id, name string) string {
	return id + "/" + name
}

// ReadWriter implements remote.PacketReadWriter on a pair of topics.
// Packets arriving while the reader is behind are dropped.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	done     chan struct{}
	once     sync.Once
}

// NewReadWriter creates the ReadWriter.
func NewReadWriter(q *Queue, sub, pub string) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		SubTopic: sub,
		PubTopic: pub,
		packetCh: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

// ForRover receives input and publishes telemetry of rover id.
func ForRover(q *Queue, id string) *ReadWriter {
	return NewReadWriter(q, Topic(id, TopicInput), Topic(id, TopicTelemetry))
}

// ForClient publishes input and receives telemetry of rover id.
func ForClient(q *Queue, id string) *ReadWriter {
	return NewReadWriter(q, Topic(id, TopicTelemetry), Topic(id, TopicInput))
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer sub.Close()
	select {
	case <-ctx.Done():
		p.Close()
		return ctx.Err()
	case <-p.done:
		return nil
	}
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

func (p *ReadWriter) handleMsg(topic string, payload []byte) {
	select {
	case p.packetCh <- payload:
	default:
		glog.V(1).Infof("%s: packet dropped", topic)
	}
}

// RoverConn connects a rover to the broker. The meta is retained
// while the rover is connected and cleared by the will otherwise.
type RoverConn struct {
	*ReadWriter
	Meta remote.RoverMeta

	broker string
}

// NewRoverConn creates a RoverConn.
func NewRoverConn(brokerURL string, meta remote.RoverMeta) (*RoverConn, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := Topic(meta.ID, TopicMeta)
	opts.SetBinaryWill(topicPrefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("rover:" + meta.ID)
	}
	q := NewQueue(opts, topicPrefix)
	c := &RoverConn{ReadWriter: ForRover(q, meta.ID), Meta: meta, broker: opts.Servers[0].Host}
	q.OnConnect = func(q *Queue) {
		q.PubWith(metaTopic, meta.Encode(), 1, true)
	}
	return c, nil
}

// AddToLoop implements LoopAdder.
func (c *RoverConn) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("mqtt", c))
}

// Run implements Runnable.
func (c *RoverConn) Run(ctx context.Context) error {
	q := c.Queue
	glog.Infof("rover %s on mqtt %s/%s", c.Meta.ID, c.broker, q.TopicPrefix)
	q.Connect()
	err := c.ReadWriter.Run(ctx)
	q.PubWith(Topic(c.Meta.ID, TopicMeta), nil, 1, true).WaitTimeout(time.Second)
	q.Close()
	return err
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector finds and connects to rovers.
type Connector struct {
	DiscoverTimeout time.Duration

	brokerURL string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	if _, _, err := ClientOptionsFromURL(brokerURL); err != nil {
		return nil, err
	}
	return &Connector{DiscoverTimeout: DefaultDiscoverTimeout, brokerURL: brokerURL}, nil
}

func (c *Connector) newQueue() *Queue {
	opts, topicPrefix, _ := ClientOptionsFromURL(c.brokerURL)
	if opts.ClientID == "" {
		opts.SetClientID(defaultClientID("roverctl"))
	}
	return NewQueue(opts, topicPrefix)
}

// Discover collects the retained meta of online rovers.
func (c *Connector) Discover(ctx context.Context) ([]remote.RoverMeta, error) {
	q := c.newQueue()
	metaCh, done := make(chan remote.RoverMeta, 16), make(chan struct{})
	defer close(done)
	q.Sub(Topic("+", TopicMeta), func(topic string, payload []byte) {
		if len(payload) == 0 {
			return
		}
		meta, err := remote.DecodeRoverMeta(payload)
		if err != nil {
			glog.Warningf("%s: %v", topic, err)
			return
		}
		if meta.ID == "" {
			meta.ID = strings.TrimSuffix(topic, "/"+TopicMeta)
		}
		select {
		case metaCh <- meta:
		case <-done:
		}
	})
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()

	dur := c.DiscoverTimeout
	if dur <= 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	var found []remote.RoverMeta
	for {
		select {
		case meta := <-metaCh:
			found = append(found, meta)
		case <-timeout:
			return found, nil
		case <-ctx.Done():
			return found, ctx.Err()
		}
	}
}

// Connect connects to the rover with id.
func (c *Connector) Connect(ctx context.Context, id string) (*ClientConn, error) {
	q := c.newQueue()
	conn := &ClientConn{ReadWriter: ForClient(q, id)}
	token := q.Connect()
	if !token.WaitTimeout(connectTimeout(ctx)) {
		q.Close()
		return nil, context.DeadlineExceeded
	}
	if err := token.Error(); err != nil {
		q.Close()
		return nil, err
	}
	return conn, nil
}

func connectTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline)
	}
	return 10 * time.Second
}

// ClientConn is the controller side connection to a rover.
type ClientConn struct {
	*ReadWriter
}

// Close implements io.Closer.
func (c *ClientConn) Close() error {
	c.ReadWriter.Close()
	return c.Queue.Close()
}
