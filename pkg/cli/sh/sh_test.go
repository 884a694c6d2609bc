package sh

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/rover.go/pkg/remote"
	"github.com/robotalks/rover.go/pkg/rover"
)

type recorder struct {
	sent   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newRecorder() *recorder {
	return &recorder{sent: make(chan []byte, 64), closed: make(chan struct{})}
}

func (r *recorder) ReadPacket() ([]byte, error) {
	<-r.closed
	return nil, io.EOF
}

func (r *recorder) WritePacket(pkt []byte) error {
	r.sent <- pkt
	return nil
}

func (r *recorder) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

func (r *recorder) next(t *testing.T) *remote.DriveInput {
	select {
	case pkt := <-r.sent:
		typed, err := remote.DecodeTyped(pkt)
		require.NoError(t, err)
		msg, err := typed.Decode()
		require.NoError(t, err)
		return msg.(*remote.DriveInput)
	case <-time.After(time.Second):
		t.Fatal("nothing sent")
		return nil
	}
}

func TestConnRefreshesInput(t *testing.T) {
	rw := newRecorder()
	conn := NewConn(remote.RoverMeta{ID: "r1", InputTTLMillis: 40}, rw)
	conn.Start(context.Background())

	in := rover.DirectionalInput{Forward: true, Right: true}
	require.NoError(t, conn.SetInput(in))
	require.Equal(t, in, conn.Input())
	// sent once, then refreshed
	for i := 0; i < 3; i++ {
		require.Equal(t, remote.DriveInputFrom(in), rw.next(t))
	}

	require.NoError(t, conn.Close())
	var last *remote.DriveInput
	for len(rw.sent) > 0 {
		last = rw.next(t)
	}
	require.NotNil(t, last)
	require.Equal(t, &remote.DriveInput{}, last, "stops the rover when closed")
}

func TestConnIdleSendsNothing(t *testing.T) {
	rw := newRecorder()
	conn := NewConn(remote.RoverMeta{ID: "r1", InputTTLMillis: 20}, rw)
	conn.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rw.sent)
	conn.Watch(true)
	assert.True(t, conn.Watching())
	require.NoError(t, conn.Close())
}

func TestFormatTelemetry(t *testing.T) {
	str := FormatTelemetry(&remote.Telemetry{
		Frame: 5,
		Input: &remote.DriveInput{Forward: true},
		Left:  1, Right: 1,
		Bodies: []*remote.BodyTelemetry{{Name: "chassis", Y: 0.6, Qw: 1}},
	})
	assert.True(t, strings.HasPrefix(str, "frame 5 input F command L+1 R+1"), str)
	assert.Contains(t, str, "chassis (0.00, 0.60, 0.00) heading 0.0")
}
