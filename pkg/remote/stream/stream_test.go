package stream

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFraming(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte("abc")))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 'a', 'b', 'c', 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Equal(t, io.EOF, err)
}

func TestTruncated(t *testing.T) {
	rw := New(bytes.NewBuffer([]byte{5, 0, 0, 0, 'a'}))
	_, err := rw.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)

	rw = New(bytes.NewBuffer([]byte{0xff, 0xff, 0xff, 0xff}))
	_, err = rw.ReadPacket()
	require.Error(t, err)
}

func TestOverConn(t *testing.T) {
	a, b := net.Pipe()
	ra, rb := New(a), New(b)
	go func() {
		ra.WritePacket([]byte("ping"))
	}()
	pkt, err := rb.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), pkt)
	require.NoError(t, ra.Close())
	_, err = rb.ReadPacket()
	require.Error(t, err)
}
