package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/remote"
	"github.com/robotalks/rover.go/pkg/rover"
)

func TestServerExchange(t *testing.T) {
	received := make(chan fx.Message, 1)
	s := &Server{Handler: remote.HandleTypedMsgFunc(func(_ context.Context, msg fx.Message, _ *remote.Typed) error {
		received <- msg
		return nil
	})}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := httptest.NewServer(s.HTTPHandler(ctx))
	defer srv.Close()

	rw, err := Dial("ws" + strings.TrimPrefix(srv.URL, "http") + DefaultPath)
	require.NoError(t, err)
	client := remote.NewClient(rw)
	frames := make(chan uint64, 1)
	client.OnTelemetry = func(m *remote.Telemetry) { frames <- m.Frame }
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	require.NoError(t, client.Drive(rover.DirectionalInput{Right: true}))
	require.Equal(t, &remote.DriveInput{Right: true}, <-received)

	require.Eventually(t, func() bool { return s.Conns() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Send(&remote.Telemetry{Frame: 9}))
	require.Equal(t, uint64(9), <-frames)

	cancel()
	require.NoError(t, <-done)
	require.Eventually(t, func() bool { return s.Conns() == 0 }, time.Second, 5*time.Millisecond)
}
