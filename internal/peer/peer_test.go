package peer

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hexgames/internal/game"
	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/protocol"
	"github.com/nfrund/hexgames/internal/pubsub"
	"github.com/nfrund/hexgames/internal/relay"
)

func startRelay(t *testing.T) string {
	t.Helper()
	bus := pubsub.NewWatermillBridge()
	r := relay.New(bus, nil)
	e := echo.New()
	r.Register(e, nil)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		r.Shutdown()
		srv.Close()
		bus.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func receive(t *testing.T, c *Conn) Event {
	t.Helper()
	require.NoError(t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	ev, err := c.Receive()
	require.NoError(t, err)
	return ev
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		status  string
		msgType protocol.Type
		err     error
	}{
		{name: "waiting", frame: `{"status":"waiting"}`, status: protocol.StatusWaiting},
		{name: "connected", frame: `{"status":"connected","player":"French"}`, status: protocol.StatusConnected},
		{name: "disconnected", frame: `{"status":"disconnected"}`, status: protocol.StatusDisconnected, err: ErrDisconnected},
		{name: "busy", frame: `{"status":"busy"}`, status: protocol.StatusBusy, err: ErrBusy},
		{name: "message", frame: `{"type":"nextstep"}`, msgType: protocol.NextStep},
		{name: "garbage", frame: `not json`, err: protocol.ErrMalformed},
		{name: "invalid message", frame: `{"type":"move"}`, err: protocol.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parse([]byte(tt.frame))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}
			if tt.status != "" {
				require.NotNil(t, ev.Status)
				assert.Equal(t, tt.status, ev.Status.Status)
			}
			if tt.msgType != "" {
				require.NotNil(t, ev.Message)
				assert.Equal(t, tt.msgType, ev.Message.Type)
			}
		})
	}
}

func TestGameOverRelay(t *testing.T) {
	url := startRelay(t)
	sc, err := game.Builtin(game.DefaultScenario)
	require.NoError(t, err)

	french := dial(t, url)
	ev := receive(t, french)
	require.NotNil(t, ev.Status)
	assert.Equal(t, protocol.StatusWaiting, ev.Status.Status)

	english := dial(t, url)

	newSession := func(c *Conn) *game.Session {
		s, err := game.NewSession(sc, game.Options{Sender: c})
		require.NoError(t, err)
		require.NoError(t, s.Start())
		return s
	}
	fr, en := newSession(french), newSession(english)

	require.NoError(t, Apply(fr, receive(t, french), slog.Default()))
	require.NoError(t, Apply(en, receive(t, english), slog.Default()))
	assert.Equal(t, protocol.PlayerFrench, fr.Me())
	assert.Equal(t, protocol.PlayerEnglish, en.Me())

	// England deploys first.
	require.True(t, en.MyTurn())
	require.False(t, fr.MyTurn())
	left, err := en.AutoDeploy()
	require.NoError(t, err)
	require.Zero(t, left)
	require.NoError(t, en.Next())

	deployment := receive(t, french)
	require.NotNil(t, deployment.Message)
	assert.Equal(t, protocol.Deployment, deployment.Message.Type)
	require.NoError(t, Apply(fr, deployment, slog.Default()))

	next := receive(t, french)
	require.NotNil(t, next.Message)
	assert.Equal(t, protocol.NextStep, next.Message.Type)
	require.NoError(t, Apply(fr, next, slog.Default()))

	assert.True(t, fr.MyTurn())
	assert.Equal(t, "French Deployment", fr.Step())
	for _, u := range en.Units().Nation("en") {
		mirror, err := fr.Units().Get(u.Index)
		require.NoError(t, err)
		require.NotNil(t, u.Hex)
		require.NotNil(t, mirror.Hex)
		assert.Equal(t, *u.Hex, *mirror.Hex, "unit %d", u.Index)
	}

	t.Run("leaving ends the channel", func(t *testing.T) {
		require.NoError(t, english.Close())
		require.NoError(t, french.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, err := french.Receive()
		assert.ErrorIs(t, err, ErrDisconnected)
		assert.ErrorIs(t, french.Send(protocol.NewNextStep()), ErrDisconnected)
	})
}

func TestRun(t *testing.T) {
	url := startRelay(t)
	a := dial(t, url)
	b := dial(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var statuses []string
	var messages []protocol.Type
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx, func(ev Event) error {
			switch {
			case ev.Status != nil:
				statuses = append(statuses, ev.Status.Status)
				if ev.Status.Status == protocol.StatusConnected {
					return nil
				}
			case ev.Message != nil:
				messages = append(messages, ev.Message.Type)
				if len(messages) == 2 {
					b.Close()
				}
				return errors.New("ignored")
			}
			return nil
		})
	}()

	require.NoError(t, b.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := b.Receive()
	require.NoError(t, err)
	require.NoError(t, b.Send(protocol.NewNextStep()))
	require.NoError(t, b.Send(protocol.NewExDone()))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrDisconnected)
	case <-ctx.Done():
		t.Fatal("run did not end")
	}
	assert.Equal(t, []string{protocol.StatusWaiting, protocol.StatusConnected}, statuses)
	assert.Equal(t, []protocol.Type{protocol.NextStep, protocol.ExDone}, messages)
}

func TestRunEndsOnDesync(t *testing.T) {
	url := startRelay(t)
	french := dial(t, url)
	english := dial(t, url)

	sc, err := game.Builtin(game.DefaultScenario)
	require.NoError(t, err)
	fr, err := game.NewSession(sc, game.Options{Sender: french})
	require.NoError(t, err)
	require.NoError(t, fr.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- french.Run(ctx, func(ev Event) error {
			return Apply(fr, ev, slog.Default())
		})
	}()

	assert.Equal(t, protocol.StatusConnected, receive(t, english).Status.Status)
	// Unit 9999 does not exist on the French side.
	require.NoError(t, english.Send(protocol.NewMove(9999, hexgrid.Offset{X: 1, Y: 1})))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, game.ErrDesync)
	case <-ctx.Done():
		t.Fatal("run did not end")
	}
	assert.ErrorIs(t, french.Send(protocol.NewNextStep()), ErrDisconnected)
}
