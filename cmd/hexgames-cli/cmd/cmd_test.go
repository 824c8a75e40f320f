package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hexgames/internal/game"
	"github.com/nfrund/hexgames/internal/peer"
	"github.com/nfrund/hexgames/internal/protocol"
	"github.com/nfrund/hexgames/internal/pubsub"
	"github.com/nfrund/hexgames/internal/relay"
	"github.com/nfrund/hexgames/internal/savegame"
)

// run executes the CLI with args against an in-memory filesystem and
// returns what it printed.
func run(t *testing.T, mem afero.Fs, args ...string) (string, error) {
	t.Helper()
	fsys = mem
	watch = false
	pixelX, pixelY, pixelHex, pixelScenario, pixelSize, pixelScale, pixelFlat = 0, 0, "", "", 0, 1, false
	pixelOrigin.X, pixelOrigin.Y = 0, 0
	reachUnit, reachAt, reachPoints, reachScript, reachEnemies, reachFormat = "", "", 0, "", nil, "table"
	oddsAttack, oddsHalved, oddsDefend, oddsForest, oddsDie = "", "", "", false, 0
	savesDir, savesFormat = "", "table"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	mem := afero.NewMemMapFs()

	out, err := run(t, mem, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ The Hill: 28x23 hexes, English (12 units) vs French (17 units)")
	assert.Contains(t, out, "Objectives: 3 hexes")
	assert.Contains(t, out, "France: 17 units, 64 deployment hexes, must take every objective")

	require.NoError(t, afero.WriteFile(mem, "bad.json", []byte(`{"name":"Bad","sides":[]}`), 0o644))
	out, err = run(t, mem, "validate", "bad.json")
	assert.Error(t, err)
	assert.Contains(t, out, "❌")

	_, err = run(t, mem, "validate", "no-such-scenario")
	assert.Error(t, err)

	_, err = run(t, mem, "validate", "--watch")
	assert.Error(t, err)
}

func TestPixel(t *testing.T) {
	mem := afero.NewMemMapFs()

	out, err := run(t, mem, "pixel", "--x", "2563", "--y", "1434",
		"--size", "58.7", "--scale", "0.988", "--ox", "57", "--oy", "23")
	require.NoError(t, err)
	assert.Contains(t, out, "Offset: 44,29")
	assert.Contains(t, out, "Axial:  q30,r29")
	assert.Contains(t, out, "Center: (2555,1450)")

	out, err = run(t, mem, "pixel", "--hex", "4,0", "--size", "60", "--flat")
	require.NoError(t, err)
	assert.Contains(t, out, "Axial:  q4,r-2")

	_, err = run(t, mem, "pixel", "--hex", "four")
	assert.Error(t, err)
}

func TestReach(t *testing.T) {
	mem := afero.NewMemMapFs()

	out, err := run(t, mem, "reach", "--unit", "fr,inf", "--at", "3,20", "--mp", "1", "--format", "json")
	require.NoError(t, err)
	var got struct {
		Unit      string `json:"unit"`
		Points    int    `json:"points"`
		Reachable []struct {
			Left int `json:"left"`
		} `json:"reachable"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Points)
	assert.True(t, strings.HasPrefix(got.Unit, "fr,inf,"))
	assert.Len(t, got.Reachable, 6)

	t.Run("scripted cost", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(mem, "flat.tengo", []byte("cost = 2"), 0o644))
		out, err := run(t, mem, "reach", "--unit", "fr,inf", "--at", "3,20", "--mp", "1", "--script", "flat.tengo")
		require.NoError(t, err)
		assert.Contains(t, out, "No hex reachable")
	})

	t.Run("enemy zone of control", func(t *testing.T) {
		out, err := run(t, mem, "reach", "--unit", "fr,inf", "--at", "3,20", "--enemy", "en,inf@3,18", "--format", "json")
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.NotEmpty(t, got.Reachable)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := run(t, mem, "reach", "--unit", "xx")
		assert.Error(t, err)
		_, err = run(t, mem, "reach", "--unit", "fr,inf")
		assert.ErrorContains(t, err, "not on the map")
		_, err = run(t, mem, "reach", "--unit", "fr,inf", "--at", "3,20", "--enemy", "fr,cav@3,18")
		assert.ErrorContains(t, err, "not an enemy")
		_, err = run(t, mem, "reach", "--unit", "fr,inf", "--at", "3,20", "--format", "xml")
		assert.Error(t, err)
	})
}

func TestOdds(t *testing.T) {
	mem := afero.NewMemMapFs()

	out, err := run(t, mem, "odds", "--attack", "6", "--defend", "3", "--die", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "column 3")
	assert.Contains(t, out, "5: DE (Defender Eliminated)")

	out, err = run(t, mem, "odds", "--attack", "1", "--defend", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "column 0")
	assert.Contains(t, out, "before clamping")
	assert.Equal(t, 6, strings.Count(out, "  "))

	_, err = run(t, mem, "odds", "--defend", "3")
	assert.Error(t, err)
	_, err = run(t, mem, "odds", "--attack", "x", "--defend", "3")
	assert.Error(t, err)
}

func TestSaves(t *testing.T) {
	mem := afero.NewMemMapFs()
	store := savegame.NewAferoStore(mem, "games")
	_, err := store.Save(context.Background(), "monday", game.Save{
		Version:  game.SaveVersion,
		Scenario: "The Hill",
		Turn:     game.Turn{Clock: game.Clock{H: 10, M: 15}, Player: "French", Phase: "Movement"},
	})
	require.NoError(t, err)

	out, err := run(t, mem, "saves", "list", "--dir", "games")
	require.NoError(t, err)
	assert.Contains(t, out, "monday")
	assert.Contains(t, out, "10:15")

	out, err = run(t, mem, "saves", "show", "monday", "--dir", "games")
	require.NoError(t, err)
	assert.Contains(t, out, "Player:   French")

	_, err = run(t, mem, "saves", "delete", "monday", "--dir", "games")
	require.NoError(t, err)
	_, err = run(t, mem, "saves", "show", "monday", "--dir", "games")
	assert.ErrorIs(t, err, savegame.ErrNotFound)
}

func TestConnect(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()
	r := relay.New(bus, nil)
	e := echo.New()
	r.Register(e, nil)
	srv := httptest.NewServer(e)
	defer srv.Close()
	defer r.Shutdown()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	done := make(chan struct{})
	var out string
	var err error
	go func() {
		defer close(done)
		out, err = run(t, afero.NewMemMapFs(), "connect", url)
	}()

	require.Eventually(t, func() bool {
		n, _ := r.Peers()
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	opponent, err2 := peer.Dial(ctx, url, nil)
	require.NoError(t, err2)
	_, err2 = opponent.Receive()
	require.NoError(t, err2)
	require.NoError(t, opponent.Send(protocol.NewNextStep()))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, opponent.Close())

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("connect did not return")
	}
	require.NoError(t, err)
	assert.Contains(t, out, "status: waiting")
	assert.Contains(t, out, "status: connected as French")
	assert.Contains(t, out, `nextstep: {"type":"nextstep"}`)
	assert.Contains(t, out, "status: disconnected")
}
