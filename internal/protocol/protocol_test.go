package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/protocol"
)

func TestEncodeWireFormat(t *testing.T) {
	tests := []struct {
		name string
		msg  protocol.Message
		want string
	}{
		{"Next step", protocol.NewNextStep(), `{"type":"nextstep"}`},
		{"Move of unit zero keeps the index", protocol.NewMove(0, hexgrid.Offset{X: 3, Y: 4}), `{"type":"move","i":0,"hex":{"x":3,"y":4}}`},
		{"Deployment", protocol.NewDeployment([]protocol.Placed{{I: 2, Hex: hexgrid.Offset{X: 1, Y: 1}}}), `{"type":"deployment","units":[{"i":2,"hex":{"x":1,"y":1}}]}`},
		{"Empty deployment", protocol.NewDeployment(nil), `{"type":"deployment","units":[]}`},
		{"Attack without exchange", protocol.NewAttack(4, "DE", 6, 3), `{"type":"attack","die":4,"outcome":"DE"}`},
		{"Attack with exchange", protocol.NewAttack(1, "EX", 11, 3), `{"type":"attack","die":1,"outcome":"EX","a":11,"d":3}`},
		{"Exchange done", protocol.NewExDone(), `{"type":"exdone"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := protocol.Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			back, err := protocol.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.msg.Type, back.Type)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"Not JSON", `hello`},
		{"Unknown type", `{"type":"teleport"}`},
		{"Missing type", `{"i":1}`},
		{"Move without hex", `{"type":"move","i":1}`},
		{"Move without index", `{"type":"move","hex":{"x":1,"y":1}}`},
		{"Target without hex", `{"type":"target"}`},
		{"Attack without die", `{"type":"attack","outcome":"DE"}`},
		{"Die out of range", `{"type":"attack","die":7,"outcome":"DE"}`},
		{"Unknown outcome", `{"type":"attack","die":3,"outcome":"XX"}`},
		{"Negative index", `{"type":"removeunit","i":-1}`},
		{"Deployment without units", `{"type":"deployment"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.Decode([]byte(tt.frame))
			assert.ErrorIs(t, err, protocol.ErrMalformed)
		})
	}
}

func TestStatus(t *testing.T) {
	data := protocol.EncodeStatus(protocol.Status{Status: protocol.StatusConnected, Player: protocol.PlayerFrench})
	assert.JSONEq(t, `{"status":"connected","player":"French"}`, string(data))
	assert.JSONEq(t, `{"status":"waiting"}`, string(protocol.EncodeStatus(protocol.Status{Status: protocol.StatusWaiting})))

	s, err := protocol.DecodeStatus(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.PlayerFrench, s.Player)

	_, err = protocol.DecodeStatus([]byte(`{"type":"nextstep"}`))
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}
