// Package protocol defines the JSON frames two game clients exchange
// through the relay. Gameplay messages carry just enough to replay the
// sender's action; status frames are produced by the relay itself.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/hexgames/internal/hexgrid"
)

var validate = validator.New()

// ErrMalformed is returned for frames that are not valid messages.
var ErrMalformed = errors.New("malformed message")

// Type selects the action a message replays.
type Type string

const (
	NextStep    Type = "nextstep"
	Deployment  Type = "deployment"
	Move        Type = "move"
	Regret      Type = "regret"
	Target      Type = "target"
	AddAttacker Type = "addattacker"
	Attack      Type = "attack"
	RemoveUnit  Type = "removeunit"
	ExDone      Type = "exdone"
)

// Placed is one unit of a deployment message.
type Placed struct {
	I   int            `json:"i" validate:"gte=0"`
	Hex hexgrid.Offset `json:"hex"`
}

// Message is a gameplay frame. Only the fields of its type are set.
type Message struct {
	Type    Type            `json:"type" validate:"required,oneof=nextstep deployment move regret target addattacker attack removeunit exdone"`
	Units   []Placed        `json:"units,omitempty" validate:"dive"`
	I       *int            `json:"i,omitempty" validate:"omitempty,gte=0"`
	Hex     *hexgrid.Offset `json:"hex,omitempty"`
	Die     int             `json:"die,omitempty" validate:"omitempty,min=1,max=6"`
	Outcome string          `json:"outcome,omitempty" validate:"omitempty,oneof=AE DE EX"`
	A       int             `json:"a,omitempty"`
	D       int             `json:"d,omitempty"`
}

// Validate checks the fields required by the message type.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var missing string
	switch m.Type {
	case Deployment:
		if m.Units == nil {
			missing = "units"
		}
	case Move:
		switch {
		case m.I == nil:
			missing = "i"
		case m.Hex == nil:
			missing = "hex"
		}
	case Regret, AddAttacker, RemoveUnit:
		if m.I == nil {
			missing = "i"
		}
	case Target:
		if m.Hex == nil {
			missing = "hex"
		}
	case Attack:
		switch {
		case m.Die == 0:
			missing = "die"
		case m.Outcome == "":
			missing = "outcome"
		}
	}
	if missing != "" {
		return fmt.Errorf("%w: %s message without %s", ErrMalformed, m.Type, missing)
	}
	return nil
}

// Decode parses and validates a gameplay frame.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Encode serializes a gameplay frame.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

func index(i int) *int {
	return &i
}

func hex(h hexgrid.Offset) *hexgrid.Offset {
	return &h
}

// NewNextStep returns a nextstep message.
func NewNextStep() Message {
	return Message{Type: NextStep}
}

// NewDeployment returns a deployment message.
func NewDeployment(units []Placed) Message {
	if units == nil {
		units = []Placed{}
	}
	return Message{Type: Deployment, Units: units}
}

// NewMove returns a move message for unit i.
func NewMove(i int, h hexgrid.Offset) Message {
	return Message{Type: Move, I: index(i), Hex: hex(h)}
}

// NewRegret returns a message taking back the move of unit i.
func NewRegret(i int) Message {
	return Message{Type: Regret, I: index(i)}
}

// NewTarget returns a target selection message.
func NewTarget(h hexgrid.Offset) Message {
	return Message{Type: Target, Hex: hex(h)}
}

// NewAddAttacker returns a message adding unit i to the attack.
func NewAddAttacker(i int) Message {
	return Message{Type: AddAttacker, I: index(i)}
}

// NewAttack returns an attack result message. The factor totals are only
// sent with an exchange.
func NewAttack(die int, outcome string, a, d int) Message {
	m := Message{Type: Attack, Die: die, Outcome: outcome}
	if outcome == "EX" {
		m.A, m.D = a, d
	}
	return m
}

// NewRemoveUnit returns a message removing unit i as exchange payment.
func NewRemoveUnit(i int) Message {
	return Message{Type: RemoveUnit, I: index(i)}
}

// NewExDone returns the message closing an exchange.
func NewExDone() Message {
	return Message{Type: ExDone}
}
