package combat

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/units"
)

var (
	// ErrNoTarget is returned when attackers are chosen before a target.
	ErrNoTarget = errors.New("no target selected")
	// ErrInvalidTarget is returned for a target hex without enemy units.
	ErrInvalidTarget = errors.New("target hex holds no enemy units")
	// ErrNotEligible is returned for a unit that can not join the attack.
	ErrNotEligible = errors.New("unit can not attack the target")
	// ErrExchangePending is returned while an exchange is being paid.
	ErrExchangePending = errors.New("exchange losses still owed")
)

// Range returns how far u can attack: two hexes for artillery, one for
// everything else.
func Range(u *units.Unit) int {
	if u.Type == units.Artillery {
		return 2
	}
	return 1
}

// Result reports one resolved attack.
type Result struct {
	Die     int     `json:"die"`
	Odds    Odds    `json:"odds"`
	Outcome Outcome `json:"outcome"`
	// A and D are the raw factor totals, used to allocate exchange losses.
	A int `json:"a"`
	D int `json:"d"`
	// Exchange is set for an EX outcome that left losses to be paid.
	Exchange *Exchange `json:"-"`
}

// Resolver holds the combat state of one side's combat phase: the target,
// the attackers chosen against it, and any exchange still being paid.
type Resolver struct {
	m        *hexmap.Map
	nation   string
	dice     Dice
	target   *hexmap.Hex
	attack   []*units.Unit
	exchange *Exchange
}

// NewResolver starts a combat phase for nation.
func NewResolver(m *hexmap.Map, nation string, dice Dice) *Resolver {
	if dice == nil {
		dice = NewRandomDice()
	}
	return &Resolver{m: m, nation: nation, dice: dice}
}

// Nation returns the attacking side.
func (r *Resolver) Nation() string {
	return r.nation
}

// Target returns the selected target hex, or nil.
func (r *Resolver) Target() *hexmap.Hex {
	return r.target
}

// Attackers returns the chosen attackers in the order they were added.
func (r *Resolver) Attackers() []*units.Unit {
	return r.attack
}

// Exchange returns the exchange being paid, or nil.
func (r *Resolver) Exchange() *Exchange {
	if r.exchange == nil || r.exchange.Done() {
		return nil
	}
	return r.exchange
}

// SetTarget selects a new target and drops the chosen attackers.
func (r *Resolver) SetTarget(h *hexmap.Hex) error {
	if r.Exchange() != nil {
		return ErrExchangePending
	}
	if h == nil || !h.HasEnemyOf(r.nation) {
		return ErrInvalidTarget
	}
	r.target = h
	r.attack = nil
	return nil
}

// Clear drops the target and the attackers.
func (r *Resolver) Clear() {
	r.target = nil
	r.attack = nil
}

// AddAttacker adds u against the target. Units of the other side, units
// that already attacked this phase and units out of range are refused.
// Adding a unit twice has no effect.
func (r *Resolver) AddAttacker(u *units.Unit) error {
	if r.Exchange() != nil {
		return ErrExchangePending
	}
	if r.target == nil {
		return ErrNoTarget
	}
	if u.Nation != r.nation || u.Attacked {
		return fmt.Errorf("%w: %s", ErrNotEligible, u)
	}
	h, ok := r.m.HexOf(u)
	if !ok {
		return fmt.Errorf("%w: %s is not on the map", ErrNotEligible, u)
	}
	if hexgrid.Distance(h.Ax, r.target.Ax) > Range(u) {
		return fmt.Errorf("%w: %s is out of range", ErrNotEligible, u)
	}
	for _, a := range r.attack {
		if a == u {
			return nil
		}
	}
	r.attack = append(r.attack, u)
	return nil
}

// Odds computes the odds of the current attack. An attacker is halved
// when it stands in a river hex or attacks up a slope.
func (r *Resolver) Odds() (Odds, error) {
	if r.target == nil {
		return Odds{}, ErrNoTarget
	}
	attackers := make([]Attacker, 0, len(r.attack))
	for _, u := range r.attack {
		attackers = append(attackers, Attacker{Unit: u, Halved: r.halved(u)})
	}
	return ComputeOdds(attackers, r.target.Units(), r.target.Has(hexmap.Forest))
}

func (r *Resolver) halved(u *units.Unit) bool {
	h, ok := r.m.HexOf(u)
	if !ok {
		return false
	}
	if h.Has(hexmap.River) {
		return true
	}
	i := hexgrid.Direction(h.Ax, r.target.Ax)
	return i >= 0 && h.Edge(i) == hexmap.Upslope
}

// Attack rolls a die and resolves the attack. See Apply.
func (r *Resolver) Attack() (Result, error) {
	return r.AttackWith(r.dice.Roll())
}

// AttackWith resolves the attack with a given die roll.
func (r *Resolver) AttackWith(die int) (Result, error) {
	odds, err := r.Odds()
	if err != nil {
		return Result{}, err
	}
	outcome, err := Resolve(odds.Column, die)
	if err != nil {
		return Result{}, err
	}
	res, err := r.Apply(die, outcome)
	res.Odds = odds
	return res, err
}

// Apply carries out an already known outcome: attackers are marked as
// having attacked; DE removes the defenders, AE the attackers, and EX
// starts an exchange on the raw factor totals. The target and attackers
// are cleared unless an exchange leaves losses to be paid.
func (r *Resolver) Apply(die int, outcome Outcome) (Result, error) {
	switch outcome {
	case AttackerEliminated, DefenderEliminated, Exchanged:
	default:
		return Result{}, fmt.Errorf("unknown combat outcome %q", outcome)
	}
	if r.target == nil {
		return Result{}, ErrNoTarget
	}
	if len(r.attack) == 0 {
		return Result{}, ErrNoAttackers
	}
	defenders := r.target.Units()
	if len(defenders) == 0 {
		return Result{}, ErrNoDefenders
	}

	res := Result{Die: die, Outcome: outcome}
	for _, u := range r.attack {
		u.Attacked = true
		res.A += u.Strength
	}
	for _, u := range defenders {
		res.D += u.Strength
	}

	switch outcome {
	case DefenderEliminated:
		removeAll(r.m, defenders)
	case AttackerEliminated:
		removeAll(r.m, r.attack)
	case Exchanged:
		r.exchange = newExchange(r.m, r.attack, defenders, res.A, res.D)
		if !r.exchange.Done() {
			res.Exchange = r.exchange
			return res, nil
		}
	}
	r.Clear()
	return res, nil
}

// FinishExchange settles any pending exchange and clears the attack.
func (r *Resolver) FinishExchange() {
	if r.exchange != nil {
		r.exchange.Settle()
		r.exchange = nil
	}
	r.Clear()
}

func sortByIndex(us []*units.Unit) {
	sort.Slice(us, func(a, b int) bool { return us[a].Index < us[b].Index })
}
