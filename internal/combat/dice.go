package combat

import (
	"math/rand/v2"
	"sync"
)

// Dice produces six-sided die rolls.
type Dice interface {
	Roll() int
}

// RandomDice rolls with a pseudo-random generator.
type RandomDice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDice returns dice seeded from the runtime's random source.
func NewRandomDice() *RandomDice {
	return &RandomDice{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededDice returns reproducible dice.
func NewSeededDice(seed uint64) *RandomDice {
	return &RandomDice{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (d *RandomDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.IntN(6) + 1
}

// FixedDice replays a fixed list of rolls, cycling when exhausted.
type FixedDice struct {
	Rolls []int
	next  int
}

func (d *FixedDice) Roll() int {
	if len(d.Rolls) == 0 {
		return 1
	}
	r := d.Rolls[d.next%len(d.Rolls)]
	d.next++
	return r
}
