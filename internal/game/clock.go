package game

import "fmt"

// Clock is the game time of the current turn.
type Clock struct {
	H int `json:"h" validate:"gte=0,lt=24"`
	M int `json:"m" validate:"gte=0,lt=60"`
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.H, c.M)
}

// Before reports whether c is earlier than o.
func (c Clock) Before(o Clock) bool {
	return c.H < o.H || (c.H == o.H && c.M < o.M)
}

// Add returns c advanced by minutes.
func (c Clock) Add(minutes int) Clock {
	t := c.H*60 + c.M + minutes
	return Clock{H: t / 60, M: t % 60}
}
