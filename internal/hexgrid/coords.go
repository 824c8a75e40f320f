// Package hexgrid provides the coordinate math for hex-grid maps: pixel,
// offset and axial conversions, neighbor enumeration, distance and range.
//
// Offset coordinates address a hex by column and row, with every other row
// (pointy layout) or column (flat layout) shifted by half a hex. Axial
// coordinates are layout independent and are what all graph searches use.
package hexgrid

import "fmt"

// Offset is a column/row hex address. It is only meaningful together with
// the Layout it was produced by.
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (o Offset) String() string {
	return fmt.Sprintf("%d,%d", o.X, o.Y)
}

// Axial is the layout independent q/r hex address.
type Axial struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (a Axial) S() int {
	return -a.Q - a.R
}

// Add returns the component-wise sum of a and b.
func (a Axial) Add(b Axial) Axial {
	return Axial{Q: a.Q + b.Q, R: a.R + b.R}
}

func (a Axial) String() string {
	return fmt.Sprintf("q%d,r%d", a.Q, a.R)
}

// Pixel is a position on the rendered map.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Directions lists the axial offsets of the six neighbors. The order is
// significant: index i is the position in a hex's edge string that
// describes the edge towards neighbor i.
var Directions = [6]Axial{
	{Q: 1, R: -1},
	{Q: 1, R: 0},
	{Q: 0, R: 1},
	{Q: -1, R: 1},
	{Q: -1, R: 0},
	{Q: 0, R: -1},
}

// Opposite returns the direction index pointing back across edge i.
func Opposite(i int) int {
	return (i + 3) % 6
}

// Neighbors returns the six neighbors of a in Directions order. It knows
// nothing about maps; callers filter off-map cells.
func Neighbors(a Axial) [6]Axial {
	var n [6]Axial
	for i, d := range Directions {
		n[i] = a.Add(d)
	}
	return n
}

// Direction returns the index of b in Neighbors(a), or -1 when the two
// cells are not adjacent.
func Direction(a, b Axial) int {
	for i, d := range Directions {
		if a.Add(d) == b {
			return i
		}
	}
	return -1
}

// Distance returns the number of steps between a and b.
func Distance(a, b Axial) int {
	return (abs(a.Q-b.Q) + abs(a.R-b.R) + abs(a.S()-b.S())) / 2
}

// Range returns every cell within n steps of center, center included.
// The order is deterministic: by q, then by r.
func Range(n int, center Axial) []Axial {
	if n < 0 {
		return nil
	}
	cells := make([]Axial, 0, 3*n*(n+1)+1)
	for q := -n; q <= n; q++ {
		for r := max(-n, -q-n); r <= min(n, -q+n); r++ {
			cells = append(cells, Axial{Q: center.Q + q, R: center.R + r})
		}
	}
	return cells
}
