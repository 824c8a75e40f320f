package hexgrid

import (
	"math"

	"golang.org/x/exp/constraints"
)

func abs[T constraints.Signed](v T) T {
	if v >= 0 {
		return v
	}
	return -v
}

// floorDiv divides rounding towards negative infinity, so odd negative
// rows and columns land on the same side as positive ones.
func floorDiv[T constraints.Signed](a, b T) T {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func isOdd[T constraints.Integer](v T) bool {
	return v&1 == 1
}

// roundHalfUp rounds .5 towards positive infinity, which keeps negative
// pixel positions consistent with positive ones.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
