package hexgrid

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// rowBias shifts the row estimate so a click in the upper third of a hex,
// which overlaps the previous row's zig-zag, still rounds to this row.
const rowBias = 5.0 / 12.0

var validate = validator.New()

// Layout describes how a grid is laid over a map image. HexSize is the
// width of a hex for pointy layouts and the height for flat ones, Scale
// stretches the other axis, and Offset aligns the grid with the image.
type Layout struct {
	HexSize float64 `json:"hexSize" validate:"gt=0"`
	Scale   float64 `json:"scale" validate:"gt=0"`
	Offset  Pixel   `json:"offset"`
	Flat    bool    `json:"flat"`
}

// NewLayout returns a validated pointy or flat layout.
func NewLayout(size, scale float64, offset Pixel, flat bool) (Layout, error) {
	l := Layout{HexSize: size, Scale: scale, Offset: offset, Flat: flat}
	return l, l.Validate()
}

// Validate reports a non-positive size or scale.
func (l Layout) Validate() error {
	return validate.Struct(l)
}

// rowSpacing is the distance between neighboring rows (pointy) or
// columns (flat).
func (l Layout) rowSpacing() float64 {
	return l.HexSize * l.Scale * math.Sqrt(3) / 2
}

// PixelToOffset returns the hex containing p. A position close to a hex
// boundary may resolve to the neighboring hex.
func (l Layout) PixelToOffset(p Pixel) Offset {
	major, minor := p.Y+l.Offset.Y, p.X+l.Offset.X
	if l.Flat {
		major, minor = p.X+l.Offset.X, p.Y+l.Offset.Y
	}
	line := roundHalfUp(major/l.rowSpacing() - rowBias)
	var pos int
	if isOdd(line) {
		pos = roundHalfUp(minor/l.HexSize - 0.5)
	} else {
		pos = roundHalfUp(minor / l.HexSize)
	}
	if l.Flat {
		return Offset{X: line, Y: pos}
	}
	return Offset{X: pos, Y: line}
}

// OffsetToPixel returns the rounded center of hex h.
func (l Layout) OffsetToPixel(h Offset) Pixel {
	line, pos := h.Y, h.X
	if l.Flat {
		line, pos = h.X, h.Y
	}
	s := l.rowSpacing()
	major := roundHalfUp(float64(line)*s + s/3)
	var minor int
	if isOdd(line) {
		minor = roundHalfUp(float64(pos)*l.HexSize + l.HexSize/2)
	} else {
		minor = roundHalfUp(float64(pos) * l.HexSize)
	}
	if l.Flat {
		return Pixel{X: float64(major) - l.Offset.X, Y: float64(minor) - l.Offset.Y}
	}
	return Pixel{X: float64(minor) - l.Offset.X, Y: float64(major) - l.Offset.Y}
}

// OffsetToAxial converts an offset address to axial.
func (l Layout) OffsetToAxial(h Offset) Axial {
	if l.Flat {
		return Axial{Q: h.X, R: h.Y - floorDiv(h.X, 2)}
	}
	return Axial{Q: h.X - floorDiv(h.Y, 2), R: h.Y}
}

// AxialToOffset is the exact inverse of OffsetToAxial.
func (l Layout) AxialToOffset(a Axial) Offset {
	if l.Flat {
		return Offset{X: a.Q, Y: a.R + floorDiv(a.Q, 2)}
	}
	return Offset{X: a.Q + floorDiv(a.R, 2), Y: a.R}
}
