package hexgrid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hexgames/internal/hexgrid"
)

func TestPixelConversion(t *testing.T) {
	t.Run("Near hex click resolves to hex and back to its center", func(t *testing.T) {
		l, err := hexgrid.NewLayout(58.7, 0.988, hexgrid.Pixel{X: 57, Y: 23}, false)
		require.NoError(t, err)

		h := l.PixelToOffset(hexgrid.Pixel{X: 2563, Y: 1434})
		assert.Equal(t, hexgrid.Offset{X: 44, Y: 29}, h)

		assert.Equal(t, hexgrid.Pixel{X: 2555, Y: 1450}, l.OffsetToPixel(h))
	})

	layouts := map[string]hexgrid.Layout{
		"pointy":        {HexSize: 50, Scale: 1},
		"pointy offset": {HexSize: 58.7, Scale: 0.988, Offset: hexgrid.Pixel{X: 57, Y: 23}},
		"flat":          {HexSize: 50, Scale: 1, Flat: true},
		"flat scaled":   {HexSize: 40, Scale: 1.2, Offset: hexgrid.Pixel{X: -10, Y: 5}, Flat: true},
	}
	for name, l := range layouts {
		t.Run("Hex centers are stable under a round trip: "+name, func(t *testing.T) {
			for x := -3; x < 40; x++ {
				for y := -3; y < 40; y++ {
					h := hexgrid.Offset{X: x, Y: y}
					assert.Equal(t, h, l.PixelToOffset(l.OffsetToPixel(h)), "hex %v", h)
				}
			}
		})
	}
}

func TestAxialConversion(t *testing.T) {
	t.Run("Pointy", func(t *testing.T) {
		l := hexgrid.Layout{HexSize: 50, Scale: 1}
		ax := l.OffsetToAxial(hexgrid.Offset{X: 44, Y: 29})
		assert.Equal(t, hexgrid.Axial{Q: 30, R: 29}, ax)
		assert.Equal(t, hexgrid.Offset{X: 44, Y: 29}, l.AxialToOffset(ax))
	})

	t.Run("Flat", func(t *testing.T) {
		l := hexgrid.Layout{HexSize: 50, Scale: 1, Flat: true}
		ax := l.OffsetToAxial(hexgrid.Offset{X: 4, Y: 0})
		assert.Equal(t, hexgrid.Axial{Q: 4, R: -2}, ax)
		assert.Equal(t, hexgrid.Offset{X: 4, Y: 0}, l.AxialToOffset(ax))
	})

	t.Run("Round trip is exact including negative coordinates", func(t *testing.T) {
		for _, flat := range []bool{false, true} {
			l := hexgrid.Layout{HexSize: 50, Scale: 1, Flat: flat}
			for x := -25; x <= 25; x++ {
				for y := -25; y <= 25; y++ {
					h := hexgrid.Offset{X: x, Y: y}
					require.Equal(t, h, l.AxialToOffset(l.OffsetToAxial(h)), "flat=%v hex %v", flat, h)
				}
			}
		}
	})
}

func TestLayoutValidation(t *testing.T) {
	_, err := hexgrid.NewLayout(0, 1, hexgrid.Pixel{}, false)
	assert.Error(t, err, "zero hex size must be rejected")

	_, err = hexgrid.NewLayout(50, -1, hexgrid.Pixel{}, true)
	assert.Error(t, err, "negative scale must be rejected")
}

func TestNeighbors(t *testing.T) {
	ax := hexgrid.Axial{Q: 10, R: 10}
	expected := [6]hexgrid.Axial{
		{Q: 11, R: 9},
		{Q: 11, R: 10},
		{Q: 10, R: 11},
		{Q: 9, R: 11},
		{Q: 9, R: 10},
		{Q: 10, R: 9},
	}
	assert.Equal(t, expected, hexgrid.Neighbors(ax))

	t.Run("Opposite direction points back", func(t *testing.T) {
		for i, n := range hexgrid.Neighbors(ax) {
			back := hexgrid.Neighbors(n)
			assert.Equal(t, ax, back[hexgrid.Opposite(i)], "direction %d", i)
			assert.Equal(t, i, hexgrid.Direction(ax, n))
			assert.Equal(t, 1, hexgrid.Distance(ax, n))
		}
	})

	t.Run("Direction of non-adjacent cells", func(t *testing.T) {
		assert.Equal(t, -1, hexgrid.Direction(ax, hexgrid.Axial{Q: 12, R: 10}))
		assert.Equal(t, -1, hexgrid.Direction(ax, ax))
	})
}

func TestRange(t *testing.T) {
	center := hexgrid.Axial{Q: 10, R: 10}
	sizes := []int{1, 7, 19, 37, 61}
	for n, size := range sizes {
		cells := hexgrid.Range(n, center)
		assert.Len(t, cells, size, "range %d", n)
		for _, c := range cells {
			assert.LessOrEqual(t, hexgrid.Distance(center, c), n)
		}
	}
	assert.Empty(t, hexgrid.Range(-1, center))
}

func TestDistance(t *testing.T) {
	a := hexgrid.Axial{Q: 0, R: 0}
	assert.Equal(t, 0, hexgrid.Distance(a, a))
	assert.Equal(t, 3, hexgrid.Distance(a, hexgrid.Axial{Q: 3, R: -3}))
	assert.Equal(t, 4, hexgrid.Distance(a, hexgrid.Axial{Q: -1, R: 4}))
}
