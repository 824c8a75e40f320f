package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/hexgames/internal/hexgrid"
)

var (
	pixelX, pixelY float64
	pixelHex       string
	pixelScenario  string
	pixelFlat      bool
	pixelSize      float64
	pixelScale     float64
	pixelOrigin    hexgrid.Pixel
)

var pixelCmd = &cobra.Command{
	Use:   "pixel",
	Short: "Convert between pixel, offset and axial coordinates",
	Long: `Convert a pixel position to the hex under it, or a hex (--hex x,y) to its
pixel position. The grid layout comes from a scenario unless --size is
given.

Examples:
  hexgames-cli pixel --x 2563 --y 1434 --size 58.7 --scale 0.988 --ox 57 --oy 23
  hexgames-cli pixel --hex 14,11`,
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := pixelLayout()
		if err != nil {
			return err
		}
		var off hexgrid.Offset
		if pixelHex != "" {
			if off, err = parseOffset(pixelHex); err != nil {
				return err
			}
		} else {
			off = layout.PixelToOffset(hexgrid.Pixel{X: pixelX, Y: pixelY})
			fmt.Fprintf(cmd.OutOrStdout(), "Pixel:  (%g,%g)\n", pixelX, pixelY)
		}
		p := layout.OffsetToPixel(off)
		fmt.Fprintf(cmd.OutOrStdout(), "Offset: %s\nAxial:  %s\nCenter: (%g,%g)\n",
			off, layout.OffsetToAxial(off), p.X, p.Y)
		return nil
	},
}

func init() {
	f := pixelCmd.Flags()
	f.Float64Var(&pixelX, "x", 0, "pixel x")
	f.Float64Var(&pixelY, "y", 0, "pixel y")
	f.StringVar(&pixelHex, "hex", "", "offset coordinate x,y to convert instead of a pixel")
	f.StringVar(&pixelScenario, "scenario", "", "scenario whose layout to use")
	f.Float64Var(&pixelSize, "size", 0, "hex size, overriding the scenario layout")
	f.Float64Var(&pixelScale, "scale", 1, "row scale used with --size")
	f.BoolVar(&pixelFlat, "flat", false, "flat-topped hexes, used with --size")
	f.Float64Var(&pixelOrigin.X, "ox", 0, "grid offset x, used with --size")
	f.Float64Var(&pixelOrigin.Y, "oy", 0, "grid offset y, used with --size")
	rootCmd.AddCommand(pixelCmd)
}

func pixelLayout() (hexgrid.Layout, error) {
	if pixelSize > 0 {
		return hexgrid.NewLayout(pixelSize, pixelScale, pixelOrigin, pixelFlat)
	}
	sc, err := loadScenario(pixelScenario)
	if err != nil {
		return hexgrid.Layout{}, err
	}
	return sc.Layout, nil
}

// parseOffset reads an "x,y" coordinate.
func parseOffset(s string) (hexgrid.Offset, error) {
	var off hexgrid.Offset
	if _, err := fmt.Sscanf(s, "%d,%d", &off.X, &off.Y); err != nil {
		return off, fmt.Errorf("invalid hex %q, want x,y: %w", s, err)
	}
	return off, nil
}
