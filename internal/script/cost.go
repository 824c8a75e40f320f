package script

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/movement"
	"github.com/nfrund/hexgames/internal/units"
)

// costVars declares the variables a cost script sees, with zero values of
// the right types.
var costVars = map[string]any{
	"from_props": "",
	"to_props":   "",
	"edge":       0,
	"edge_code":  "",
	"from_zoc":   false,
	"to_zoc":     false,
	"unit_type":  "",
	"unit_nat":   "",
	"to_enemy":   false,
	"to_count":   0,
	"cost":       nil,
}

// CostScript is a movement cost rule written in Tengo. The script reads
// the step description and must assign an integer to cost, for example:
//
//	cost = 1
//	if text.contains(to_props, "f") { cost = 2 }
type CostScript struct {
	compiled *CompiledScript
}

// NewCostScript compiles s as a cost rule.
func NewCostScript(engine *TengoEngine, s *Script) (*CostScript, error) {
	compiled, err := engine.Compile(s, costVars)
	if err != nil {
		return nil, err
	}
	return &CostScript{compiled: compiled}, nil
}

// Name returns the script name.
func (c *CostScript) Name() string {
	return c.compiled.Script.Name
}

// Cost evaluates the script for one step of u.
func (c *CostScript) Cost(ctx context.Context, u *units.Unit, from, to *hexmap.Hex, edge int) (int, error) {
	run, err := c.compiled.Run(ctx, map[string]any{
		"from_props": from.Props,
		"to_props":   to.Props,
		"edge":       edge,
		"edge_code":  string(from.Edge(edge)),
		"from_zoc":   from.ZOC,
		"to_zoc":     to.ZOC,
		"unit_type":  string(u.Type),
		"unit_nat":   u.Nation,
		"to_enemy":   to.HasEnemyOf(u.Nation),
		"to_count":   to.Count(),
	})
	if err != nil {
		return 0, err
	}

	v := run.Get("cost")
	switch cost := v.Value().(type) {
	case int64:
		return int(cost), nil
	case float64:
		return int(cost), nil
	}
	return 0, NewScriptError(ErrorTypeInvalidResult, c.Name(),
		fmt.Sprintf("cost must be a number, got %s", v.ValueType()), nil)
}

// For returns a movement cost function for u. A failing evaluation is
// logged and makes the step impassable.
func (c *CostScript) For(u *units.Unit) movement.CostFunc {
	return func(from, to *hexmap.Hex, edge int) int {
		cost, err := c.Cost(context.Background(), u, from, to, edge)
		if err != nil {
			slog.Warn("Cost script failed, treating step as impassable",
				"script", c.Name(),
				"from", from.Offset,
				"to", to.Offset,
				"error", err,
			)
			return movement.Impassable
		}
		return cost
	}
}
