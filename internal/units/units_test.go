package units_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/units"
)

func testPopulation(t *testing.T) *units.Population {
	t.Helper()
	pop, err := units.NewPopulation([]*units.Unit{
		{Nation: "ge", Type: units.Infantry, Stat: "3-3", Label: "Alp", Strength: 3, Movement: 3},
		{Nation: "ge", Type: units.Infantry, Stat: "3-3", Strength: 3, Movement: 3},
		{Nation: "ge", Type: units.Infantry, Stat: "3-3", Strength: 3, Movement: 3},
		{Nation: "fr", Type: units.Cavalry, Size: "II", Label: "1", Strength: 3, Movement: 6},
	})
	require.NoError(t, err)
	return pop
}

func TestFormat(t *testing.T) {
	u := &units.Unit{Nation: "fr", Type: units.Infantry, Stat: "4-4", Size: "II", Label: "1"}
	assert.Equal(t, "fr,inf,4-4,II,1", units.Format(u))

	t.Run("Absent fields serialize as empty strings", func(t *testing.T) {
		u := &units.Unit{Nation: "ge", Type: units.General}
		assert.Equal(t, "ge,gen,,,", units.Format(u))
	})

	t.Run("Stat text derives from strength and movement", func(t *testing.T) {
		u := &units.Unit{Nation: "fr", Type: units.Cavalry, Strength: 3, Movement: 6}
		assert.Equal(t, "fr,cav,3-6,,", units.Format(u))
	})
}

func TestQuery(t *testing.T) {
	pop := testPopulation(t)

	t.Run("Absent fields are wildcards", func(t *testing.T) {
		u, ok := pop.FindFirst(units.ParseQuery("ge,inf"), nil)
		require.True(t, ok)
		assert.Equal(t, 0, u.Index)
	})

	t.Run("Empty fields must match empty values", func(t *testing.T) {
		u, ok := pop.FindFirst(units.ParseQuery("ge,inf,3-3,,"), nil)
		require.True(t, ok)
		assert.Equal(t, 1, u.Index)
	})

	t.Run("Skip filter excludes already selected units", func(t *testing.T) {
		selected := map[int]bool{1: true}
		u, ok := pop.FindFirst(units.ParseQuery("ge,inf,3-3,,"), func(u *units.Unit) bool {
			return selected[u.Index]
		})
		require.True(t, ok)
		assert.Equal(t, 2, u.Index)
	})

	t.Run("No match", func(t *testing.T) {
		_, ok := pop.FindFirst(units.ParseQuery("ru,inf"), nil)
		assert.False(t, ok)
	})

	t.Run("Empty query matches anything", func(t *testing.T) {
		u, ok := pop.FindFirst(units.ParseQuery(""), nil)
		require.True(t, ok)
		assert.Equal(t, 0, u.Index)
	})

	t.Run("String marks wildcards", func(t *testing.T) {
		assert.Equal(t, "ge,inf", units.ParseQuery("ge,inf").String())
	})
}

func TestDescriptorRoundTrip(t *testing.T) {
	pop := testPopulation(t)
	for _, u := range pop.All() {
		found, ok := pop.FindFirst(units.ParseQuery(units.Format(u)), nil)
		require.True(t, ok, "unit %s", u)
		// Identical counters are interchangeable: the descriptor selects
		// the first one, which formats the same.
		assert.Equal(t, units.Format(u), units.Format(found))
	}
}

func TestNewPopulationValidation(t *testing.T) {
	_, err := units.NewPopulation([]*units.Unit{
		{Nation: "fr", Type: units.Infantry, Strength: 4, Movement: 4},
		{Type: units.Infantry},
		{Nation: "en", Type: units.Cavalry, Strength: -1},
		nil,
	})
	require.Error(t, err)

	var cfgErr *units.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Len(t, cfgErr.Problems, 3)
}

func TestDeploymentAndResolve(t *testing.T) {
	pop := testPopulation(t)
	all := pop.All()
	all[0].Hex = &hexgrid.Offset{X: 1, Y: 1}
	all[1].Hex = &hexgrid.Offset{X: 2, Y: 1}
	all[3].Hex = &hexgrid.Offset{X: 5, Y: 5}

	dep := pop.Deployment()
	require.Len(t, dep, 3)
	assert.Equal(t, "ge,inf,3-3,,Alp", dep[0].Unit)
	assert.Equal(t, "ge,inf,3-3,,", dep[1].Unit, "generic descriptors sort after specific ones")
	assert.Equal(t, "fr,cav,3-6,II,1", dep[2].Unit)
	require.NotNil(t, dep[2].Index)
	assert.Equal(t, 3, *dep[2].Index)

	t.Run("Resolve by descriptor", func(t *testing.T) {
		u, err := pop.Resolve(units.Placement{Unit: "fr,cav,3-6,II,1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, u.Index)
	})

	t.Run("Resolve prefers the index", func(t *testing.T) {
		i := 2
		u, err := pop.Resolve(units.Placement{Unit: "ge,inf,3-3,,", Index: &i}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, u.Index)
	})

	t.Run("Unknown unit", func(t *testing.T) {
		_, err := pop.Resolve(units.Placement{Unit: "xx,inf"}, nil)
		assert.ErrorIs(t, err, units.ErrUnknownUnit)
	})
}

func TestResetTurn(t *testing.T) {
	pop := testPopulation(t)
	for _, u := range pop.All() {
		u.Moved, u.Attacked = true, true
	}
	pop.ResetTurn("fr")
	assert.False(t, pop.All()[3].Moved)
	assert.True(t, pop.All()[0].Moved)
}
