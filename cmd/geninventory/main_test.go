package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-mirror/internal/domain"
	"github.com/couchcryptid/climate-mirror/internal/inventory"
)

// TestGeneratedInventoryParses pins the generate-then-parse round trip: the
// inventory parser must accept exactly what this command writes, preamble
// and header quoting included.
func TestGeneratedInventoryParses(t *testing.T) {
	out := filepath.Join(t.TempDir(), "inventory.csv")
	require.NoError(t, generate(out, 40, 7))

	var stations []domain.Station
	err := inventory.NewFile(out).Stations(context.Background(), func(s domain.Station) error {
		stations = append(stations, s)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, stations, 40)

	withUnits := 0
	for _, s := range stations {
		assert.GreaterOrEqual(t, s.StationID, 1000)
		assert.NotEmpty(t, s.Name)
		if units := s.Units(); len(units) > 0 {
			withUnits++
			assert.Equal(t, *s.DlyFirstYear, units[0].Year)
			assert.Equal(t, *s.DlyLastYear, units[len(units)-1].Year)
		}
	}
	assert.Positive(t, withUnits, "most generated stations carry daily bounds")
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, generate(a, 10, 42))
	require.NoError(t, generate(b, 10, 42))

	rowsA := readRows(t, a)
	rowsB := readRows(t, b)
	assert.Equal(t, rowsA, rowsB)
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	var rows [][]string
	err := inventory.NewFile(path).Stations(context.Background(), func(s domain.Station) error {
		rows = append(rows, []string{s.Name, s.Province, s.ClimateID})
		return nil
	})
	require.NoError(t, err)
	return rows
}
