package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/climate-mirror/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `"Name","Province","Climate ID","Station ID","WMO ID","TC ID","Latitude (Decimal Degrees)","Longitude (Decimal Degrees)","Latitude","Longitude","Elevation (m)","First Year","Last Year","HLY First Year","HLY Last Year","DLY First Year","DLY Last Year","MLY First Year","MLY Last Year"`

const preamble = `Modified Date: 2024-05-01
Contact climate.services@ec.gc.ca for assistance
`

func collect(t *testing.T, raw string) []domain.Station {
	t.Helper()
	var out []domain.Station
	err := parse(context.Background(), strings.NewReader(raw), func(s domain.Station) error {
		out = append(out, s)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestParse_SkipsPreamble(t *testing.T) {
	raw := preamble + header + "\n" +
		`"CHELSEA","QUEBEC","7031360","5585","","","45.52","-75.78","453100","-754700","112.5","1927","2024","","","1927","2024","1927","2007"` + "\n"

	stations := collect(t, raw)
	require.Len(t, stations, 1)

	s := stations[0]
	assert.Equal(t, "CHELSEA", s.Name)
	assert.Equal(t, "QUEBEC", s.Province)
	assert.Equal(t, "7031360", s.ClimateID)
	assert.Equal(t, 5585, s.StationID)
	assert.Nil(t, s.WMOID)
	require.NotNil(t, s.DlyFirstYear)
	require.NotNil(t, s.DlyLastYear)
	assert.Equal(t, 1927, *s.DlyFirstYear)
	assert.Equal(t, 2024, *s.DlyLastYear)
	require.NotNil(t, s.Elevation)
	assert.Equal(t, 112.5, *s.Elevation)
}

func TestParse_BlankYearBoundsAreNil(t *testing.T) {
	raw := header + "\n" +
		`"AIRPORT","ALBERTA","3010010","14","71355","XAT","51.1","-114.0","510600","-1140000","1084.0","1953","1990","1953","1990","","","",""` + "\n"

	stations := collect(t, raw)
	require.Len(t, stations, 1)
	assert.Nil(t, stations[0].DlyFirstYear)
	assert.Nil(t, stations[0].DlyLastYear)
	assert.Empty(t, stations[0].Units())
	require.NotNil(t, stations[0].WMOID)
	assert.Equal(t, 71355, *stations[0].WMOID)
}

func TestParse_SkipsBlankLines(t *testing.T) {
	raw := header + "\n\n" +
		`"A","ON","6100001","100","","","","","","","","","","","","","","",""` + "\n\n"

	stations := collect(t, raw)
	require.Len(t, stations, 1)
	assert.Equal(t, 100, stations[0].StationID)
}

func TestParse_UnquotedHeaderRow(t *testing.T) {
	// CSV quoting is optional; encoding/csv writers leave plain fields bare.
	raw := preamble + strings.ReplaceAll(header, `"`, "") + "\n" +
		`"CHELSEA","QUEBEC","7031360","5585","","","","","","","","","","","","1927","2024","",""` + "\n"

	stations := collect(t, raw)
	require.Len(t, stations, 1)
	assert.Equal(t, 5585, stations[0].StationID)
}

func TestParse_HeaderMismatchFails(t *testing.T) {
	raw := `"Name","Province","Something Else"` + "\n"
	err := parse(context.Background(), strings.NewReader(raw), func(domain.Station) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestParse_MalformedFieldIsStructuredError(t *testing.T) {
	raw := header + "\n" +
		`"B","ON","6100002","not-a-number","","","","","","","","","","","","","","",""` + "\n"

	err := parse(context.Background(), strings.NewReader(raw), func(domain.Station) error { return nil })
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, perr.Row)
	assert.Equal(t, "Station ID", perr.Column)
	assert.Equal(t, "not-a-number", perr.Token)
}

func TestParse_ColumnCountMismatchFails(t *testing.T) {
	raw := header + "\n" + `"C","ON","6100003"` + "\n"
	err := parse(context.Background(), strings.NewReader(raw), func(domain.Station) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")
}

func TestParse_CallbackErrorStopsStream(t *testing.T) {
	raw := header + "\n" +
		`"A","ON","6100001","1","","","","","","","","","","","","","","",""` + "\n" +
		`"B","ON","6100002","2","","","","","","","","","","","","","","",""` + "\n"

	stop := errors.New("stop")
	seen := 0
	err := parse(context.Background(), strings.NewReader(raw), func(domain.Station) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestParse_MissingHeaderRow(t *testing.T) {
	err := parse(context.Background(), strings.NewReader("just some notes\nno header here\n"),
		func(domain.Station) error { return nil })
	require.Error(t, err)
}

func TestFile_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Station Inventory EN.csv")
	raw := preamble + header + "\n" +
		`"CHELSEA","QUEBEC","7031360","5585","","","","","","","","","","","","1927","2024","",""` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	f := NewFile(path)
	var ids []int
	err := f.Stations(context.Background(), func(s domain.Station) error {
		ids = append(ids, s.StationID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{5585}, ids)
}
