// Package inventory parses the ECCC "Station Inventory EN.csv" listing into
// typed station descriptors. The file carries a free-text preamble (contact
// notes, modification date) ahead of the real header row, and blank tokens
// in numeric columns for stations that never reported that record kind.
package inventory

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-mirror/internal/domain"
)

// expectedHeader pins the column layout. A mismatch means ECCC changed the
// inventory format and parsing must stop rather than mis-assign columns.
var expectedHeader = []string{
	"Name", "Province", "Climate ID", "Station ID", "WMO ID", "TC ID",
	"Latitude (Decimal Degrees)", "Longitude (Decimal Degrees)",
	"Latitude", "Longitude", "Elevation (m)", "First Year",
	"Last Year", "HLY First Year", "HLY Last Year", "DLY First Year",
	"DLY Last Year", "MLY First Year", "MLY Last Year",
}

// Header returns a copy of the canonical column layout, in file order.
func Header() []string {
	return append([]string(nil), expectedHeader...)
}

// ParseError describes a malformed cell, identified by row and column so
// operators can fix or report the inventory file.
type ParseError struct {
	Row    int
	Column string
	Token  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("inventory row %d: column %q: bad value %q: %v", e.Row, e.Column, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// File is a station source backed by an inventory CSV on disk.
type File struct {
	path string
}

// NewFile creates a source reading from path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Stations streams every station in the inventory through fn, stopping on
// the first callback error. The whole file is never held in memory.
func (f *File) Stations(ctx context.Context, fn func(domain.Station) error) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open inventory: %w", err)
	}
	defer file.Close()

	return parse(ctx, file, fn)
}

func parse(ctx context.Context, r io.Reader, fn func(domain.Station) error) error {
	br := bufio.NewReader(r)
	if err := skipPreamble(br); err != nil {
		return err
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1 // row width validated explicitly for a better error

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read inventory header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return err
	}

	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tokens, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read inventory row %d: %w", row, err)
		}
		if len(tokens) == 0 || (len(tokens) == 1 && tokens[0] == "") {
			continue
		}
		if len(tokens) != len(expectedHeader) {
			return fmt.Errorf("inventory row %d: got %d columns, want %d", row, len(tokens), len(expectedHeader))
		}

		station, err := parseStation(row, tokens)
		if err != nil {
			return err
		}
		if err := fn(station); err != nil {
			return err
		}
	}
}

// skipPreamble discards lines ahead of the header row. The real ECCC file
// quotes the header fields, but CSV quoting is optional, so a bare Name
// column is accepted too.
func skipPreamble(br *bufio.Reader) error {
	for {
		peek, err := br.Peek(len(`"Name"`))
		if err != nil {
			return fmt.Errorf("inventory has no %q header row: %w", "Name", err)
		}
		if s := string(peek); strings.HasPrefix(s, `"Name"`) || strings.HasPrefix(s, "Name,") {
			return nil
		}
		if _, err := br.ReadString('\n'); err != nil {
			return fmt.Errorf("inventory has no %q header row: %w", "Name", err)
		}
	}
}

func checkHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return fmt.Errorf("inventory header: got %d columns, want %d", len(header), len(expectedHeader))
	}
	for i, want := range expectedHeader {
		if header[i] != want {
			return fmt.Errorf("inventory header: column %d is %q, want %q", i, header[i], want)
		}
	}
	return nil
}

func parseStation(row int, tokens []string) (domain.Station, error) {
	p := rowParser{row: row, tokens: tokens}

	s := domain.Station{
		Name:      p.str("Name"),
		Province:  p.str("Province"),
		ClimateID: p.str("Climate ID"),
		StationID: p.reqInt("Station ID"),
		WMOID:     p.optInt("WMO ID"),
		TCID:      p.str("TC ID"),

		LatitudeDecimalDegrees:  p.optFloat("Latitude (Decimal Degrees)"),
		LongitudeDecimalDegrees: p.optFloat("Longitude (Decimal Degrees)"),
		Latitude:                p.optInt("Latitude"),
		Longitude:               p.optInt("Longitude"),
		Elevation:               p.optFloat("Elevation (m)"),

		FirstYear:    p.optInt("First Year"),
		LastYear:     p.optInt("Last Year"),
		HlyFirstYear: p.optInt("HLY First Year"),
		HlyLastYear:  p.optInt("HLY Last Year"),
		DlyFirstYear: p.optInt("DLY First Year"),
		DlyLastYear:  p.optInt("DLY Last Year"),
		MlyFirstYear: p.optInt("MLY First Year"),
		MlyLastYear:  p.optInt("MLY Last Year"),
	}
	if p.err != nil {
		return domain.Station{}, p.err
	}
	return s, nil
}

// rowParser pulls typed values out of one row by column name, capturing the
// first parse error.
type rowParser struct {
	row    int
	tokens []string
	err    error
}

func (p *rowParser) token(column string) string {
	for i, name := range expectedHeader {
		if name == column {
			return p.tokens[i]
		}
	}
	panic("inventory: unknown column " + column)
}

func (p *rowParser) str(column string) string {
	return p.token(column)
}

func (p *rowParser) reqInt(column string) int {
	tok := p.token(column)
	n, err := strconv.Atoi(tok)
	if err != nil && p.err == nil {
		p.err = &ParseError{Row: p.row, Column: column, Token: tok, Err: err}
	}
	return n
}

func (p *rowParser) optInt(column string) *int {
	tok := p.token(column)
	if tok == "" {
		return nil
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		if p.err == nil {
			p.err = &ParseError{Row: p.row, Column: column, Token: tok, Err: err}
		}
		return nil
	}
	return &n
}

func (p *rowParser) optFloat(column string) *float64 {
	tok := p.token(column)
	if tok == "" {
		return nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		if p.err == nil {
			p.err = &ParseError{Row: p.row, Column: column, Token: tok, Err: err}
		}
		return nil
	}
	return &f
}
