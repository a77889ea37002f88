// Command geninventory writes a synthetic station inventory CSV shaped like
// the ECCC "Station Inventory EN.csv", including its free-text preamble. It
// is used to produce fixtures for tests and for load-testing mirror passes
// without touching the production endpoint.
//
// Usage:
//
//	go run ./cmd/geninventory -out testdata/inventory.csv -stations 50
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-mirror/internal/inventory"
)

var provinces = []string{
	"BRITISH COLUMBIA", "ALBERTA", "SASKATCHEWAN", "MANITOBA", "ONTARIO",
	"QUEBEC", "NEW BRUNSWICK", "NOVA SCOTIA", "NEWFOUNDLAND", "YUKON",
	"NORTHWEST TERRITORIES", "NUNAVUT",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated inventory")
	stations := flag.Int("stations", 25, "number of stations to generate")
	seed := flag.Int64("seed", 1, "random seed, fixed for reproducible fixtures")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *stations <= 0 {
		return fmt.Errorf("-stations must be positive, got %d", *stations)
	}

	if err := generate(*out, *stations, *seed); err != nil {
		return err
	}
	log.Printf("wrote %d stations to %s", *stations, *out)
	return nil
}

func generate(out string, stations int, seed int64) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	// Preamble mimicking the real file: free text ahead of the header row.
	fmt.Fprintln(f, "Modified Date: "+time.Now().UTC().Format("2006-01-02"))
	fmt.Fprintln(f, `"Synthetic inventory for testing. Not for production use."`)
	fmt.Fprintln(f, "")

	w := csv.NewWriter(f)
	if err := w.Write(inventory.Header()); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < stations; i++ {
		if err := w.Write(genRow(rng, i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// genRow produces one inventory row. Roughly one station in eight has no
// daily record at all, matching the real file where some stations only
// report hourly or monthly data.
func genRow(rng *rand.Rand, i int) []string {
	stationID := 1000 + rng.Intn(60000)
	prov := provinces[rng.Intn(len(provinces))]
	lat := 42 + rng.Float64()*30
	lon := -(53 + rng.Float64()*85)

	first := 1900 + rng.Intn(100)
	last := first + rng.Intn(2024-first+1)
	dlyFirst, dlyLast := strconv.Itoa(first), strconv.Itoa(last)
	if rng.Intn(8) == 0 {
		dlyFirst, dlyLast = "", ""
	}

	return []string{
		fmt.Sprintf("SYNTHETIC STATION %03d", i),
		prov,
		fmt.Sprintf("%07d", rng.Intn(10000000)),
		strconv.Itoa(stationID),
		maybe(rng, strconv.Itoa(71000+rng.Intn(1000))),
		maybe(rng, fmt.Sprintf("X%c%c", 'A'+rng.Intn(26), 'A'+rng.Intn(26))),
		fmt.Sprintf("%.2f", lat),
		fmt.Sprintf("%.2f", lon),
		strconv.Itoa(int(lat * 10000000)),
		strconv.Itoa(int(lon * 10000000)),
		fmt.Sprintf("%.1f", rng.Float64()*2000),
		strconv.Itoa(first),
		strconv.Itoa(last),
		maybe(rng, strconv.Itoa(first)),
		maybe(rng, strconv.Itoa(last)),
		dlyFirst,
		dlyLast,
		maybe(rng, strconv.Itoa(first)),
		maybe(rng, strconv.Itoa(last)),
	}
}

// maybe blanks the value about a quarter of the time, since optional
// columns in the real inventory are frequently empty.
func maybe(rng *rand.Rand, v string) string {
	if rng.Intn(4) == 0 {
		return ""
	}
	return v
}
