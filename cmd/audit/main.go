// Command audit performs integrity checks across a mirrored climate archive:
// it verifies that every archived file decompresses cleanly, that file paths
// follow the partition layout, and that the staleness store and the files on
// disk agree with each other.
//
// Usage:
//
//	go run ./cmd/audit -data-dir /srv/climate -store /srv/climate/StationRefresh.db
package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/couchcryptid/climate-mirror/internal/store"
)

// phase tracks pass/fail for one audit phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", ".", "root of the mirrored archive")
	storePath := flag.String("store", "StationRefresh.db", "path to the staleness store")
	flag.Parse()

	if code := run(*dataDir, *storePath); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, storePath string) int {
	fmt.Println("=== Climate Archive Audit ===")
	fmt.Println()

	files, err := listArchive(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: walk archive: %v\n", err)
		return 1
	}

	st, err := store.Open(storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open staleness store: %v\n", err)
		return 1
	}
	defer st.Close()

	keys, err := st.Keys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list store keys: %v\n", err)
		return 1
	}

	phases := []*phase{
		auditLayout(files),
		auditCompression(dataDir, files),
		auditStoreConsistency(st, keys, files),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-40s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Archive: %d files, store: %d entries\n", len(files), len(keys))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAudit passed.")
		return 0
	}
	fmt.Println("\nAudit FAILED.")
	return 1
}

// listArchive returns every .csv.xz path under dataDir/stations, relative to
// dataDir and slash-separated to match store keys.
func listArchive(dataDir string) ([]string, error) {
	root := filepath.Join(dataDir, "stations")
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".csv.xz") {
			return nil
		}
		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

// auditLayout checks that every file sits in its station's partition
// directory and carries a plausible year.
func auditLayout(files []string) *phase {
	p := &phase{name: "Phase 1: Partition Layout"}

	for _, f := range files {
		parts := strings.Split(f, "/")
		if len(parts) != 4 {
			p.errorf("%s: expected stations/<partition>/<station>/<year>.csv.xz", f)
			continue
		}
		partition, err1 := strconv.Atoi(parts[1])
		stationID, err2 := strconv.Atoi(parts[2])
		year, err3 := strconv.Atoi(strings.TrimSuffix(parts[3], ".csv.xz"))
		if err1 != nil || err2 != nil || err3 != nil {
			p.errorf("%s: non-numeric path component", f)
			continue
		}
		if stationID/1000 != partition {
			p.errorf("%s: station %d belongs in partition %d, found in %d", f, stationID, stationID/1000, partition)
		}
		if year < 1840 || year > time.Now().Year() {
			p.errorf("%s: implausible year %d", f, year)
		}
	}
	return p
}

// auditCompression decompresses every file end to end.
func auditCompression(dataDir string, files []string) *phase {
	p := &phase{name: "Phase 2: Archive Integrity (xz)"}

	for _, rel := range files {
		if err := checkXZ(filepath.Join(dataDir, filepath.FromSlash(rel))); err != nil {
			p.errorf("%s: %v", rel, err)
		}
	}
	return p
}

func checkXZ(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("bad xz header: %w", err)
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return fmt.Errorf("corrupt stream: %w", err)
	}
	return nil
}

// auditStoreConsistency cross-checks store entries against files on disk.
// A file without an entry will be re-fetched on the next pass, which is
// wasteful but safe; an entry without a file means the archive lost data
// the mirror believes is fresh.
func auditStoreConsistency(st *store.Staleness, keys, files []string) *phase {
	p := &phase{name: "Phase 3: Store Consistency"}

	onDisk := make(map[string]bool, len(files))
	for _, f := range files {
		onDisk[f] = true
	}

	now := time.Now()
	for _, k := range keys {
		if !onDisk[k] {
			p.errorf("store entry %q has no file on disk", k)
		}
		t, err := st.Get(k)
		if err != nil {
			p.errorf("store entry %q: %v", k, err)
			continue
		}
		if t.After(now) {
			p.errorf("store entry %q refreshed in the future: %s", k, t.Format(time.RFC3339))
		}
	}

	tracked := make(map[string]bool, len(keys))
	for _, k := range keys {
		tracked[k] = true
	}
	for _, f := range files {
		if !tracked[f] {
			p.errorf("file %q has no store entry (will be re-fetched)", f)
		}
	}
	return p
}
