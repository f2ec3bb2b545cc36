// Package recorder persists committed spots to SQLite and writes the
// aggregate counters out as CSV snapshots. It is the production sink
// behind the pipeline; the pipeline itself never touches the filesystem.
package recorder

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	_ "modernc.org/sqlite"

	"dxanalyzer/pipeline"
	"dxanalyzer/spot"
)

const (
	databaseFile = "spots.db"
	countsFile   = "frequency_counts.csv"
	summaryFile  = "summary.csv"
)

// Recorder is the SQLite+CSV sink. Appends accumulate in a transaction
// that Flush commits, so a crash loses at most one unflushed batch.
type Recorder struct {
	db        *sql.DB
	tx        *sql.Tx
	outputDir string
}

// New opens (or creates) the spot database under outputDir and ensures
// the schema exists.
func New(outputDir string) (*Recorder, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("recorder: ensure dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(outputDir, databaseFile))
	if err != nil {
		return nil, fmt.Errorf("recorder: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Recorder{db: db, outputDir: outputDir}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS spots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    observed_at INTEGER,
    spotter TEXT,
    dx_call TEXT,
    frequency REAL,
    mode TEXT,
    band TEXT,
    region TEXT,
    comment TEXT,
    source TEXT
);
CREATE INDEX IF NOT EXISTS idx_spots_dx ON spots(dx_call);
CREATE INDEX IF NOT EXISTS idx_spots_freq ON spots(frequency);`
	_, err := db.Exec(schema)
	return err
}

// Append stages one committed spot in the current batch transaction.
func (r *Recorder) Append(c spot.Classified) error {
	if r.tx == nil {
		tx, err := r.db.Begin()
		if err != nil {
			return fmt.Errorf("recorder: begin: %w", err)
		}
		r.tx = tx
	}
	_, err := r.tx.Exec(`
INSERT INTO spots (observed_at, spotter, dx_call, frequency, mode, band, region, comment, source)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ObservedAt.Unix(), c.Spotter, c.DXCall, c.Frequency,
		c.Mode, c.Band, c.Region, c.Comment, string(c.Source))
	if err != nil {
		return fmt.Errorf("recorder: insert: %w", err)
	}
	return nil
}

// Flush commits the staged batch.
func (r *Recorder) Flush() error {
	if r.tx == nil {
		return nil
	}
	err := r.tx.Commit()
	r.tx = nil
	if err != nil {
		return fmt.Errorf("recorder: commit: %w", err)
	}
	return nil
}

// Snapshot rewrites the two CSV exports from the current counters: the
// per-frequency count table and the per-band summary, each cell carrying
// its share of the total as a percentage. Each file is written to a temp
// name and renamed into place so readers never see a half-written
// snapshot.
func (r *Recorder) Snapshot(counters *pipeline.Counters) error {
	total := counters.Total()
	rows := counters.Rows()
	counts := make([][]string, 0, len(rows)+1)
	counts = append(counts, []string{"Frequency", "Mode", "Band", "Count", "Percentage"})
	for _, row := range rows {
		counts = append(counts, []string{
			strconv.FormatFloat(row.Frequency, 'f', 1, 64),
			row.Mode,
			row.Band,
			strconv.Itoa(row.Count),
			percentage(row.Count, total),
		})
	}
	if err := r.writeCSV(countsFile, counts); err != nil {
		return err
	}

	byBand := counters.ByBand()
	bands := make([]string, 0, len(byBand))
	for band := range byBand {
		bands = append(bands, band)
	}
	sort.Strings(bands)

	summary := [][]string{{"Band", "Mode", "Total_Spots", "Percentage"}}
	for _, band := range bands {
		byMode := byBand[band]
		modes := make([]string, 0, len(byMode))
		for mode := range byMode {
			modes = append(modes, mode)
		}
		sort.Strings(modes)
		for _, mode := range modes {
			summary = append(summary, []string{
				band, mode, strconv.Itoa(byMode[mode]), percentage(byMode[mode], total),
			})
		}
	}
	return r.writeCSV(summaryFile, summary)
}

func percentage(count, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(count)/float64(total)*100)
}

func (r *Recorder) writeCSV(name string, rows [][]string) error {
	final := filepath.Join(r.outputDir, name)
	tmp := final + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("recorder: create %s: %w", name, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("recorder: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("recorder: close %s: %w", name, err)
	}
	return os.Rename(tmp, final)
}

// Close commits any staged batch and closes the database.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		r.db.Close()
		return err
	}
	return r.db.Close()
}
