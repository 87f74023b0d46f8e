// Package dataset reads and writes survey recordings as CSV.
//
// Each row is x,y followed by the nine reading fields. Obstacles are written
// with the text 9999.9 in every reading field.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/survey"
)

// Header is the first line of every exported file.
const Header = "X,Y,MagX,MagY,MagZ,UncalMagX,UncalMagY,UncalMagZ,BiasX,BiasY,BiasZ"

// ObstacleField fills every reading column of an obstacle row.
const ObstacleField = "9999.9"

const columns = 2 + survey.FieldCount

// ErrEmptyFile is returned by Read when the input has no header line.
var ErrEmptyFile = errors.New("dataset: empty file")

// Mode selects how an imported batch is applied to a store.
type Mode int

const (
	// Replace clears the store before applying the batch.
	Replace Mode = iota
	// Merge overwrites imported cells and keeps the rest.
	Merge
)

func (m Mode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Merge:
		return "merge"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "replace" or "merge".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replace":
		return Replace, nil
	case "merge":
		return Merge, nil
	}
	return Replace, fmt.Errorf("dataset: unknown import mode %q", s)
}

// Row is one accepted line of an import.
type Row struct {
	Cell  grid.Cell
	Entry survey.Entry
}

// Batch is the result of reading a file.
type Batch struct {
	Rows []Row
	// Lines dropped for having too few fields or unparseable coordinates.
	Skipped int
}

// Apply writes the batch into store. Later rows for the same cell win.
func (b Batch) Apply(store *survey.Store, mode Mode) {
	if mode == Replace {
		store.Clear()
	}
	for _, r := range b.Rows {
		if r.Entry.IsObstacle() {
			store.PutObstacle(r.Cell)
		} else {
			store.Put(r.Cell, r.Entry.Reading)
		}
	}
}

// Nodes counts the node rows.
func (b Batch) Nodes() int {
	n := 0
	for _, r := range b.Rows {
		if !r.Entry.IsObstacle() {
			n++
		}
	}
	return n
}

// Write emits the header and one row per store entry, ordered by X then Y.
func Write(w io.Writer, store *survey.Store) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, columns)
	for cell, e := range store.All() {
		record[0] = strconv.Itoa(cell.X)
		record[1] = strconv.Itoa(cell.Y)
		if e.IsObstacle() {
			for i := 2; i < columns; i++ {
				record[i] = ObstacleField
			}
		} else {
			for i, v := range e.Reading.Fields() {
				record[2+i] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %v: %w", cell, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// maxLine bounds a single input line.
const maxLine = 1 << 20

// Read parses an exported file. The first line is discarded as the header.
// Every physical line is split on commas; quotes carry no meaning.
//
// A line with fewer than eleven fields or non-integer coordinates is skipped
// and counted. Blank lines are ignored. A node line whose reading fields do
// not parse aborts the read; the rows accepted before it are returned
// together with the error.
func Read(r io.Reader) (Batch, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLine)

	var batch Batch
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return batch, fmt.Errorf("read header: %w", err)
		}
		return batch, ErrEmptyFile
	}

	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		record := strings.Split(text, ",")

		cell, ok := parseCell(record)
		if !ok {
			batch.Skipped++
			continue
		}
		entry, err := parseEntry(record[2:columns])
		if err != nil {
			return batch, fmt.Errorf("line %d: %w", line, err)
		}
		batch.Rows = append(batch.Rows, Row{Cell: cell, Entry: entry})
	}
	if err := sc.Err(); err != nil {
		return batch, fmt.Errorf("line %d: %w", line+1, err)
	}
	return batch, nil
}

func parseCell(record []string) (grid.Cell, bool) {
	if len(record) < columns {
		return grid.Cell{}, false
	}
	x, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return grid.Cell{}, false
	}
	y, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return grid.Cell{}, false
	}
	return grid.Cell{X: x, Y: y}, true
}

// parseEntry classifies the nine reading fields. Only the uncalibrated
// columns decide: all three equal to ObstacleField makes an obstacle.
func parseEntry(fields []string) (survey.Entry, error) {
	obstacle := true
	for _, f := range fields[3:6] {
		if strings.TrimSpace(f) != ObstacleField {
			obstacle = false
			break
		}
	}
	if obstacle {
		return survey.Entry{Kind: survey.KindObstacle}, nil
	}

	var values [survey.FieldCount]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return survey.Entry{}, fmt.Errorf("field %d: %w", i+2, err)
		}
		values[i] = v
	}
	return survey.Entry{Kind: survey.KindNode, Reading: survey.ReadingFromFields(values)}, nil
}

// logSkipped reports dropped lines the way the rest of the app logs.
func logSkipped(source string, b Batch) {
	if b.Skipped > 0 {
		log.Printf("dataset: %s: skipped %d malformed line(s)", source, b.Skipped)
	}
}
