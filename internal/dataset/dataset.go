// Package dataset loads tabular observations from CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnknownColumn is returned when a requested column is not in the header.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotNumeric is returned when a cell of a requested column cannot be parsed as a float.
	ErrNotNumeric = errors.New("value is not numeric")
	// ErrEmpty is returned for files without a header or without data rows.
	ErrEmpty = errors.New("no data")
)

// Table is a CSV file held in memory. The first record is the header.
type Table struct {
	header  []string
	index   map[string]int
	records [][]string
}

// Load reads the CSV file at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// Read parses CSV from r.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, ErrEmpty
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	return &Table{
		header:  header,
		index:   index,
		records: records[1:],
	}, nil
}

// Header returns the column names.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.records)
}

// Column parses the named column as floats.
func (t *Table) Column(name string) ([]float64, error) {
	col, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	values := make([]float64, len(t.records))
	for i, rec := range t.records {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %q", ErrNotNumeric, name, i+1, rec[col])
		}
		values[i] = v
	}
	return values, nil
}

// Vector returns the named column as a vector.
func (t *Table) Vector(name string) (*mat.VecDense, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(values), values), nil
}

// Design builds a Len()×len(names) matrix whose j-th column is the column names[j].
// When intercept is true a trailing column of ones is appended.
func (t *Table) Design(names []string, intercept bool) (*mat.Dense, error) {
	cols := len(names)
	if intercept {
		cols++
	}
	if cols == 0 {
		return nil, fmt.Errorf("%w: no columns selected", ErrEmpty)
	}
	d := mat.NewDense(t.Len(), cols, nil)
	for j, name := range names {
		values, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		d.SetCol(j, values)
	}
	if intercept {
		for i := 0; i < t.Len(); i++ {
			d.Set(i, cols-1, 1)
		}
	}
	return d, nil
}

// Labels returns the value of the named column for every row, or row numbers
// when name is empty.
func (t *Table) Labels(name string) ([]string, error) {
	labels := make([]string, len(t.records))
	if name == "" {
		for i := range labels {
			labels[i] = strconv.Itoa(i + 1)
		}
		return labels, nil
	}
	col, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	for i, rec := range t.records {
		labels[i] = rec[col]
	}
	return labels, nil
}
