package evaluation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
)

const (
	ColumnInstruction = "instruction"
	ColumnIntent      = "intent"
	ColumnIntentEnum  = "intent_enum"
	ColumnPredicted   = "predicted_intent"
	ColumnThought     = "thought_process"
)

// Dataset is a CSV table with a header row. Columns the tool does not know
// about are carried through untouched.
type Dataset struct {
	Header []string
	Rows   [][]string
}

func ReadDataset(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("read csv: missing header row")
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	ds := &Dataset{Header: header, Rows: records[1:]}
	for i, row := range ds.Rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("read csv: row %d has %d fields, header has %d", i+2, len(row), len(header))
		}
	}
	return ds, nil
}

// Column returns the index of the named column.
func (d *Dataset) Column(name string) (int, error) {
	for i, h := range d.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found", name)
}

// Values returns one column as a slice.
func (d *Dataset) Values(name string) ([]string, error) {
	idx, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// SetColumn overwrites the named column, appending it when missing.
func (d *Dataset) SetColumn(name string, values []string) error {
	if len(values) != len(d.Rows) {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(d.Rows))
	}
	idx, err := d.Column(name)
	if err != nil {
		d.Header = append(d.Header, name)
		for i := range d.Rows {
			d.Rows[i] = append(d.Rows[i], values[i])
		}
		return nil
	}
	for i := range d.Rows {
		d.Rows[i][idx] = values[i]
	}
	return nil
}

// Sample returns n rows picked by a seeded shuffle. n <= 0 or n >= Len keeps
// every row, still shuffled.
func (d *Dataset) Sample(n int, seed int64) *Dataset {
	rows := make([][]string, len(d.Rows))
	copy(rows, d.Rows)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	header := make([]string, len(d.Header))
	copy(header, d.Header)
	return &Dataset{Header: header, Rows: rows}
}

func (d *Dataset) Len() int {
	return len(d.Rows)
}

func (d *Dataset) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(d.Header); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := writer.WriteAll(d.Rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
