package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVOptions describes how a CSV table maps to samples.
type CSVOptions struct {
	// LabelColumn holds the integer class. Negative values count from the
	// end, so -1 is the last column.
	LabelColumn int
	// Classes is the width of the one-hot target rows.
	Classes int
	// HasHeader skips the first line.
	HasHeader bool
	// Scale divides every feature when non-zero, e.g. 255 for raw pixels.
	Scale float64
}

// LoadCSV reads a CSV file where every column except the label column is a
// feature.
func LoadCSV(filename string, opts CSVOptions) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, opts)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	if opts.Classes < 1 {
		return nil, fmt.Errorf("%w: %d classes", ErrFormat, opts.Classes)
	}

	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	startRow := 0
	if opts.HasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, ErrEmpty
	}

	numCols := len(records[startRow])
	if numCols < 2 {
		return nil, fmt.Errorf("%w: need a label and at least one feature, got %d columns", ErrFormat, numCols)
	}
	labelCol := opts.LabelColumn
	if labelCol < 0 {
		labelCol += numCols
	}
	if labelCol < 0 || labelCol >= numCols {
		return nil, fmt.Errorf("%w: label column %d out of %d", ErrFormat, opts.LabelColumn, numCols)
	}

	d := &Dataset{
		Inputs:  make([][]float64, 0, len(records)-startRow),
		Targets: make([][]float64, 0, len(records)-startRow),
	}
	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrFormat, i, len(record), numCols)
		}

		features := make([]float64, 0, numCols-1)
		var target []float64
		for j, s := range record {
			if j == labelCol {
				label, err := strconv.Atoi(s)
				if err != nil {
					return nil, fmt.Errorf("%w: label at row %d: %w", ErrFormat, i, err)
				}
				if target, err = OneHot(label, opts.Classes); err != nil {
					return nil, fmt.Errorf("row %d: %w", i, err)
				}
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: value at row %d, col %d: %w", ErrFormat, i, j, err)
			}
			features = append(features, v)
		}
		d.Inputs = append(d.Inputs, features)
		d.Targets = append(d.Targets, target)
	}

	if opts.Scale != 0 {
		d.Scale(opts.Scale)
	}
	return d, nil
}
