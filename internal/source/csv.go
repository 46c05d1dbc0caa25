package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/specialistvlad/fraudgrid/internal/model"
)

// loadCSV reads a CSV file whose first row names the columns. Cells stay
// strings; consumers coerce the fields they need.
func loadCSV(ctx context.Context, d Descriptor) (Result, error) {
	if d.Path == "" {
		return Result{}, errors.New("csv source needs a path")
	}
	f, err := os.Open(d.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("file %s does not exist", d.Path)
		}
		return Result{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, fmt.Errorf("file %s is empty", d.Path)
		}
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var data []model.Record
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("line %d: %w", line, err)
		}
		rec := make(model.Record, len(header))
		for i, col := range header {
			if i < len(row) && row[i] != "" {
				rec[col] = row[i]
			}
		}
		data = append(data, rec)
	}
	return Result{Data: data, Columns: header}, nil
}
