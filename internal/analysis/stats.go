package analysis

import (
	"context"
	"math"
	"sort"

	"github.com/specialistvlad/fraudgrid/internal/model"
)

// Stats computes a deterministic summary of every numeric column.
type Stats struct{}

// ColumnStats summarises one numeric column.
type ColumnStats struct {
	Count  int     `json:"count" yaml:"count"`
	Sum    float64 `json:"sum" yaml:"sum"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	StdDev float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Analyze returns {"data": {"stats": {column: ColumnStats}, "rows": n}}.
// A column is numeric when every record that carries it holds a number.
func (Stats) Analyze(ctx context.Context, records []model.Record) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make(map[string][]float64)
	excluded := make(map[string]bool)
	for _, r := range records {
		for col, raw := range r {
			if excluded[col] || raw == nil {
				continue
			}
			f, ok := r.Number(col)
			if !ok {
				excluded[col] = true
				delete(values, col)
				continue
			}
			values[col] = append(values[col], f)
		}
	}

	stats := make(map[string]any, len(values))
	for col, vs := range values {
		stats[col] = Summarize(vs)
	}
	return map[string]any{
		"data": map[string]any{
			"stats": stats,
			"rows":  len(records),
		},
	}, nil
}

// Summarize computes ColumnStats over vs. The standard deviation is the
// sample deviation and is zero for fewer than two values.
func Summarize(vs []float64) ColumnStats {
	if len(vs) == 0 {
		return ColumnStats{}
	}
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)

	s := ColumnStats{Count: len(sorted), Min: sorted[0], Max: sorted[len(sorted)-1]}
	for _, v := range sorted {
		s.Sum += v
	}
	s.Mean = s.Sum / float64(s.Count)

	mid := s.Count / 2
	if s.Count%2 == 0 {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		s.Median = sorted[mid]
	}

	if s.Count > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(s.Count-1))
	}
	return s
}
