// Package analysis produces the opaque analysis value stored under the
// transaction data's "analysis" key. The pipeline only ever sees the Analyst
// interface; the concrete delegate is injected at build time.
package analysis

import (
	"context"

	"github.com/specialistvlad/fraudgrid/internal/model"
)

// Analyst summarises a batch of transaction records.
type Analyst interface {
	Analyze(ctx context.Context, records []model.Record) (any, error)
}

// Kinds accepted by New.
const (
	KindStats  = "stats"
	KindRemote = "remote"
)
