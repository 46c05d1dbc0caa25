package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/fraudgrid/internal/model"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// driverName maps configured driver names to registered database/sql drivers.
func driverName(driver string) (string, error) {
	switch driver {
	case "", "sqlite", "sqlite3":
		return "sqlite", nil
	case "postgres", "postgresql", "pq":
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported sql driver %q", driver)
}

// loadSQL runs the descriptor's query and returns one record per row.
func loadSQL(ctx context.Context, d Descriptor) (Result, error) {
	if d.Query == "" {
		return Result{}, errors.New("sql source needs a query")
	}
	driver, err := driverName(d.Driver)
	if err != nil {
		return Result{}, err
	}

	dsn := d.DSN
	if driver == "sqlite" {
		if dsn == "" {
			dsn = d.Path
		}
		// Opening a missing sqlite file would silently create an empty database.
		if _, err := os.Stat(dsn); err != nil {
			return Result{}, fmt.Errorf("database file not found: %s", dsn)
		}
	}
	if dsn == "" {
		return Result{}, errors.New("sql source needs a dsn")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", driver, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, d.Query)
	if err != nil {
		return Result{}, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	var data []model.Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, fmt.Errorf("scan: %w", err)
		}
		rec := make(model.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		data = append(data, rec)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return Result{Data: data, Columns: columns}, nil
}
