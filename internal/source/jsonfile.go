package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

func loadJSONFile(_ context.Context, d Descriptor) (Result, error) {
	if d.Path == "" {
		return Result{}, errors.New("json source needs a path")
	}
	raw, err := os.ReadFile(d.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("file %s does not exist", d.Path)
		}
		return Result{}, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", d.Path, err)
	}
	data, err := recordsFromJSON(v)
	if err != nil {
		return Result{}, err
	}
	return Result{Data: data}, nil
}
