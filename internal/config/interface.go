package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Loaders maps file extensions (".hcl", ".yaml") to loaders.
type Loaders map[string]Loader

// DirectoryExt is the extension whose loader handles directory paths.
const DirectoryExt = ".hcl"

// ForPath picks the loader for path by its extension. Directories are read
// by the loader registered for DirectoryExt.
func (ls Loaders) ForPath(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		ext = DirectoryExt
	}
	if l, ok := ls[ext]; ok {
		return l, nil
	}
	known := make([]string, 0, len(ls))
	for k := range ls {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, fmt.Errorf("no configuration loader for %q, supported extensions: %s", path, strings.Join(known, ", "))
}
