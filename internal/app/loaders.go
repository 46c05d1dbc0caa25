package app

import (
	"github.com/specialistvlad/fraudgrid/internal/config"
	"github.com/specialistvlad/fraudgrid/internal/hcl"
	"github.com/specialistvlad/fraudgrid/internal/yamlconfig"
)

// DefaultLoaders returns the configuration loaders compiled into the binary.
func DefaultLoaders() config.Loaders {
	yamlLoader := yamlconfig.NewLoader()
	return config.Loaders{
		".hcl":  hcl.NewLoader(),
		".yaml": yamlLoader,
		".yml":  yamlLoader,
	}
}
