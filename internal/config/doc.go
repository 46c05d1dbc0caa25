// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface implemented by the concrete
// file formats.
//
// The `config.Model` is the single source of truth for the `pipeline` and
// `engine` packages. Concrete loaders, such as for HCL and YAML, are provided
// in separate packages and selected by file extension through Loaders.
package config
