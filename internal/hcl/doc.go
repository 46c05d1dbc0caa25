// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file discovery, HCL parsing, block
// decoding and the translation of inline cty values into transaction records.
package hcl
