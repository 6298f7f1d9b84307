// Package util provides small generic helpers shared across packages:
// map keys, pointer construction, zero-value coalescing, and parsing
// and masking for configuration values.
package util
