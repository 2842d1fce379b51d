// Package constants centralizes policy defaults shared across the CLI.
//
// The mapping-matrix thresholds and cache lifetimes here are product policy
// choices, not implementation details: keeping them in one place lets cmd/
// override them from configuration without magic numbers scattering across
// packages, and without introducing import cycles.
package constants
