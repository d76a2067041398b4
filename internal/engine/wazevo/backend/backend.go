// Package backend must be free of any pass or client of the capability queries. In other words,
// this package must not import the passes package, nor the CLI.
//
// This package defines the capability queries which target-independent
// passes use to ask the active target whether a machine-level operation is
// legal or cheap, without knowing anything about the target's instruction set.
package backend
