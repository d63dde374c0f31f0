// Package errors provides the structured error type returned by the lifescope
// registry and resolution engine. Every failure carries a machine-readable
// code so hosts can branch with errors.Is against the exported sentinels.
package errors
