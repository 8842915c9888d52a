// Package preflight provides readiness checks for the probe binaries and
// filesystem paths trackplan depends on.
//
// The CLI "check" command prints every result; "analyze" runs the same checks
// first and stops before probing when a required check fails.
package preflight
