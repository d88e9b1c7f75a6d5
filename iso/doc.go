// Package iso implements the per-agent runtime: the turn queue that
// serializes requests to one iso, the snapshot builder that reads every
// store before assembly, and the recursive tool-execution loop that drives
// model invocations until a final answer or a fatal error.
package iso
