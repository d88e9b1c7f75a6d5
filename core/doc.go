// Package core defines the shared value types and contracts of the isokit
// engine: the three-role Message, tool call/result encoding, fact and task
// records, per-iso store interfaces, the per-turn state Snapshot handed to
// context adapters, and the error taxonomy every other package builds on.
package core
