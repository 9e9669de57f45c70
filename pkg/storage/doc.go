// Package storage handles the flat-file layout of harvested records.
//
// Records are written as one XML file per record, grouped by set:
//
//	<save-dir>/<set>/<identifier>.xml
//
// Writes are atomic (temporary file plus rename), so a crashed run never
// leaves a half-written record behind. An in-memory map seeded from a
// directory scan lets re-runs skip records already on disk.
package storage
