// Package dataset loads simulation runs from disk or from a SQLite catalog.
//
// A run on disk is a directory named after its integer identifier:
//
//	<base>/<id>/run.json        header, format version, step count
//	<base>/<id>/psi_000000.bin  snapshot 0
//	<base>/<id>/psi_000001.bin  snapshot 1
//	...
//
// Every snapshot file starts with a fixed little-endian header (magic,
// dimensions, grid bounds, time) followed by NX*NY complex samples written
// as pairs of float64. Both [Store] and [Catalog] implement [Source] and
// return records that already passed [wave.Record.Validate].
package dataset
