// Package protocol builds and opens USP records.
//
// Ownership boundary:
// - message construction around typed bodies (uspmsg)
// - record construction around opaque payloads (usprecord)
// - the decoding path record -> payload -> message
//
// Byte layout is owned by the schema packages; this package only composes
// values and enforces construction-time invariants.
package protocol
