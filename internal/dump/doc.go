// Package dump renders decoded records and messages as plain documents for
// inspection and export (JSON, MessagePack), and converts them back.
package dump
