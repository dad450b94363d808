// Package las decodes LAS point-cloud files (versions 1.0 to 1.3, point data
// record formats 0 to 5) into caller-owned memory.
//
// Two entry families are provided. The *FromBytes functions operate on a
// fully buffered file image. The *FromReader functions pull records through
// an io.ReaderAt using a bounded scratch buffer, so a file never has to be
// resident to be decoded.
//
// Each family has a default path that fills []Point with the nine attributes
// shared by every legacy point format (with the bit-packed return and
// classification bytes unpacked), and a granular path that projects any set
// of attributes into a caller-defined byte layout described by a Projection.
//
// The package is read-only: it never writes LAS data.
package las
