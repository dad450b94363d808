package las

import (
	"fmt"
	"io"
)

// DefaultScratchSize is the scratch buffer size used by the streaming
// decoders when no option overrides it.
const DefaultScratchSize = 2048

// ReadFunc adapts a positioned read callback to io.ReaderAt. The callback
// copies up to len(p) bytes found at absolute offset off into p and returns
// how many it placed; a short count signals truncation.
type ReadFunc func(p []byte, off int64) int

// ReadAt implements io.ReaderAt.
func (f ReadFunc) ReadAt(p []byte, off int64) (int, error) {
	n := f(p, off)
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// Option configures the streaming decoders.
type Option func(*streamConfig)

type streamConfig struct {
	scratch     []byte
	scratchSize int
}

// WithScratchSize sets the size of the scratch buffer allocated per call.
// Values that cannot hold one record are raised to the record length.
func WithScratchSize(n int) Option {
	return func(c *streamConfig) {
		c.scratchSize = n
	}
}

// WithScratch supplies a caller-owned scratch buffer, avoiding the per-call
// allocation. The buffer must not be shared by concurrent calls.
func WithScratch(buf []byte) Option {
	return func(c *streamConfig) {
		c.scratch = buf
	}
}

func newStreamConfig(opts []Option) streamConfig {
	c := streamConfig{scratchSize: DefaultScratchSize}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// buffer returns the scratch buffer trimmed to a whole number of records.
func (c streamConfig) buffer(pointSize int) []byte {
	buf := c.scratch
	if len(buf) < pointSize {
		size := max(c.scratchSize, pointSize)
		if buf != nil {
			diagf("scratch buffer of %d bytes cannot hold a %d byte record, allocating %d", len(buf), pointSize, size)
		}
		buf = make([]byte, size)
	}
	return buf[:len(buf)/pointSize*pointSize]
}

// HeaderFromReader reads and interprets the public header block through r.
func HeaderFromReader(r io.ReaderAt) (Header, error) {
	var buf [HeaderSize]byte
	if err := readFull(r, buf[:], 0); err != nil {
		return Header{}, err
	}
	return ParseHeader(buf[:])
}

// InfoFromReader reads the header through r with a single read.
func InfoFromReader(r io.ReaderAt) (Info, error) {
	h, err := HeaderFromReader(r)
	if err != nil {
		return Info{}, err
	}
	return h.Info(), nil
}

// ReadPointsFromReader decodes count records starting at first into dst
// using the default projection, reading through r in scratch-sized chunks.
func ReadPointsFromReader(dst []Point, r io.ReaderAt, first, count uint64, opts ...Option) error {
	info, count, err := readerRange(r, first, count, func(info Info, count uint64) error {
		return checkPoints(dst, count)
	})
	if err != nil {
		return err
	}
	return streamRecords(r, info, first, count, newStreamConfig(opts), func(raw []byte, done, n uint64) {
		decodePoints(dst[done:done+n], raw, info, n)
	})
}

// ReadAttributesFromReader projects count records starting at first into
// dst, reading through r in scratch-sized chunks. Destination bytes outside
// the projected attributes are left untouched.
func ReadAttributesFromReader(dst []byte, p Projection, r io.ReaderAt, first, count uint64, opts ...Option) error {
	info, count, err := readerRange(r, first, count, func(info Info, count uint64) error {
		return p.check(info, dst, count)
	})
	if err != nil {
		return err
	}
	return streamRecords(r, info, first, count, newStreamConfig(opts), func(raw []byte, done, n uint64) {
		p.decode(dst[done*uint64(p.stride):], raw, info, n)
	})
}

func readerRange(r io.ReaderAt, first, count uint64, checkDst func(Info, uint64) error) (Info, uint64, error) {
	info, err := InfoFromReader(r)
	if err != nil {
		return Info{}, 0, err
	}
	count = info.resolveCount(first, count)
	if err := info.checkRange(first, count); err != nil {
		return Info{}, 0, err
	}
	if err := checkDst(info, count); err != nil {
		return Info{}, 0, err
	}
	return info, count, nil
}

// streamRecords reads records [first, first+count) through r and hands each
// chunk to decode together with the number of records already delivered.
//
// Chunks are addressed with a running record cursor, so the final partial
// chunk is read like any other.
func streamRecords(r io.ReaderAt, info Info, first, count uint64, c streamConfig, decode func(raw []byte, done, n uint64)) error {
	pointSize := uint64(info.PointSize)
	scratch := c.buffer(int(pointSize))
	perChunk := uint64(len(scratch)) / pointSize

	for done := uint64(0); done < count; {
		n := min(perChunk, count-done)
		chunk := scratch[:n*pointSize]
		off := int64(uint64(info.PointOffset) + (first+done)*pointSize)
		tracef("read %d records (%d bytes) at offset %d", n, len(chunk), off)
		if err := readFull(r, chunk, off); err != nil {
			opsf("point read failed after %d of %d records: %v", done, count, err)
			return err
		}
		decode(chunk, done, n)
		done += n
	}
	return nil
}

// readFull fills p from r at off. An io.ReaderAt may report io.EOF alongside
// a complete read at the end of the source, which is accepted.
func readFull(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: got %d of %d bytes at offset %d: %w", ErrIORead, n, len(p), off, err)
}
