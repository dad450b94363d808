package las

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

/*
LAS public header block, little-endian, packed (227 bytes):

	  0  file signature "LASF"          4
	  4  file source id                 2
	  6  global encoding                2
	  8  project GUID                   16  (u32, u16, u16, [8]u8)
	 24  version major, minor           1 + 1
	 26  system identifier              32
	 58  generating software            32
	 90  creation day of year, year     2 + 2
	 94  header size                    2
	 96  offset to point data           4
	100  number of VLRs                 4
	104  point data format id           1
	105  point data record length       2
	107  number of point records        4
	111  points by return               5 x 4
	131  x, y, z scale factor           3 x 8
	155  x, y, z offset                 3 x 8
	179  max x, min x, max y, min y,
	     max z, min z                   6 x 8

LAS 1.3 appends a waveform start offset at 227; it is not read.
*/

// HeaderSize is the number of bytes read to interpret a file.
const HeaderSize = 227

// Latest supported version.
const (
	MaxVersionMajor = 1
	MaxVersionMinor = 3
)

var signature = [4]byte{'L', 'A', 'S', 'F'}

const (
	offFileSourceID   = 4
	offGlobalEncoding = 6
	offGUID           = 8
	offVersionMajor   = 24
	offVersionMinor   = 25
	offSystemID       = 26
	offSoftware       = 58
	offCreationDay    = 90
	offCreationYear   = 92
	offHeaderSize     = 94
	offPointOffset    = 96
	offVLRCount       = 100
	offPointFormat    = 104
	offPointSize      = 105
	offPointCount     = 107
	offPointsByReturn = 111
	offScale          = 131
	offOffset         = 155
	offBounds         = 179

	identifierSize = 32
)

// GlobalEncoding is the bit field at offset 6 of the header.
type GlobalEncoding uint16

// GPSStandardTime reports whether GPS time is adjusted standard GPS time
// rather than GPS week time (bit 0).
func (g GlobalEncoding) GPSStandardTime() bool { return g&(1<<0) != 0 }

// WaveformInternal reports whether waveform packets follow the point data (bit 1).
func (g GlobalEncoding) WaveformInternal() bool { return g&(1<<1) != 0 }

// WaveformExternal reports whether waveform packets live in a sidecar file (bit 2).
func (g GlobalEncoding) WaveformExternal() bool { return g&(1<<2) != 0 }

// SyntheticReturnNumbers reports whether return numbers were generated (bit 3).
func (g GlobalEncoding) SyntheticReturnNumbers() bool { return g&(1<<3) != 0 }

// WKT reports whether the coordinate reference system is WKT (bit 4).
func (g GlobalEncoding) WKT() bool { return g&(1<<4) != 0 }

// Header is the public header block at stored precision.
type Header struct {
	FileSourceID   uint16
	GlobalEncoding GlobalEncoding
	ProjectID      uuid.UUID
	VersionMajor   uint8
	VersionMinor   uint8
	SystemID       string
	Software       string
	CreationDay    uint16
	CreationYear   uint16
	HeaderSize     uint16
	PointOffset    uint32
	VLRCount       uint32
	PointFormat    uint8
	PointSize      uint16
	PointCount     uint32
	PointsByReturn [5]uint32

	ScaleX, ScaleY, ScaleZ    float64
	OffsetX, OffsetY, OffsetZ float64
	MinX, MinY, MinZ          float64
	MaxX, MaxY, MaxZ          float64
}

// Info is the normalised summary of a file used by the decoders.
//
// Scale, offset and bounds are narrowed to float32. Every decoded coordinate
// is computed in single precision from these values, which costs accuracy on
// large georeferenced offsets; Header keeps the stored float64 values.
type Info struct {
	VersionMajor uint8
	VersionMinor uint8
	PointFormat  uint8
	PointCount   uint64
	PointOffset  uint32
	PointSize    uint32

	ScaleX, ScaleY, ScaleZ    float32
	OffsetX, OffsetY, OffsetZ float32
	MinX, MinY, MinZ          float32
	MaxX, MaxY, MaxZ          float32
}

// ParseHeader decodes and validates the public header block at the start of b.
//
// Checks run in a fixed order: length, signature, version, point format and
// finally record length. The first failure is returned.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrIORead, HeaderSize, len(b))
	}
	if [4]byte(b[:4]) != signature {
		err := fmt.Errorf("%w: bad signature %q", ErrInvalidFile, b[:4])
		diagf("rejected header: %v", err)
		return Header{}, err
	}

	le := binary.LittleEndian
	h := Header{
		FileSourceID:   le.Uint16(b[offFileSourceID:]),
		GlobalEncoding: GlobalEncoding(le.Uint16(b[offGlobalEncoding:])),
		ProjectID:      parseGUID(b[offGUID : offGUID+16]),
		VersionMajor:   b[offVersionMajor],
		VersionMinor:   b[offVersionMinor],
		SystemID:       parseIdentifier(b[offSystemID : offSystemID+identifierSize]),
		Software:       parseIdentifier(b[offSoftware : offSoftware+identifierSize]),
		CreationDay:    le.Uint16(b[offCreationDay:]),
		CreationYear:   le.Uint16(b[offCreationYear:]),
		HeaderSize:     le.Uint16(b[offHeaderSize:]),
		PointOffset:    le.Uint32(b[offPointOffset:]),
		VLRCount:       le.Uint32(b[offVLRCount:]),
		PointFormat:    b[offPointFormat],
		PointSize:      le.Uint16(b[offPointSize:]),
		PointCount:     le.Uint32(b[offPointCount:]),

		ScaleX:  readFloat64(b[offScale:]),
		ScaleY:  readFloat64(b[offScale+8:]),
		ScaleZ:  readFloat64(b[offScale+16:]),
		OffsetX: readFloat64(b[offOffset:]),
		OffsetY: readFloat64(b[offOffset+8:]),
		OffsetZ: readFloat64(b[offOffset+16:]),
		MaxX:    readFloat64(b[offBounds:]),
		MinX:    readFloat64(b[offBounds+8:]),
		MaxY:    readFloat64(b[offBounds+16:]),
		MinY:    readFloat64(b[offBounds+24:]),
		MaxZ:    readFloat64(b[offBounds+32:]),
		MinZ:    readFloat64(b[offBounds+40:]),
	}
	for i := range h.PointsByReturn {
		h.PointsByReturn[i] = le.Uint32(b[offPointsByReturn+4*i:])
	}

	if err := h.validate(); err != nil {
		diagf("rejected header: %v", err)
		return Header{}, err
	}
	return h, nil
}

func (h *Header) validate() error {
	if h.VersionMajor > MaxVersionMajor ||
		(h.VersionMajor == MaxVersionMajor && h.VersionMinor > MaxVersionMinor) {
		return fmt.Errorf("%w: got %d.%d", ErrVersionUnsupported, h.VersionMajor, h.VersionMinor)
	}

	if h.PointFormat > MaxFormat {
		switch base := h.PointFormat & 0x3F; {
		case h.PointFormat&0xC0 != 0:
			return fmt.Errorf("%w: point format %d is compressed (LAZ)", ErrFormatUnsupported, base)
		case h.PointFormat <= maxKnownFormat:
			return fmt.Errorf("%w: point format %d has no attribute table", ErrFormatUnsupported, h.PointFormat)
		default:
			return fmt.Errorf("%w: got %d", ErrFormatUnsupported, h.PointFormat)
		}
	}

	if want, _ := MinPointSize(h.PointFormat); int(h.PointSize) < want {
		return fmt.Errorf("%w: point record length %d shorter than %d for format %d",
			ErrInvalidFile, h.PointSize, want, h.PointFormat)
	}
	return nil
}

// Version returns the version as "major.minor".
func (h Header) Version() string {
	return fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor)
}

// Info narrows the header into the summary used by the decoders.
func (h Header) Info() Info {
	return Info{
		VersionMajor: h.VersionMajor,
		VersionMinor: h.VersionMinor,
		PointFormat:  h.PointFormat,
		PointCount:   uint64(h.PointCount),
		PointOffset:  h.PointOffset,
		PointSize:    uint32(h.PointSize),
		ScaleX:       float32(h.ScaleX),
		ScaleY:       float32(h.ScaleY),
		ScaleZ:       float32(h.ScaleZ),
		OffsetX:      float32(h.OffsetX),
		OffsetY:      float32(h.OffsetY),
		OffsetZ:      float32(h.OffsetZ),
		MinX:         float32(h.MinX),
		MinY:         float32(h.MinY),
		MinZ:         float32(h.MinZ),
		MaxX:         float32(h.MaxX),
		MaxY:         float32(h.MaxY),
		MaxZ:         float32(h.MaxZ),
	}
}

// Version returns the version as "major.minor".
func (i Info) Version() string {
	return fmt.Sprintf("%d.%d", i.VersionMajor, i.VersionMinor)
}

// DataEnd returns the file offset one past the last point record.
func (i Info) DataEnd() uint64 {
	return uint64(i.PointOffset) + i.PointCount*uint64(i.PointSize)
}

// resolveCount expands AllPoints to the records remaining after first.
func (i Info) resolveCount(first, count uint64) uint64 {
	if count == AllPoints && first <= i.PointCount {
		return i.PointCount - first
	}
	return count
}

func (i Info) checkRange(first, count uint64) error {
	if first > i.PointCount || count > i.PointCount-first {
		return fmt.Errorf("%w: first %d + count %d exceeds %d points", ErrInvalidRange, first, count, i.PointCount)
	}
	return nil
}

// InfoFromBytes interprets the header at the start of a file image.
func InfoFromBytes(image []byte) (Info, error) {
	h, err := ParseHeader(image)
	if err != nil {
		return Info{}, err
	}
	return h.Info(), nil
}

// parseGUID converts the mixed-endian on-disk GUID into RFC 4122 byte order.
func parseGUID(b []byte) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint32(id[0:4], binary.LittleEndian.Uint32(b[0:4]))
	binary.BigEndian.PutUint16(id[4:6], binary.LittleEndian.Uint16(b[4:6]))
	binary.BigEndian.PutUint16(id[6:8], binary.LittleEndian.Uint16(b[6:8]))
	copy(id[8:], b[8:16])
	return id
}

func parseIdentifier(b []byte) string {
	return strings.TrimRight(string(b), "\x00 ")
}

func readFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
