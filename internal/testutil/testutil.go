// Package testutil provides shared test utilities and fixtures.
//
// The LAS fixtures are built byte by byte from the published record layouts
// and do not depend on the decoder, so decoder tests can cross-check against
// an independent encoding.
package testutil

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// LASHeaderSize is the size of the LAS 1.0-1.3 public header block.
const LASHeaderSize = 227

// LASPointSizes are the standard record lengths of point formats 0-5.
var LASPointSizes = [6]int{20, 28, 26, 34, 57, 63}

// LASPoint holds raw (unscaled) field values for one point record. Fields a
// point format does not carry are ignored when encoding.
type LASPoint struct {
	X, Y, Z        int32
	Intensity      uint16
	Flags          uint8
	Classification uint8
	ScanAngle      int8
	UserData       uint8
	PointSourceID  uint16

	GPSTime          float64
	Red, Green, Blue uint16

	WavePacketIndex  uint8
	WaveformOffset   uint64
	WaveformSize     uint32
	WaveformLocation float32
	XT, YT, ZT       float32
}

// LASFile describes a synthetic LAS file. Zero values select sensible
// defaults: signature "LASF", version 1.2, standard record length, scale
// 0.01 on every axis, and a declared point count equal to len(Points).
type LASFile struct {
	Signature      string
	VersionMajor   uint8
	VersionMinor   uint8
	FileSourceID   uint16
	GlobalEncoding uint16
	GUID           [16]byte
	SystemID       string
	Software       string
	CreationDay    uint16
	CreationYear   uint16
	PointFormat    uint8
	PointSize      uint16
	// VLRBytes inserts a gap of this many bytes between header and records.
	VLRBytes int
	// PointCount overrides the declared record count when non-nil.
	PointCount     *uint32
	PointsByReturn [5]uint32

	Scale  [3]float64
	Offset [3]float64
	Min    [3]float64
	Max    [3]float64

	Points []LASPoint
}

// Bytes encodes the file image.
func (f LASFile) Bytes() []byte {
	le := binary.LittleEndian

	sig := f.Signature
	if sig == "" {
		sig = "LASF"
	}
	major, minor := f.VersionMajor, f.VersionMinor
	if major == 0 && minor == 0 {
		major, minor = 1, 2
	}
	pointSize := int(f.PointSize)
	if pointSize == 0 && int(f.PointFormat) < len(LASPointSizes) {
		pointSize = LASPointSizes[f.PointFormat]
	}
	scale := f.Scale
	if scale == [3]float64{} {
		scale = [3]float64{0.01, 0.01, 0.01}
	}
	count := uint32(len(f.Points))
	if f.PointCount != nil {
		count = *f.PointCount
	}
	pointOffset := LASHeaderSize + f.VLRBytes

	buf := make([]byte, pointOffset+pointSize*len(f.Points))
	copy(buf[0:4], sig)
	le.PutUint16(buf[4:], f.FileSourceID)
	le.PutUint16(buf[6:], f.GlobalEncoding)
	copy(buf[8:24], f.GUID[:])
	buf[24] = major
	buf[25] = minor
	copy(buf[26:58], f.SystemID)
	copy(buf[58:90], f.Software)
	le.PutUint16(buf[90:], f.CreationDay)
	le.PutUint16(buf[92:], f.CreationYear)
	le.PutUint16(buf[94:], LASHeaderSize)
	le.PutUint32(buf[96:], uint32(pointOffset))
	le.PutUint32(buf[100:], 0)
	buf[104] = f.PointFormat
	le.PutUint16(buf[105:], uint16(pointSize))
	le.PutUint32(buf[107:], count)
	for i, n := range f.PointsByReturn {
		le.PutUint32(buf[111+4*i:], n)
	}
	for i := 0; i < 3; i++ {
		le.PutUint64(buf[131+8*i:], math.Float64bits(scale[i]))
		le.PutUint64(buf[155+8*i:], math.Float64bits(f.Offset[i]))
		le.PutUint64(buf[179+16*i:], math.Float64bits(f.Max[i]))
		le.PutUint64(buf[187+16*i:], math.Float64bits(f.Min[i]))
	}

	for i, p := range f.Points {
		encodeLASPoint(buf[pointOffset+i*pointSize:pointOffset+(i+1)*pointSize], f.PointFormat, p)
	}
	return buf
}

func encodeLASPoint(rec []byte, format uint8, p LASPoint) {
	le := binary.LittleEndian
	le.PutUint32(rec[0:], uint32(p.X))
	le.PutUint32(rec[4:], uint32(p.Y))
	le.PutUint32(rec[8:], uint32(p.Z))
	le.PutUint16(rec[12:], p.Intensity)
	rec[14] = p.Flags
	rec[15] = p.Classification
	rec[16] = uint8(p.ScanAngle)
	rec[17] = p.UserData
	le.PutUint16(rec[18:], p.PointSourceID)

	putRGB := func(at int) {
		le.PutUint16(rec[at:], p.Red)
		le.PutUint16(rec[at+2:], p.Green)
		le.PutUint16(rec[at+4:], p.Blue)
	}
	putWave := func(at int) {
		rec[at] = p.WavePacketIndex
		le.PutUint64(rec[at+1:], p.WaveformOffset)
		le.PutUint32(rec[at+9:], p.WaveformSize)
		le.PutUint32(rec[at+13:], math.Float32bits(p.WaveformLocation))
		le.PutUint32(rec[at+17:], math.Float32bits(p.XT))
		le.PutUint32(rec[at+21:], math.Float32bits(p.YT))
		le.PutUint32(rec[at+25:], math.Float32bits(p.ZT))
	}

	switch format {
	case 1:
		le.PutUint64(rec[20:], math.Float64bits(p.GPSTime))
	case 2:
		putRGB(20)
	case 3:
		le.PutUint64(rec[20:], math.Float64bits(p.GPSTime))
		putRGB(28)
	case 4:
		le.PutUint64(rec[20:], math.Float64bits(p.GPSTime))
		putWave(28)
	case 5:
		le.PutUint64(rec[20:], math.Float64bits(p.GPSTime))
		putRGB(28)
		putWave(34)
	}
}

// Uint32 returns a pointer to v, for LASFile.PointCount.
func Uint32(v uint32) *uint32 { return &v }

// ReadCall records one ReadAt invocation on a RecordingReaderAt.
type ReadCall struct {
	Offset int64
	Size   int
}

// RecordingReaderAt serves positioned reads from an in-memory image and
// records every call. Reads past Limit (when positive) are truncated, which
// simulates a file shorter than its header claims.
type RecordingReaderAt struct {
	Data  []byte
	Limit int64

	mu    sync.Mutex
	calls []ReadCall
}

// ReadAt copies from Data, returning a short count at the end of the data.
func (r *RecordingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	r.mu.Lock()
	r.calls = append(r.calls, ReadCall{Offset: off, Size: len(p)})
	r.mu.Unlock()

	end := int64(len(r.Data))
	if r.Limit > 0 && r.Limit < end {
		end = r.Limit
	}
	if off >= end {
		return 0, errShortRead
	}
	n := copy(p, r.Data[off:end])
	if n < len(p) {
		return n, errShortRead
	}
	return n, nil
}

// Calls returns the reads made so far.
func (r *RecordingReaderAt) Calls() []ReadCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ReadCall(nil), r.calls...)
}

type shortReadError struct{}

func (shortReadError) Error() string { return "testutil: short read" }

var errShortRead error = shortReadError{}
