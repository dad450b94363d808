package las

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/banshee-data/laser/internal/testutil"
)

// samplePoints returns n records with every field varying by index.
func samplePoints(n int) []testutil.LASPoint {
	pts := make([]testutil.LASPoint, n)
	for i := range pts {
		pts[i] = testutil.LASPoint{
			X:                int32(i*1000 - 5000),
			Y:                int32(i * 37),
			Z:                int32(-i * 11),
			Intensity:        uint16(i * 97),
			Flags:            uint8(i * 13),
			Classification:   uint8(i * 7),
			ScanAngle:        int8(i%180 - 90),
			UserData:         uint8(i),
			PointSourceID:    uint16(i * 3),
			GPSTime:          float64(i) * 0.25,
			Red:              uint16(i),
			Green:            uint16(i * 2),
			Blue:             uint16(i * 3),
			WavePacketIndex:  uint8(i % 7),
			WaveformOffset:   uint64(i) * 1024,
			WaveformSize:     uint32(i) * 8,
			WaveformLocation: float32(i) * 0.5,
			XT:               1,
			YT:               2,
			ZT:               float32(i),
		}
	}
	return pts
}

func sampleFile(format uint8, n int) testutil.LASFile {
	return testutil.LASFile{
		PointFormat: format,
		VLRBytes:    54,
		Scale:       [3]float64{0.01, 0.01, 0.001},
		Offset:      [3]float64{1000.5, -250.25, 12},
		Min:         [3]float64{-50, -10, 0},
		Max:         [3]float64{1000, 4000, 2000},
		Points:      samplePoints(n),
	}
}

// wantPoint decodes a fixture record the way the default decoder should.
func wantPoint(info Info, p testutil.LASPoint) Point {
	return Point{
		X:              float32(float32(p.X)*info.ScaleX) + info.OffsetX,
		Y:              float32(float32(p.Y)*info.ScaleY) + info.OffsetY,
		Z:              float32(float32(p.Z)*info.ScaleZ) + info.OffsetZ,
		Intensity:      p.Intensity,
		Flags:          UnpackReturnFlags(p.Flags),
		Classification: UnpackClassFlags(p.Classification),
		ScanAngle:      p.ScanAngle,
		SourceID:       p.UserData,
		PointID:        p.PointSourceID,
	}
}

func mustInfo(t *testing.T, image []byte) Info {
	t.Helper()
	info, err := InfoFromBytes(image)
	testutil.AssertNoError(t, err)
	return info
}

func float32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func float64At(b []byte, off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
}

func uint16At(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}
