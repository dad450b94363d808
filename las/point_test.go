package las

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/laser/internal/testutil"
)

func TestUnpackReturnFlags(t *testing.T) {
	tests := []struct {
		b    uint8
		want ReturnFlags
	}{
		{0x00, ReturnFlags{}},
		{0b10100011, ReturnFlags{ReturnNumber: 3, ReturnCount: 4, EdgeOfFlightLine: true}},
		{0b01001001, ReturnFlags{ReturnNumber: 1, ReturnCount: 1, ScanDirection: true}},
		{0xFF, ReturnFlags{ReturnNumber: 7, ReturnCount: 7, ScanDirection: true, EdgeOfFlightLine: true}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UnpackReturnFlags(tt.b), "byte %08b", tt.b)
	}
}

func TestReadPoints_FlagsByte(t *testing.T) {
	image := testutil.LASFile{Points: []testutil.LASPoint{{Flags: 0b10100011}}}.Bytes()
	want := ReturnFlags{ReturnNumber: 3, ReturnCount: 4, ScanDirection: false, EdgeOfFlightLine: true}

	mem := make([]Point, 1)
	require.NoError(t, ReadPointsFromBytes(mem, image, 0, 1))
	assert.Equal(t, want, mem[0].Flags)

	streamed := make([]Point, 1)
	require.NoError(t, ReadPointsFromReader(streamed, bytes.NewReader(image), 0, 1))
	assert.Equal(t, want, streamed[0].Flags)
}

func TestUnpackClassFlags(t *testing.T) {
	tests := []struct {
		b    uint8
		want ClassFlags
	}{
		{0x02, ClassFlags{Class: ClassGround}},
		{0b00100110, ClassFlags{Class: ClassBuilding, Synthetic: true}},
		{0b11001001, ClassFlags{Class: ClassWater, KeyPoint: true, Withheld: true}},
		{0xFF, ClassFlags{Class: 31, Synthetic: true, KeyPoint: true, Withheld: true}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UnpackClassFlags(tt.b), "byte %08b", tt.b)
	}
}

func TestFlagsPackRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		assert.Equal(t, uint8(b), UnpackReturnFlags(uint8(b)).Pack())
		assert.Equal(t, uint8(b), UnpackClassFlags(uint8(b)).Pack())
	}
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "ground", ClassGround.String())
	assert.Equal(t, "overlap points", ClassOverlapPoints.String())
	assert.Equal(t, "reserved", ClassReserved10.String())
	assert.Equal(t, "reserved", Classification(25).String())
	assert.Equal(t, "Classification(40)", Classification(40).String())
}

func TestDefaultProjectionLayout(t *testing.T) {
	p := DefaultProjection()
	assert.Equal(t, 20, p.Stride())
	assert.Equal(t, 20, p.Extent())

	want := map[Attribute]int{
		AttributeX:              0,
		AttributeY:              4,
		AttributeZ:              8,
		AttributeIntensity:      12,
		AttributeFlags:          14,
		AttributeClassification: 15,
		AttributeScanAngle:      16,
		AttributeSourceID:       17,
		AttributePointID:        18,
	}
	assert.Len(t, p.Attributes(), len(want))
	for a, off := range want {
		got, ok := p.Offset(a)
		assert.True(t, ok, "%s", a)
		assert.Equal(t, off, got, "%s", a)
	}
}

func TestDecodePoints_BatchBoundary(t *testing.T) {
	const n = pointBatch*2 + 5
	image := sampleFile(1, n).Bytes()
	info := mustInfo(t, image)

	dst := make([]Point, n)
	decodePoints(dst, image[info.PointOffset:], info, n)

	for i, p := range samplePoints(n) {
		if !assert.Equal(t, wantPoint(info, p), dst[i], "point %d", i) {
			break
		}
	}
}
