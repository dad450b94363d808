package las

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Classification is the ASPRS class stored in bits 0-4 of the
// classification byte.
type Classification uint8

const (
	ClassNeverClassified Classification = iota
	ClassUnclassified
	ClassGround
	ClassLowVegetation
	ClassMediumVegetation
	ClassHighVegetation
	ClassBuilding
	ClassLowPoint
	ClassModelKeyPoint
	ClassWater
	ClassReserved10
	ClassReserved11
	ClassOverlapPoints
)

// NumClasses is the number of values bits 0-4 can hold.
const NumClasses = 32

var classNames = [...]string{
	ClassNeverClassified:  "never classified",
	ClassUnclassified:     "unclassified",
	ClassGround:           "ground",
	ClassLowVegetation:    "low vegetation",
	ClassMediumVegetation: "medium vegetation",
	ClassHighVegetation:   "high vegetation",
	ClassBuilding:         "building",
	ClassLowPoint:         "low point",
	ClassModelKeyPoint:    "model key-point",
	ClassWater:            "water",
	ClassReserved10:       "reserved",
	ClassReserved11:       "reserved",
	ClassOverlapPoints:    "overlap points",
}

func (c Classification) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	if c < NumClasses {
		return "reserved"
	}
	return fmt.Sprintf("Classification(%d)", uint8(c))
}

// Bit layout of the packed flags byte.
const (
	returnNumberMask = 0x07 // bits 0-2
	returnCountShift = 3
	returnCountMask  = 0x07 // bits 3-5
	scanDirectionBit = 6
	edgeOfFlightBit  = 7
	classMask        = 0x1F // bits 0-4
	syntheticBit     = 5
	keyPointBit      = 6
	withheldBit      = 7
)

// ReturnFlags is the unpacked form of the flags byte.
type ReturnFlags struct {
	ReturnNumber     uint8 // bits 0-2
	ReturnCount      uint8 // bits 3-5
	ScanDirection    bool  // bit 6
	EdgeOfFlightLine bool  // bit 7
}

// UnpackReturnFlags splits a raw flags byte into its sub-fields.
func UnpackReturnFlags(b uint8) ReturnFlags {
	return ReturnFlags{
		ReturnNumber:     b & returnNumberMask,
		ReturnCount:      (b >> returnCountShift) & returnCountMask,
		ScanDirection:    b&(1<<scanDirectionBit) != 0,
		EdgeOfFlightLine: b&(1<<edgeOfFlightBit) != 0,
	}
}

// Pack reassembles the raw flags byte.
func (f ReturnFlags) Pack() uint8 {
	b := f.ReturnNumber&returnNumberMask | (f.ReturnCount&returnCountMask)<<returnCountShift
	if f.ScanDirection {
		b |= 1 << scanDirectionBit
	}
	if f.EdgeOfFlightLine {
		b |= 1 << edgeOfFlightBit
	}
	return b
}

// ClassFlags is the unpacked form of the classification byte.
type ClassFlags struct {
	Class     Classification // bits 0-4
	Synthetic bool           // bit 5
	KeyPoint  bool           // bit 6
	Withheld  bool           // bit 7
}

// UnpackClassFlags splits a raw classification byte into its sub-fields.
func UnpackClassFlags(b uint8) ClassFlags {
	return ClassFlags{
		Class:     Classification(b & classMask),
		Synthetic: b&(1<<syntheticBit) != 0,
		KeyPoint:  b&(1<<keyPointBit) != 0,
		Withheld:  b&(1<<withheldBit) != 0,
	}
}

// Pack reassembles the raw classification byte.
func (c ClassFlags) Pack() uint8 {
	b := uint8(c.Class) & classMask
	if c.Synthetic {
		b |= 1 << syntheticBit
	}
	if c.KeyPoint {
		b |= 1 << keyPointBit
	}
	if c.Withheld {
		b |= 1 << withheldBit
	}
	return b
}

// Point holds the attributes common to point formats 0 through 5.
type Point struct {
	X, Y, Z        float32
	Intensity      uint16
	Flags          ReturnFlags
	Classification ClassFlags
	ScanAngle      int8
	SourceID       uint8
	PointID        uint16
}

// Packed layout the default decoder projects into before unpacking.
const (
	pointX              = 0
	pointY              = 4
	pointZ              = 8
	pointIntensity      = 12
	pointFlags          = 14
	pointClassification = 15
	pointScanAngle      = 16
	pointSourceID       = 17
	pointPointID        = 18
	pointRecordSize     = 20

	// pointBatch bounds the staging buffer used by the default decoder.
	pointBatch = 128
)

var defaultProjection = mustProjection(pointRecordSize,
	AttributeRequest{AttributeX, pointX},
	AttributeRequest{AttributeY, pointY},
	AttributeRequest{AttributeZ, pointZ},
	AttributeRequest{AttributeIntensity, pointIntensity},
	AttributeRequest{AttributeFlags, pointFlags},
	AttributeRequest{AttributeClassification, pointClassification},
	AttributeRequest{AttributeScanAngle, pointScanAngle},
	AttributeRequest{AttributeSourceID, pointSourceID},
	AttributeRequest{AttributePointID, pointPointID},
)

// DefaultProjection returns the projection behind the []Point decoders. Its
// 20-byte element keeps flags and classification as single raw bytes.
func DefaultProjection() Projection {
	return defaultProjection
}

func unpackPoint(b []byte) Point {
	le := binary.LittleEndian
	return Point{
		X:              math.Float32frombits(le.Uint32(b[pointX:])),
		Y:              math.Float32frombits(le.Uint32(b[pointY:])),
		Z:              math.Float32frombits(le.Uint32(b[pointZ:])),
		Intensity:      le.Uint16(b[pointIntensity:]),
		Flags:          UnpackReturnFlags(b[pointFlags]),
		Classification: UnpackClassFlags(b[pointClassification]),
		ScanAngle:      int8(b[pointScanAngle]),
		SourceID:       b[pointSourceID],
		PointID:        le.Uint16(b[pointPointID:]),
	}
}

// decodePoints runs the default projection over count raw records and
// unpacks the result into dst, staging at most pointBatch records at a time.
func decodePoints(dst []Point, raw []byte, info Info, count uint64) {
	var stage [pointBatch * pointRecordSize]byte
	pointSize := uint64(info.PointSize)

	for done := uint64(0); done < count; {
		n := min(count-done, pointBatch)
		defaultProjection.decode(stage[:], raw[done*pointSize:], info, n)
		for i := uint64(0); i < n; i++ {
			dst[done+i] = unpackPoint(stage[i*pointRecordSize:])
		}
		done += n
	}
}

func checkPoints(dst []Point, count uint64) error {
	if uint64(len(dst)) < count {
		return fmt.Errorf("%w: need %d points, have %d", ErrShortBuffer, count, len(dst))
	}
	return nil
}
