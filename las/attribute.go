package las

import "fmt"

// Attribute identifies a logical point attribute independently of where a
// given point format stores it.
type Attribute int

// AttributeNone terminates an attribute request list.
const AttributeNone Attribute = -1

// The first nine attributes are shared by every point format from 0 to 5.
// The remainder exist only in some formats; Supports reports which.
const (
	AttributeX              Attribute = iota // float32, scaled and offset
	AttributeY                               // float32, scaled and offset
	AttributeZ                               // float32, scaled and offset
	AttributeIntensity                       // uint16
	AttributeFlags                           // uint8, packed return flags
	AttributeClassification                  // uint8, packed class flags
	AttributeScanAngle                       // int8, scan angle rank
	AttributeSourceID                        // uint8, user data byte
	AttributePointID                         // uint16, point source id
	AttributeGPSTime                         // float64
	AttributeRed                             // uint16
	AttributeGreen                           // uint16
	AttributeBlue                            // uint16
	AttributeWavePacketIndex                 // uint8, wave packet descriptor index
	AttributeWaveformOffset                  // uint64, byte offset to waveform data
	AttributeWaveformSize                    // uint32, waveform packet size in bytes
	AttributeWaveformLocation                // float32, return point waveform location
	AttributeXTime                           // float32, x(t) parametric
	AttributeYTime                           // float32, y(t) parametric
	AttributeZTime                           // float32, z(t) parametric

	attributeCount
)

// NumAttributes is the number of defined logical attributes.
const NumAttributes = int(attributeCount)

// Kind is the in-memory type an attribute decodes to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
)

var kindSizes = [...]int{
	KindInvalid: 0,
	KindInt8:    1,
	KindUint8:   1,
	KindUint16:  2,
	KindUint32:  4,
	KindUint64:  8,
	KindFloat32: 4,
	KindFloat64: 8,
}

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt8:    "int8",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
}

// Size returns the width of the kind in bytes.
func (k Kind) Size() int {
	if int(k) >= len(kindSizes) {
		return 0
	}
	return kindSizes[k]
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return kindNames[k]
}

var attributeDefs = [attributeCount]struct {
	name string
	kind Kind
}{
	AttributeX:                {"x", KindFloat32},
	AttributeY:                {"y", KindFloat32},
	AttributeZ:                {"z", KindFloat32},
	AttributeIntensity:        {"intensity", KindUint16},
	AttributeFlags:            {"flags", KindUint8},
	AttributeClassification:   {"classification", KindUint8},
	AttributeScanAngle:        {"scan_angle", KindInt8},
	AttributeSourceID:         {"source_id", KindUint8},
	AttributePointID:          {"point_id", KindUint16},
	AttributeGPSTime:          {"gps_time", KindFloat64},
	AttributeRed:              {"red", KindUint16},
	AttributeGreen:            {"green", KindUint16},
	AttributeBlue:             {"blue", KindUint16},
	AttributeWavePacketIndex:  {"wave_packet_index", KindUint8},
	AttributeWaveformOffset:   {"waveform_offset", KindUint64},
	AttributeWaveformSize:     {"waveform_size", KindUint32},
	AttributeWaveformLocation: {"waveform_location", KindFloat32},
	AttributeXTime:            {"x_time", KindFloat32},
	AttributeYTime:            {"y_time", KindFloat32},
	AttributeZTime:            {"z_time", KindFloat32},
}

// Valid reports whether a names a defined attribute. AttributeNone is not valid.
func (a Attribute) Valid() bool {
	return a >= 0 && a < attributeCount
}

// Common reports whether a belongs to the nine attributes every legacy
// point format carries.
func (a Attribute) Common() bool {
	return a >= AttributeX && a <= AttributePointID
}

// Spatial reports whether a is one of the scaled X, Y or Z coordinates.
func (a Attribute) Spatial() bool {
	return a >= AttributeX && a <= AttributeZ
}

// Kind returns the decoded type of a, or KindInvalid.
func (a Attribute) Kind() Kind {
	if !a.Valid() {
		return KindInvalid
	}
	return attributeDefs[a].kind
}

// Size returns the decoded width of a in bytes.
func (a Attribute) Size() int {
	return a.Kind().Size()
}

func (a Attribute) String() string {
	if a == AttributeNone {
		return "none"
	}
	if !a.Valid() {
		return fmt.Sprintf("Attribute(%d)", int(a))
	}
	return attributeDefs[a].name
}

// ParseAttribute returns the attribute whose String form is name.
func ParseAttribute(name string) (Attribute, error) {
	for a := Attribute(0); a < attributeCount; a++ {
		if attributeDefs[a].name == name {
			return a, nil
		}
	}
	return AttributeNone, fmt.Errorf("%w: unknown attribute %q", ErrInvalidProjection, name)
}

// attributeMask holds one bit per Attribute.
type attributeMask uint32

func (m attributeMask) has(a Attribute) bool {
	return m&(1<<uint(a)) != 0
}

func (a Attribute) bit() attributeMask {
	return 1 << uint(a)
}
