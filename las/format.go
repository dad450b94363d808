package las

// MaxFormat is the highest point data record format with an attribute table.
const MaxFormat = 5

// maxKnownFormat is the highest point data record format defined by LAS 1.4.
// Formats above MaxFormat are recognised in error messages only.
const maxKnownFormat = 10

// Offsets of each attribute within a raw point record, per point format.
// Zero entries are meaningless unless the matching validity bit is set.
var offsetTable = [MaxFormat + 1][attributeCount]uint32{
	{0, 4, 8, 12, 14, 15, 16, 17, 18, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 4, 8, 12, 14, 15, 16, 17, 18, 20, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 4, 8, 12, 14, 15, 16, 17, 18, 0, 20, 22, 24, 0, 0, 0, 0, 0, 0, 0},
	{0, 4, 8, 12, 14, 15, 16, 17, 18, 20, 28, 30, 32, 0, 0, 0, 0, 0, 0, 0},
	{0, 4, 8, 12, 14, 15, 16, 17, 18, 20, 0, 0, 0, 28, 29, 37, 41, 45, 49, 53},
	{0, 4, 8, 12, 14, 15, 16, 17, 18, 20, 28, 30, 32, 34, 35, 43, 47, 51, 55, 59},
}

var validTable = [MaxFormat + 1]attributeMask{
	0x1FF, 0x3FF, 0x1DFF, 0x1FFF, 0xFE3FF, 0xFFFFF,
}

// Standard record lengths for formats 0 through 10. A file may declare a
// longer record (extra bytes) but never a shorter one.
var standardPointSize = [maxKnownFormat + 1]int{20, 28, 26, 34, 57, 63, 30, 36, 38, 59, 67}

// Supports reports whether records of the given point format carry a.
func Supports(format uint8, a Attribute) bool {
	if format > MaxFormat || !a.Valid() {
		return false
	}
	return validTable[format].has(a)
}

// AttributeOffset returns the byte offset of a within a raw record of the
// given point format. The boolean is false when the format does not carry a.
func AttributeOffset(format uint8, a Attribute) (uint32, bool) {
	if !Supports(format, a) {
		return 0, false
	}
	return offsetTable[format][a], true
}

// Attributes lists the attributes carried by the given point format in
// enumeration order. It returns nil for formats without a table.
func Attributes(format uint8) []Attribute {
	if format > MaxFormat {
		return nil
	}
	var out []Attribute
	for a := Attribute(0); a < attributeCount; a++ {
		if validTable[format].has(a) {
			out = append(out, a)
		}
	}
	return out
}

// MinPointSize returns the standard record length of the given point format.
func MinPointSize(format uint8) (int, bool) {
	if int(format) >= len(standardPointSize) {
		return 0, false
	}
	return standardPointSize[format], true
}
