package las

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// maxPlacement bounds offsets and strides so that offset plus the widest
// attribute always fits in an int.
const maxPlacement = math.MaxInt - 8

// AttributeRequest places one attribute at Offset bytes into each
// destination element.
type AttributeRequest struct {
	Attribute Attribute
	Offset    int
}

// Projection describes how raw records are transcoded into caller memory:
// which attributes are written, where each lands inside an element, and the
// distance in bytes between consecutive elements.
//
// Values are written little-endian. Destination offsets may overlap; later
// attributes in enumeration order overwrite earlier ones.
type Projection struct {
	stride  int
	extent  int
	mask    attributeMask
	offsets [attributeCount]int
}

// NewProjection builds a projection from a request list. Request order is
// insignificant and a repeated attribute keeps its last offset. Processing
// stops at the first AttributeNone entry.
//
// A stride of zero packs elements back to back using the projection's extent.
func NewProjection(stride int, reqs ...AttributeRequest) (Projection, error) {
	if stride < 0 {
		return Projection{}, fmt.Errorf("%w: negative stride %d", ErrInvalidProjection, stride)
	}
	if stride > maxPlacement {
		return Projection{}, fmt.Errorf("%w: stride %d too large", ErrInvalidProjection, stride)
	}

	var p Projection
	for _, r := range reqs {
		if r.Attribute == AttributeNone {
			break
		}
		if !r.Attribute.Valid() {
			return Projection{}, fmt.Errorf("%w: unknown attribute %d", ErrInvalidProjection, int(r.Attribute))
		}
		if r.Offset < 0 {
			return Projection{}, fmt.Errorf("%w: negative offset %d for %s", ErrInvalidProjection, r.Offset, r.Attribute)
		}
		if r.Offset > maxPlacement {
			return Projection{}, fmt.Errorf("%w: offset %d for %s too large", ErrInvalidProjection, r.Offset, r.Attribute)
		}
		p.mask |= r.Attribute.bit()
		p.offsets[r.Attribute] = r.Offset
	}

	for a := Attribute(0); a < attributeCount; a++ {
		if p.mask.has(a) {
			p.extent = max(p.extent, p.offsets[a]+a.Size())
		}
	}
	if stride == 0 {
		stride = p.extent
	}
	p.stride = stride
	return p, nil
}

func mustProjection(stride int, reqs ...AttributeRequest) Projection {
	p, err := NewProjection(stride, reqs...)
	if err != nil {
		panic(err)
	}
	return p
}

// Stride returns the distance in bytes between destination elements.
func (p Projection) Stride() int { return p.stride }

// Extent returns the number of bytes of an element touched by the projection.
func (p Projection) Extent() int { return p.extent }

// Has reports whether a is projected.
func (p Projection) Has(a Attribute) bool {
	return a.Valid() && p.mask.has(a)
}

// Offset returns the destination offset of a.
func (p Projection) Offset(a Attribute) (int, bool) {
	if !p.Has(a) {
		return 0, false
	}
	return p.offsets[a], true
}

// Attributes lists the projected attributes in enumeration order.
func (p Projection) Attributes() []Attribute {
	var out []Attribute
	for a := Attribute(0); a < attributeCount; a++ {
		if p.mask.has(a) {
			out = append(out, a)
		}
	}
	return out
}

// BufferSize returns the minimum destination length for count elements.
// It saturates at math.MaxUint64 when the size does not fit in a uint64.
func (p Projection) BufferSize(count uint64) uint64 {
	if count == 0 {
		return 0
	}
	hi, lo := bits.Mul64(count-1, uint64(p.stride))
	if hi != 0 {
		return math.MaxUint64
	}
	size, carry := bits.Add64(lo, uint64(p.extent), 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return size
}

// check validates the projection against a file and destination before any
// byte is written.
func (p Projection) check(info Info, dst []byte, count uint64) error {
	for a := Attribute(0); a < attributeCount; a++ {
		if p.mask.has(a) && !Supports(info.PointFormat, a) {
			return fmt.Errorf("%w: %s in format %d", ErrAttributeUnsupported, a, info.PointFormat)
		}
	}
	if need := p.BufferSize(count); uint64(len(dst)) < need {
		return fmt.Errorf("%w: need %d bytes for %d points, have %d", ErrShortBuffer, need, count, len(dst))
	}
	return nil
}

type axisField struct {
	src, dst      int
	scale, offset float32
}

type copyField struct {
	src, dst, size int
}

// plan resolves the projection against a point format into the field moves
// performed for every record.
func (p Projection) plan(info Info) (axes []axisField, copies []copyField) {
	table := &offsetTable[info.PointFormat]
	scales := [3]float32{info.ScaleX, info.ScaleY, info.ScaleZ}
	offsets := [3]float32{info.OffsetX, info.OffsetY, info.OffsetZ}
	for a := Attribute(0); a < attributeCount; a++ {
		if !p.mask.has(a) {
			continue
		}
		if a.Spatial() {
			axes = append(axes, axisField{
				src:    int(table[a]),
				dst:    p.offsets[a],
				scale:  scales[a-AttributeX],
				offset: offsets[a-AttributeX],
			})
			continue
		}
		copies = append(copies, copyField{src: int(table[a]), dst: p.offsets[a], size: a.Size()})
	}
	return axes, copies
}

// decode projects count consecutive raw records into dst. The caller has
// already run check and guarantees raw holds count records.
func (p Projection) decode(dst, raw []byte, info Info, count uint64) {
	axes, copies := p.plan(info)
	pointSize := int(info.PointSize)

	src, out := 0, 0
	for i := uint64(0); i < count; i++ {
		rec := raw[src : src+pointSize]
		for _, f := range axes {
			binary.LittleEndian.PutUint32(dst[out+f.dst:], math.Float32bits(scaleCoordinate(rec[f.src:], f.scale, f.offset)))
		}
		for _, f := range copies {
			copy(dst[out+f.dst:out+f.dst+f.size], rec[f.src:f.src+f.size])
		}
		src += pointSize
		out += p.stride
	}
}

// scaleCoordinate converts a stored int32 coordinate to v*scale+offset in
// single precision. The explicit conversion rounds the product before the
// add so the compiler cannot fuse the two into one FMA.
func scaleCoordinate(b []byte, scale, offset float32) float32 {
	v := int32(binary.LittleEndian.Uint32(b))
	return float32(float32(v)*scale) + offset
}
