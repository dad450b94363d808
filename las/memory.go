package las

import "fmt"

// AllPoints as a count selects every record from first to the end of the file.
const AllPoints uint64 = 0

// ReadPointsFromBytes decodes count records starting at first from a full
// file image into dst using the default projection.
func ReadPointsFromBytes(dst []Point, image []byte, first, count uint64) error {
	info, raw, count, err := imageRecords(image, first, count, func(info Info, count uint64) error {
		return checkPoints(dst, count)
	})
	if err != nil {
		return err
	}
	decodePoints(dst, raw, info, count)
	return nil
}

// ReadAttributesFromBytes projects count records starting at first from a
// full file image into dst. Destination bytes outside the projected
// attributes are left untouched.
func ReadAttributesFromBytes(dst []byte, p Projection, image []byte, first, count uint64) error {
	info, raw, count, err := imageRecords(image, first, count, func(info Info, count uint64) error {
		return p.check(info, dst, count)
	})
	if err != nil {
		return err
	}
	p.decode(dst, raw, info, count)
	return nil
}

// imageRecords re-interprets the header of image, validates the requested
// range and destination, and returns the raw records to decode.
func imageRecords(image []byte, first, count uint64, checkDst func(Info, uint64) error) (Info, []byte, uint64, error) {
	info, err := InfoFromBytes(image)
	if err != nil {
		return Info{}, nil, 0, err
	}
	count = info.resolveCount(first, count)
	if err := info.checkRange(first, count); err != nil {
		return Info{}, nil, 0, err
	}
	if err := checkDst(info, count); err != nil {
		return Info{}, nil, 0, err
	}

	start := uint64(info.PointOffset) + first*uint64(info.PointSize)
	end := start + count*uint64(info.PointSize)
	if end > uint64(len(image)) {
		return Info{}, nil, 0, fmt.Errorf("%w: records end at byte %d, image has %d", ErrIORead, end, len(image))
	}
	return info, image[start:end], count, nil
}
