package cache

// An AddressLayout splits a 32-bit address into offset, index and tag
// fields, from the least significant bit up.
type AddressLayout struct {
	OffsetBits uint
	IndexBits  uint
	TagBits    uint
}

// DecodedAddress holds the three fields of one address under a layout.
type DecodedAddress struct {
	Offset uint32
	Index  uint32
	Tag    uint32
}

// Decompose extracts the offset, index and tag fields of addr.
func (l AddressLayout) Decompose(addr uint32) DecodedAddress {
	return DecodedAddress{
		Offset: extractBits(addr, 0, l.OffsetBits),
		Index:  extractBits(addr, l.OffsetBits, l.IndexBits),
		Tag:    extractBits(addr, l.OffsetBits+l.IndexBits, l.TagBits),
	}
}

func extractBits(addr uint32, start, width uint) uint32 {
	if width == 0 {
		return 0
	}

	mask := uint32(1<<width - 1)

	return (addr >> start) & mask
}
