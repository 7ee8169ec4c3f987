package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AddressLayout", func() {
	It("should split an address into offset, index and tag", func() {
		l := AddressLayout{OffsetBits: 4, IndexBits: 5, TagBits: 23}

		d := l.Decompose(0xDEADBEEF)

		Expect(d.Offset).To(Equal(uint32(0xF)))
		Expect(d.Index).To(Equal(uint32(0xEE) & 0x1F))
		Expect(d.Tag).To(Equal(uint32(0xDEADBEEF >> 9)))
	})

	It("should give a zero index when there is one set", func() {
		l := AddressLayout{OffsetBits: 6, IndexBits: 0, TagBits: 26}

		d := l.Decompose(0xFFFFFFFF)

		Expect(d.Offset).To(Equal(uint32(0x3F)))
		Expect(d.Index).To(BeZero())
		Expect(d.Tag).To(Equal(uint32(0x3FFFFFF)))
	})

	It("should take the whole address as tag with no offset or index", func() {
		l := AddressLayout{OffsetBits: 0, IndexBits: 0, TagBits: 32}

		d := l.Decompose(0x80000001)

		Expect(d.Offset).To(BeZero())
		Expect(d.Index).To(BeZero())
		Expect(d.Tag).To(Equal(uint32(0x80000001)))
	})

	It("should reassemble to the original address", func() {
		l := AddressLayout{OffsetBits: 7, IndexBits: 10, TagBits: 15}

		for _, addr := range []uint32{0, 1, 0x12345678, 0xFFFFFFFF, 0x80} {
			d := l.Decompose(addr)
			rebuilt := d.Tag<<17 | d.Index<<7 | d.Offset
			Expect(rebuilt).To(Equal(addr))
		}
	})
})
