package cache

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("should derive the geometry of a 2-way 1 KiB cache", func() {
		config := Config{ByteSize: 1 * KB, BlockSize: 16, WayAssociativity: 2}

		g, err := config.Geometry("L1")

		Expect(err).NotTo(HaveOccurred())
		Expect(g.NumWays).To(Equal(2))
		Expect(g.NumSets).To(Equal(32))
		Expect(g.Layout).To(Equal(AddressLayout{
			OffsetBits: 4,
			IndexBits:  5,
			TagBits:    23,
		}))
	})

	It("should treat zero associativity as fully associative", func() {
		config := Config{ByteSize: 1 * KB, BlockSize: 16, WayAssociativity: 0}

		g, err := config.Geometry("L1")

		Expect(err).NotTo(HaveOccurred())
		Expect(g.NumWays).To(Equal(64))
		Expect(g.NumSets).To(Equal(1))
		Expect(g.Layout.IndexBits).To(BeZero())
		Expect(g.Layout.TagBits).To(Equal(uint(28)))
	})

	DescribeTable("bit widths always cover the address",
		func(byteSize, blockSize, assoc uint64) {
			config := Config{
				ByteSize:         byteSize,
				BlockSize:        blockSize,
				WayAssociativity: assoc,
			}

			g, err := config.Geometry("L")

			Expect(err).NotTo(HaveOccurred())
			l := g.Layout
			Expect(l.OffsetBits + l.IndexBits + l.TagBits).
				To(Equal(uint(AddressWidth)))
		},
		Entry("direct mapped", uint64(4*KB), uint64(32), uint64(1)),
		Entry("4-way", uint64(8*KB), uint64(16), uint64(4)),
		Entry("fully associative", uint64(256), uint64(64), uint64(0)),
		Entry("large lines", uint64(1024*KB), uint64(4096), uint64(8)),
		Entry("one byte lines", uint64(1*KB), uint64(1), uint64(1)),
	)

	DescribeTable("invalid configs",
		func(byteSize, blockSize, assoc uint64, reason string) {
			config := Config{
				ByteSize:         byteSize,
				BlockSize:        blockSize,
				WayAssociativity: assoc,
			}

			_, err := config.Geometry("L2")

			var configErr *ConfigError
			Expect(errors.As(err, &configErr)).To(BeTrue())
			Expect(configErr.Level).To(Equal("L2"))
			Expect(configErr.Reason).To(ContainSubstring(reason))
		},
		Entry("zero block", uint64(1*KB), uint64(0), uint64(2), "zero"),
		Entry("odd block", uint64(1*KB), uint64(24), uint64(2), "block size"),
		Entry("three ways", uint64(3*KB), uint64(16), uint64(3), "way count"),
		Entry("no ways", uint64(8), uint64(16), uint64(0), "at least one way"),
		Entry("partial set", uint64(1000), uint64(16), uint64(2), "multiple"),
		Entry("three sets", uint64(96), uint64(16), uint64(2), "set count"),
	)
})
