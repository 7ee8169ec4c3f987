package trace

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem/cache"
)

var _ = Describe("ParseConfig", func() {
	It("should parse labelled records", func() {
		config, err := ParseConfig(strings.NewReader("L1:\n16\n2\n1\nL2:\n16\n4\n8\n"))

		Expect(err).NotTo(HaveOccurred())
		Expect(config.L1).To(Equal(cache.Config{
			ByteSize:         1 * cache.KB,
			BlockSize:        16,
			WayAssociativity: 2,
		}))
		Expect(config.L2).To(Equal(cache.Config{
			ByteSize:         8 * cache.KB,
			BlockSize:        16,
			WayAssociativity: 4,
		}))
	})

	It("should parse records without labels", func() {
		config, err := ParseConfig(strings.NewReader("64 0 4 128 8 256"))

		Expect(err).NotTo(HaveOccurred())
		Expect(config.L1.WayAssociativity).To(BeZero())
		Expect(config.L1.ByteSize).To(Equal(uint64(4 * cache.KB)))
		Expect(config.L2.BlockSize).To(Equal(uint64(128)))
		Expect(config.L2.ByteSize).To(Equal(uint64(256 * cache.KB)))
	})

	It("should report a missing field", func() {
		_, err := ParseConfig(strings.NewReader("L1: 16 2 1\nL2: 16 4"))

		Expect(err).To(MatchError(ContainSubstring("L2 record: missing cache size")))
	})

	It("should report a non-numeric field", func() {
		_, err := ParseConfig(strings.NewReader("L1: 16 two 1\nL2: 16 4 8"))

		Expect(err).To(MatchError(ContainSubstring("associativity \"two\"")))
	})

	It("should report an empty file", func() {
		_, err := ParseConfig(strings.NewReader(""))

		Expect(err).To(MatchError(ContainSubstring("L1 record: missing record")))
	})

	It("should load a config file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "cacheconfig.txt")
		Expect(os.WriteFile(path, []byte("L1:\n32\n4\n2\nL2:\n32\n8\n16\n"), 0o644)).
			To(Succeed())

		config, err := LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(config.L1.BlockSize).To(Equal(uint64(32)))
		Expect(config.L2.ByteSize).To(Equal(uint64(16 * cache.KB)))
	})

	It("should fail to load a missing file", func() {
		_, err := LoadConfig(filepath.Join(GinkgoT().TempDir(), "missing"))

		Expect(err).To(MatchError(ContainSubstring("open cache config")))
	})
})
