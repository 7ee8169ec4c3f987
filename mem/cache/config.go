// Package cache models the tag and valid metadata of one set-associative
// cache level.
package cache

import (
	"fmt"
	"math/bits"
)

// AddressWidth is the number of bits in a simulated memory address.
const AddressWidth = 32

// KB is the number of bytes in a kibibyte.
const KB = 1024

// Config describes one cache level.
type Config struct {
	// ByteSize is the total capacity in bytes.
	ByteSize uint64

	// BlockSize is the cache line size in bytes.
	BlockSize uint64

	// WayAssociativity is the number of ways per set. Zero means the cache
	// is fully associative.
	WayAssociativity uint64
}

// A ConfigError reports a cache configuration that cannot be laid out as
// power-of-two sets and ways.
type ConfigError struct {
	Level  string
	Config Config
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid cache config for %s "+
		"(size %d B, block %d B, assoc %d): %s",
		e.Level, e.Config.ByteSize, e.Config.BlockSize,
		e.Config.WayAssociativity, e.Reason)
}

// Geometry is the layout derived from a Config.
type Geometry struct {
	NumSets int
	NumWays int
	Layout  AddressLayout
}

// NumWays returns the number of ways in each set.
func (c Config) NumWays() uint64 {
	if c.WayAssociativity == 0 && c.BlockSize != 0 {
		return c.ByteSize / c.BlockSize
	}

	return c.WayAssociativity
}

// Geometry validates the config and derives the set count and address
// layout. The level name is only used in the returned error.
func (c Config) Geometry(level string) (Geometry, error) {
	fail := func(format string, args ...interface{}) (Geometry, error) {
		return Geometry{}, &ConfigError{
			Level:  level,
			Config: c,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	if c.BlockSize == 0 {
		return fail("block size must not be zero")
	}

	if !isPowerOfTwo(c.BlockSize) {
		return fail("block size %d is not a power of two", c.BlockSize)
	}

	numWays := c.NumWays()
	if numWays == 0 {
		return fail("cache must hold at least one way")
	}

	if !isPowerOfTwo(numWays) {
		return fail("way count %d is not a power of two", numWays)
	}

	setSize := c.BlockSize * numWays
	if c.ByteSize%setSize != 0 {
		return fail("size is not a multiple of the set size %d", setSize)
	}

	numSets := c.ByteSize / setSize
	if !isPowerOfTwo(numSets) {
		return fail("set count %d is not a power of two", numSets)
	}

	offsetBits := log2(c.BlockSize)
	indexBits := log2(numSets)
	if offsetBits+indexBits > AddressWidth {
		return fail("offset and index need %d bits, more than %d",
			offsetBits+indexBits, AddressWidth)
	}

	return Geometry{
		NumSets: int(numSets),
		NumWays: int(numWays),
		Layout: AddressLayout{
			OffsetBits: offsetBits,
			IndexBits:  indexBits,
			TagBits:    AddressWidth - offsetBits - indexBits,
		},
	}, nil
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

func log2(n uint64) uint {
	return uint(bits.TrailingZeros64(n))
}
