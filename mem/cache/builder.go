package cache

// Builder can build cache banks.
type Builder struct {
	byteSize         uint64
	blockSize        uint64
	wayAssociativity uint64
}

// MakeBuilder creates a builder with a 16 KiB, 4-way cache of 64-byte lines.
func MakeBuilder() Builder {
	return Builder{
		byteSize:         16 * KB,
		blockSize:        64,
		wayAssociativity: 4,
	}
}

// WithConfig copies all the fields of a Config into the builder.
func (b Builder) WithConfig(config Config) Builder {
	b.byteSize = config.ByteSize
	b.blockSize = config.BlockSize
	b.wayAssociativity = config.WayAssociativity

	return b
}

// WithByteSize sets the total capacity in bytes.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.byteSize = byteSize
	return b
}

// WithBlockSize sets the cache line size in bytes.
func (b Builder) WithBlockSize(blockSize uint64) Builder {
	b.blockSize = blockSize
	return b
}

// WithWayAssociativity sets the number of ways per set. Zero builds a fully
// associative cache.
func (b Builder) WithWayAssociativity(wayAssociativity uint64) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// Config returns the config the builder would build.
func (b Builder) Config() Config {
	return Config{
		ByteSize:         b.byteSize,
		BlockSize:        b.blockSize,
		WayAssociativity: b.wayAssociativity,
	}
}

// Build builds a bank. It returns a *ConfigError if the sizes cannot be laid
// out.
func (b Builder) Build(name string) (*Bank, error) {
	return NewBank(name, b.Config())
}
