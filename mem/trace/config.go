// Package trace reads cache configurations and memory access traces and
// writes per-access outcomes.
package trace

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sarchlab/cachesim/mem/cache"
)

// HierarchyConfig holds the configs of the two cache levels.
type HierarchyConfig struct {
	L1 cache.Config
	L2 cache.Config
}

// LoadConfig reads a hierarchy config file.
func LoadConfig(path string) (HierarchyConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return HierarchyConfig{}, errors.Wrap(err, "open cache config")
	}
	defer f.Close()

	config, err := ParseConfig(f)
	if err != nil {
		return HierarchyConfig{}, errors.Wrapf(err, "parse %s", path)
	}

	return config, nil
}

// ParseConfig reads two level records. Each record is an optional label
// (such as "L1:") followed by the block size in bytes, the associativity
// (0 for fully associative) and the total size in KiB, separated by any
// whitespace.
func ParseConfig(r io.Reader) (HierarchyConfig, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var config HierarchyConfig
	levels := []struct {
		name   string
		config *cache.Config
	}{
		{"L1", &config.L1},
		{"L2", &config.L2},
	}

	tokens := &tokenStream{scanner: scanner}
	for _, level := range levels {
		if err := parseLevel(tokens, level.config); err != nil {
			return HierarchyConfig{}, errors.Wrapf(err, "%s record", level.name)
		}
	}

	if err := scanner.Err(); err != nil {
		return HierarchyConfig{}, errors.Wrap(err, "read cache config")
	}

	return config, nil
}

type tokenStream struct {
	scanner *bufio.Scanner
	pending *string
}

func (s *tokenStream) next() (string, bool) {
	if s.pending != nil {
		token := *s.pending
		s.pending = nil

		return token, true
	}

	if !s.scanner.Scan() {
		return "", false
	}

	return s.scanner.Text(), true
}

func (s *tokenStream) nextNumber(field string) (uint64, error) {
	token, ok := s.next()
	if !ok {
		return 0, errors.Errorf("missing %s", field)
	}

	n, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return 0, errors.Errorf("%s %q is not a non-negative integer",
			field, token)
	}

	return n, nil
}

func parseLevel(tokens *tokenStream, config *cache.Config) error {
	token, ok := tokens.next()
	if !ok {
		return errors.New("missing record")
	}

	if _, err := strconv.ParseUint(token, 10, 64); err == nil {
		tokens.pending = &token
	}

	blockSize, err := tokens.nextNumber("block size")
	if err != nil {
		return err
	}

	assoc, err := tokens.nextNumber("associativity")
	if err != nil {
		return err
	}

	sizeKB, err := tokens.nextNumber("cache size")
	if err != nil {
		return err
	}

	*config = cache.Config{
		ByteSize:         sizeKB * cache.KB,
		BlockSize:        blockSize,
		WayAssociativity: assoc,
	}

	return nil
}
