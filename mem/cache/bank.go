package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/sim/hooking"
)

// HookPosBlockEvict marks that a valid block is pushed out of its set. The
// hook item is the evicted Block and the detail is the set index.
var HookPosBlockEvict = &hooking.HookPos{Name: "BlockEvict"}

// HookPosBlockInstall marks that a tag is written into the MRU way. The hook
// item is the installed Block and the detail is the set index.
var HookPosBlockInstall = &hooking.HookPos{Name: "BlockInstall"}

// A Block is the metadata of one way.
type Block struct {
	Tag     uint32
	IsValid bool
}

// LookupResult tells where, if anywhere, an address is held in a bank.
type LookupResult struct {
	Hit   bool
	WayID int
}

// Miss is the LookupResult of an address that is not in the bank.
var Miss = LookupResult{Hit: false, WayID: -1}

// A Bank holds the tag array of one cache level. Ways in a set are kept in
// recency order: way 0 is the most recently used and the last way is the
// eviction candidate.
type Bank struct {
	hooking.HookableBase

	name     string
	config   Config
	geometry Geometry

	// blocks is a NumSets x NumWays array stored row by row.
	blocks []Block
}

// NewBank validates the config and creates a bank with every way invalid.
func NewBank(name string, config Config) (*Bank, error) {
	geometry, err := config.Geometry(name)
	if err != nil {
		return nil, err
	}

	b := &Bank{
		name:     name,
		config:   config,
		geometry: geometry,
	}
	b.Reset()

	return b, nil
}

// Name returns the name of the bank.
func (b *Bank) Name() string {
	return b.name
}

// Config returns the config the bank is built from.
func (b *Bank) Config() Config {
	return b.config
}

// Geometry returns the derived set count, way count and address layout.
func (b *Bank) Geometry() Geometry {
	return b.geometry
}

// Layout returns how the bank splits addresses.
func (b *Bank) Layout() AddressLayout {
	return b.geometry.Layout
}

// NumSets returns the number of sets.
func (b *Bank) NumSets() int {
	return b.geometry.NumSets
}

// NumWays returns the number of ways in each set.
func (b *Bank) NumWays() int {
	return b.geometry.NumWays
}

// Reset marks every block invalid.
func (b *Bank) Reset() {
	b.blocks = make([]Block, b.geometry.NumSets*b.geometry.NumWays)
}

// Set returns a copy of the blocks of a set, MRU first.
func (b *Bank) Set(index int) []Block {
	blocks := make([]Block, b.geometry.NumWays)
	copy(blocks, b.set(uint32(index)))

	return blocks
}

func (b *Bank) set(index uint32) []Block {
	start := int(index) * b.geometry.NumWays

	return b.blocks[start : start+b.geometry.NumWays]
}

// Lookup searches the set that addr maps to, starting from the MRU way. It
// does not change the bank.
func (b *Bank) Lookup(addr uint32) LookupResult {
	decoded := b.geometry.Layout.Decompose(addr)

	for wayID, block := range b.set(decoded.Index) {
		if block.IsValid && block.Tag == decoded.Tag {
			return LookupResult{Hit: true, WayID: wayID}
		}
	}

	return Miss
}

// Update applies the replacement order change for an access to addr. The
// result must come from a Lookup of the same address with no update in
// between.
//
// On a hit, the blocks in front of the hit way move one way toward the tail
// and the hit tag becomes MRU. On a miss, the set shifts by one way,
// dropping the LRU block, unless the MRU way already carries the incoming
// tag. The new tag is then installed as a valid MRU block.
func (b *Bank) Update(addr uint32, result LookupResult) {
	decoded := b.geometry.Layout.Decompose(addr)
	set := b.set(decoded.Index)

	if result.Hit {
		b.mustBeValidWay(result.WayID)
		shiftTowardTail(set, result.WayID)
	} else if set[0].Tag != decoded.Tag {
		b.evict(set[len(set)-1], decoded.Index)
		shiftTowardTail(set, len(set)-1)
	}

	set[0] = Block{Tag: decoded.Tag, IsValid: true}

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    HookPosBlockInstall,
		Item:   set[0],
		Detail: int(decoded.Index),
	})
}

func (b *Bank) evict(victim Block, setID uint32) {
	if !victim.IsValid {
		return
	}

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    HookPosBlockEvict,
		Item:   victim,
		Detail: int(setID),
	})
}

func (b *Bank) mustBeValidWay(wayID int) {
	if wayID < 0 || wayID >= b.geometry.NumWays {
		panic(fmt.Sprintf("%s: way %d out of range [0, %d)",
			b.name, wayID, b.geometry.NumWays))
	}
}

// shiftTowardTail moves blocks [0, end) to [1, end], overwriting set[end].
func shiftTowardTail(set []Block, end int) {
	for i := end; i > 0; i-- {
		set[i] = set[i-1]
	}
}
