// Package hierarchy drives a write-through, no-write-allocate L1/L2 cache
// pair over a stream of memory accesses.
package hierarchy

import (
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// HookPosAccess marks that an access has been classified and both levels
// updated. The hook item is the Access and the detail is the Result.
var HookPosAccess = &hooking.HookPos{Name: "Access"}

// A Level is one cache bank as seen by the controller.
type Level interface {
	Name() string
	Lookup(addr uint32) cache.LookupResult
	Update(addr uint32, result cache.LookupResult)
}

// A Controller classifies accesses against an L1 and an L2 level.
//
// Reads fill both levels on any miss. Writes go through to L2, but a write
// miss never installs a line in the level that missed.
type Controller struct {
	hooking.HookableBase

	l1 Level
	l2 Level
}

// NewController creates a controller that owns the two levels.
func NewController(l1, l2 Level) *Controller {
	return &Controller{
		l1: l1,
		l2: l2,
	}
}

// Name returns the name of the controller.
func (c *Controller) Name() string {
	return c.l1.Name() + "+" + c.l2.Name()
}

// L1 returns the first level.
func (c *Controller) L1() Level {
	return c.l1
}

// L2 returns the second level.
func (c *Controller) L2() Level {
	return c.l2
}

// Access looks the address up in both levels, applies the replacement
// updates that the access kind requires and returns the outcome per level.
func (c *Controller) Access(req Access) Result {
	l1 := c.l1.Lookup(req.Address)
	l2 := c.l2.Lookup(req.Address)

	var result Result
	switch req.Kind {
	case Read:
		result = c.read(req.Address, l1, l2)
	case Write:
		result = c.write(req.Address, l1, l2)
	default:
		panic("unknown access kind " + req.Kind.String())
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item:   req,
		Detail: result,
	})

	return result
}

func (c *Controller) read(addr uint32, l1, l2 cache.LookupResult) Result {
	if l1.Hit {
		c.l1.Update(addr, l1)
		return Result{L1: ReadHit, L2: NoAction}
	}

	c.l1.Update(addr, l1)
	c.l2.Update(addr, l2)

	if l2.Hit {
		return Result{L1: ReadMiss, L2: ReadHit}
	}

	return Result{L1: ReadMiss, L2: ReadMiss}
}

func (c *Controller) write(addr uint32, l1, l2 cache.LookupResult) Result {
	switch {
	case l1.Hit:
		c.l1.Update(addr, l1)
		c.l2.Update(addr, l2)

		return Result{L1: WriteHit, L2: WriteHit}
	case l2.Hit:
		c.l2.Update(addr, l2)

		return Result{L1: WriteMiss, L2: WriteHit}
	default:
		return Result{L1: WriteMiss, L2: WriteMiss}
	}
}
