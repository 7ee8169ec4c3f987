package hierarchy

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

var _ = Describe("Controller", func() {
	var (
		mockCtrl *gomock.Controller
		l1       *MockLevel
		l2       *MockLevel
		c        *Controller
	)

	const addr = uint32(0x1234)
	hit := cache.LookupResult{Hit: true, WayID: 1}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		l1 = NewMockLevel(mockCtrl)
		l2 = NewMockLevel(mockCtrl)
		c = NewController(l1, l2)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should update only L1 on a read hit", func() {
		l1.EXPECT().Lookup(addr).Return(hit)
		l2.EXPECT().Lookup(addr).Return(cache.Miss)
		l1.EXPECT().Update(addr, hit)

		result := c.Access(Access{Kind: Read, Address: addr})

		Expect(result).To(Equal(Result{L1: ReadHit, L2: NoAction}))
	})

	It("should fill L1 and refresh L2 on a read that hits L2", func() {
		l1.EXPECT().Lookup(addr).Return(cache.Miss)
		l2.EXPECT().Lookup(addr).Return(hit)
		l1.EXPECT().Update(addr, cache.Miss)
		l2.EXPECT().Update(addr, hit)

		result := c.Access(Access{Kind: Read, Address: addr})

		Expect(result).To(Equal(Result{L1: ReadMiss, L2: ReadHit}))
	})

	It("should fill both levels on a read that misses both", func() {
		l1.EXPECT().Lookup(addr).Return(cache.Miss)
		l2.EXPECT().Lookup(addr).Return(cache.Miss)
		l1.EXPECT().Update(addr, cache.Miss)
		l2.EXPECT().Update(addr, cache.Miss)

		result := c.Access(Access{Kind: Read, Address: addr})

		Expect(result).To(Equal(Result{L1: ReadMiss, L2: ReadMiss}))
	})

	It("should write through to L2 on an L1 write hit", func() {
		l1.EXPECT().Lookup(addr).Return(hit)
		l2.EXPECT().Lookup(addr).Return(cache.Miss)
		l1.EXPECT().Update(addr, hit)
		l2.EXPECT().Update(addr, cache.Miss)

		result := c.Access(Access{Kind: Write, Address: addr})

		Expect(result).To(Equal(Result{L1: WriteHit, L2: WriteHit}))
	})

	It("should not allocate in L1 on a write that hits L2", func() {
		l1.EXPECT().Lookup(addr).Return(cache.Miss)
		l2.EXPECT().Lookup(addr).Return(hit)
		l2.EXPECT().Update(addr, hit)

		result := c.Access(Access{Kind: Write, Address: addr})

		Expect(result).To(Equal(Result{L1: WriteMiss, L2: WriteHit}))
	})

	It("should update nothing on a write that misses both", func() {
		l1.EXPECT().Lookup(addr).Return(cache.Miss)
		l2.EXPECT().Lookup(addr).Return(cache.Miss)

		result := c.Access(Access{Kind: Write, Address: addr})

		Expect(result).To(Equal(Result{L1: WriteMiss, L2: WriteMiss}))
	})

	It("should look up both levels before any update", func() {
		gomock.InOrder(
			l1.EXPECT().Lookup(addr).Return(cache.Miss),
			l2.EXPECT().Lookup(addr).Return(cache.Miss),
			l1.EXPECT().Update(addr, cache.Miss),
			l2.EXPECT().Update(addr, cache.Miss),
		)

		c.Access(Access{Kind: Read, Address: addr})
	})

	It("should report each access to hooks", func() {
		var seen []Result
		c.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			Expect(ctx.Pos).To(Equal(HookPosAccess))
			Expect(ctx.Item).To(Equal(Access{Kind: Write, Address: addr}))
			seen = append(seen, ctx.Detail.(Result))
		}))
		l1.EXPECT().Lookup(addr).Return(cache.Miss)
		l2.EXPECT().Lookup(addr).Return(cache.Miss)

		c.Access(Access{Kind: Write, Address: addr})

		Expect(seen).To(Equal([]Result{{L1: WriteMiss, L2: WriteMiss}}))
	})
})

func buildHierarchy() (*Controller, *cache.Bank, *cache.Bank) {
	l1, err := cache.MakeBuilder().
		WithBlockSize(16).
		WithWayAssociativity(2).
		WithByteSize(1 * cache.KB).
		Build("L1")
	Expect(err).NotTo(HaveOccurred())

	l2, err := cache.MakeBuilder().
		WithBlockSize(16).
		WithWayAssociativity(4).
		WithByteSize(8 * cache.KB).
		Build("L2")
	Expect(err).NotTo(HaveOccurred())

	return NewController(l1, l2), l1, l2
}

func snapshot(b *cache.Bank) [][]cache.Block {
	sets := make([][]cache.Block, b.NumSets())
	for i := range sets {
		sets[i] = b.Set(i)
	}

	return sets
}

var _ = Describe("Controller with banks", func() {
	var (
		c      *Controller
		l1, l2 *cache.Bank
	)

	BeforeEach(func() {
		c, l1, l2 = buildHierarchy()
	})

	run := func(accesses ...Access) []Result {
		results := make([]Result, 0, len(accesses))
		for _, a := range accesses {
			results = append(results, c.Access(a))
		}

		return results
	}

	It("should classify a read, a re-read and a write of one line", func() {
		results := run(
			Access{Kind: Read, Address: 0x0},
			Access{Kind: Read, Address: 0x0},
			Access{Kind: Write, Address: 0x0},
		)

		Expect(results).To(Equal([]Result{
			{L1: ReadMiss, L2: ReadMiss},
			{L1: ReadHit, L2: NoAction},
			{L1: WriteHit, L2: WriteHit},
		}))
	})

	It("should miss both levels on a cold write", func() {
		results := run(Access{Kind: Write, Address: 0x10})

		Expect(results).To(Equal([]Result{{L1: WriteMiss, L2: WriteMiss}}))
	})

	It("should not change either bank on a write that misses both", func() {
		run(Access{Kind: Read, Address: 0x200}, Access{Kind: Read, Address: 0x400})
		l1Before, l2Before := snapshot(l1), snapshot(l2)

		run(Access{Kind: Write, Address: 0x12340})

		Expect(snapshot(l1)).To(Equal(l1Before))
		Expect(snapshot(l2)).To(Equal(l2Before))
	})

	It("should serve L1 evictions from L2", func() {
		// Three lines that conflict in the 2-way L1 set 0 but land in
		// different L2 sets.
		results := run(
			Access{Kind: Read, Address: 0x200},
			Access{Kind: Read, Address: 0x400},
			Access{Kind: Read, Address: 0x600},
			Access{Kind: Read, Address: 0x200},
		)

		Expect(results[3]).To(Equal(Result{L1: ReadMiss, L2: ReadHit}))
	})

	It("should not allocate a write that only hits L2", func() {
		results := run(
			Access{Kind: Read, Address: 0x200},
			Access{Kind: Read, Address: 0x400},
			Access{Kind: Read, Address: 0x600},
			Access{Kind: Write, Address: 0x200},
			Access{Kind: Read, Address: 0x200},
		)

		Expect(results[3]).To(Equal(Result{L1: WriteMiss, L2: WriteHit}))
		Expect(results[4]).To(Equal(Result{L1: ReadMiss, L2: ReadHit}))
	})

	It("should always write through on an L1 write hit", func() {
		addrs := []uint32{0x0, 0x200, 0x400, 0x600, 0x800, 0x200, 0x0}
		for _, a := range addrs {
			c.Access(Access{Kind: Read, Address: a})

			result := c.Access(Access{Kind: Write, Address: a})

			Expect(result.L1).To(Equal(WriteHit))
			Expect(result.L2).To(Equal(WriteHit))
		}
	})
})
