package trace

import (
	"log"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// AccessTableName is the table that a DBTracer records accesses into.
const AccessTableName = "cache_accesses"

// accessEntry represents one classified access in the database.
type accessEntry struct {
	ID      uint64
	Kind    string
	Address uint32
	L1      int
	L2      int
}

func accessFromHook(ctx hooking.HookCtx) (hierarchy.Access, hierarchy.Result, bool) {
	if ctx.Pos != hierarchy.HookPosAccess {
		return hierarchy.Access{}, hierarchy.Result{}, false
	}

	access, ok := ctx.Item.(hierarchy.Access)
	if !ok {
		return hierarchy.Access{}, hierarchy.Result{}, false
	}

	result, ok := ctx.Detail.(hierarchy.Result)

	return access, result, ok
}

// A LogTracer is a hook that prints every classified access.
type LogTracer struct {
	logger *log.Logger
	count  uint64
}

// NewLogTracer creates a LogTracer that prints to logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func prints the access and its outcomes.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	access, result, ok := accessFromHook(ctx)
	if !ok {
		return
	}

	t.count++
	t.logger.Printf("%d, %s, 0x%08x, %s, %s\n",
		t.count, access.Kind, access.Address, result.L1, result.L2)
}

// A DBTracer is a hook that records every classified access into a data
// recorder.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
	count        uint64
}

// NewDBTracer creates a DBTracer and the table it writes to.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{dataRecorder: dataRecorder}

	t.dataRecorder.CreateTable(AccessTableName, accessEntry{})

	return t
}

// Func buffers one row per access.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	access, result, ok := accessFromHook(ctx)
	if !ok {
		return
	}

	t.count++
	t.dataRecorder.InsertData(AccessTableName, accessEntry{
		ID:      t.count,
		Kind:    access.Kind.String(),
		Address: access.Address,
		L1:      result.L1.Code(),
		L2:      result.L2.Code(),
	})
}
