package hierarchy

import "fmt"

// An AccessKind tells whether an access reads or writes memory.
type AccessKind int

// The kinds of memory accesses.
const (
	Read AccessKind = iota
	Write
)

func (k AccessKind) String() string {
	switch k {
	case Read:
		return "R"
	case Write:
		return "W"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

// An Access is one entry of a memory trace.
type Access struct {
	Kind    AccessKind
	Address uint32
}

// An Outcome classifies an access at one cache level. The numeric values are
// the codes written to simulation output and must not change.
type Outcome int

// The outcomes of an access at one level.
const (
	NoAction  Outcome = 0
	ReadHit   Outcome = 1
	ReadMiss  Outcome = 2
	WriteHit  Outcome = 3
	WriteMiss Outcome = 4
)

// Code returns the numeric output code of the outcome.
func (o Outcome) Code() int {
	return int(o)
}

func (o Outcome) String() string {
	switch o {
	case NoAction:
		return "NA"
	case ReadHit:
		return "RH"
	case ReadMiss:
		return "RM"
	case WriteHit:
		return "WH"
	case WriteMiss:
		return "WM"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// IsHit reports whether the outcome is a read or write hit.
func (o Outcome) IsHit() bool {
	return o == ReadHit || o == WriteHit
}

// Result holds the outcomes of one access at both levels.
type Result struct {
	L1 Outcome
	L2 Outcome
}
