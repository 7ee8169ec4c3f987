package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/cachesim/mem/hierarchy"
)

// A MalformedPolicy decides what a Reader does with a line that is not a
// valid access.
type MalformedPolicy int

// The malformed line policies.
const (
	// AbortOnMalformed ends reading and reports the line as an error.
	AbortOnMalformed MalformedPolicy = iota

	// SkipMalformed ignores the line and keeps reading.
	SkipMalformed

	// StopOnMalformed ends reading quietly, as if the trace ended before
	// the line. Blank lines are still skipped, and an access type other
	// than R or W is malformed rather than read as a write.
	StopOnMalformed
)

// ParseMalformedPolicy converts "abort", "skip" or "stop" to a policy.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch strings.ToLower(s) {
	case "abort", "":
		return AbortOnMalformed, nil
	case "skip":
		return SkipMalformed, nil
	case "stop":
		return StopOnMalformed, nil
	default:
		return AbortOnMalformed, errors.Errorf(
			"unknown malformed line policy %q, want abort, skip or stop", s)
	}
}

func (p MalformedPolicy) String() string {
	switch p {
	case AbortOnMalformed:
		return "abort"
	case SkipMalformed:
		return "skip"
	case StopOnMalformed:
		return "stop"
	default:
		return fmt.Sprintf("MalformedPolicy(%d)", int(p))
	}
}

// A MalformedAccessError reports a trace line that does not parse.
type MalformedAccessError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedAccessError) Error() string {
	return fmt.Sprintf("trace line %d %q: %s", e.Line, e.Text, e.Reason)
}

// ParseAccess parses one "<R|W> <hex address>" line. Tokens after the
// address are ignored.
func ParseAccess(line string) (hierarchy.Access, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return hierarchy.Access{}, errors.New("want an access type and an address")
	}

	var access hierarchy.Access
	switch fields[0] {
	case "R":
		access.Kind = hierarchy.Read
	case "W":
		access.Kind = hierarchy.Write
	default:
		return hierarchy.Access{}, errors.Errorf("unknown access type %q", fields[0])
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(fields[1], "0x"), "0X")
	addr, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return hierarchy.Access{}, errors.Errorf(
			"address %q is not a 32-bit hexadecimal number", fields[1])
	}

	access.Address = uint32(addr)

	return access, nil
}

// A Reader reads accesses from a trace, one per line. Blank lines are
// ignored.
type Reader struct {
	scanner *bufio.Scanner
	policy  MalformedPolicy

	access    hierarchy.Access
	line      int
	bytesRead int64
	skipped   int
	err       error
}

// NewReader creates a Reader that handles bad lines according to policy.
func NewReader(r io.Reader, policy MalformedPolicy) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		policy:  policy,
	}
}

// Next advances to the next access. It returns false at the end of the
// trace or on error; Err tells the two apart.
func (r *Reader) Next() bool {
	for r.err == nil && r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		r.bytesRead += int64(len(text)) + 1

		if strings.TrimSpace(text) == "" {
			continue
		}

		access, err := ParseAccess(text)
		if err == nil {
			r.access = access
			return true
		}

		switch r.policy {
		case SkipMalformed:
			r.skipped++
			continue
		case StopOnMalformed:
			return false
		default:
			r.err = &MalformedAccessError{
				Line:   r.line,
				Text:   text,
				Reason: err.Error(),
			}

			return false
		}
	}

	if r.err == nil {
		if err := r.scanner.Err(); err != nil {
			r.err = errors.Wrap(err, "read trace")
		}
	}

	return false
}

// Access returns the access read by the last successful Next.
func (r *Reader) Access() hierarchy.Access {
	return r.access
}

// Err returns the error that stopped the reader, if any.
func (r *Reader) Err() error {
	return r.err
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// BytesRead returns the number of bytes consumed so far, newlines included.
func (r *Reader) BytesRead() int64 {
	return r.bytesRead
}

// Skipped returns the number of malformed lines skipped.
func (r *Reader) Skipped() int {
	return r.skipped
}
