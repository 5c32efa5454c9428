package capsyscall

import "fmt"

// ErrorCode is the closed, string-backed enum of syscall failure reasons
// from spec.md §7. It mirrors the node's own ErrorCode/TxError pattern so
// a syscall failure is just another typed value, never a panic or an
// exception crossing the module boundary.
type ErrorCode string

const (
	ErrLimitExceeded        ErrorCode = "LimitExceeded"
	ErrNotDeterministic     ErrorCode = "NotDeterministic"
	ErrNoResultYet          ErrorCode = "NoResultYet"
	ErrAttestationError     ErrorCode = "AttestationError"
	ErrTreasuryInsufficient ErrorCode = "TreasuryInsufficient"
	ErrUnsupported          ErrorCode = "Unsupported"
	ErrGeneric              ErrorCode = "CapError"
)

// numericCode is the stable integer code table from spec.md §7, kept as a
// parallel lookup for VM opcode surfaces that need an integer rather than
// a string.
var numericCode = map[ErrorCode]int{
	ErrLimitExceeded:        1001,
	ErrNotDeterministic:     1002,
	ErrNoResultYet:          1003,
	ErrAttestationError:     1004,
	ErrTreasuryInsufficient: 1005,
	ErrUnsupported:          1006,
	ErrGeneric:              1099,
}

// Numeric returns the integer error code paired with c, or 1099 if c is not
// one of the registered codes.
func (c ErrorCode) Numeric() int {
	if n, ok := numericCode[c]; ok {
		return n
	}
	return numericCode[ErrGeneric]
}

// CapError is the error value every syscall entry point returns on
// failure. Msg is short ASCII and MUST NOT include node-local data
// (timestamps, file paths) per spec.md §7, so that two honest nodes
// produce an identical error surface for the same input.
type CapError struct {
	Code ErrorCode
	Msg  string
}

func (e *CapError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func caperr(code ErrorCode, msg string) error {
	return &CapError{Code: code, Msg: msg}
}
