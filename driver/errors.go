package driver

import "github.com/yanet-platform/filtercompiler/filter"

// NewInternalError wraps cause as an InternalInvariantViolation-kinded
// CompileError: the compiler's own bookkeeping was inconsistent, not the
// caller's input. Compile aborts immediately when this fires.
func NewInternalError(cause error) *filter.CompileError {
	return filter.NewCompileError(filter.KindInternalInvariantViolation, "", cause)
}
