package lossless

import "errors"

// Sentinel errors returned by RefineBackwardReferences and the components
// it drives. There are exactly three error kinds: allocation failure is
// fatal to the pass, a reference-stream error is propagated, and interval
// overflow is a silently recovered performance degradation (it never
// surfaces as an error).
var (
	// ErrAllocation indicates the cost model, cost manager, or one of
	// their backing arrays could not be built. Go's allocators panic on
	// exhaustion rather than returning an error, so initRefinementState
	// recovers any such panic during construction and reports it as this
	// error; the caller must treat refs_dst as unmodified.
	ErrAllocation = errors.New("lossless: allocation failed")

	// ErrRefStream indicates a reference stream's error flag was set: the
	// source stream's at entry, after building a histogram, or after
	// emitting the final token stream, or the output stream's after emit.
	ErrRefStream = errors.New("lossless: reference stream error")
)
