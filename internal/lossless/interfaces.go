package lossless

// This file collects the collaborator contracts that the refinement core
// consumes. The match-finder and the source reference stream are passed in
// by the caller as MatchFinder and RefStream. The color cache and the
// prefix, plane and fast-log coders are reached through these interfaces
// too, but refine.go constructs the package's own ColorCache and VP8L*
// defaults itself, and CostModel.Build builds its own Histogram; swapping
// those means changing refine.go or costmodel.go.

// MatchFinder supplies backward-copy candidates for a pixel position,
// consistent with a hash-chain match-finder built once over the whole
// image.
type MatchFinder interface {
	// FindCopy returns the best (offset, length) backward match at pixel
	// position i. length is 0 or 1 when no profitable match exists.
	FindCopy(i int) (offset, length int)
	// FindOffset returns the offset a prior FindCopy(i) would report,
	// without recomputing the match length.
	FindOffset(i int) int
}

// ColorCacher is a small recently-seen-pixel cache keyed by a multiplicative
// hash of the pixel value.
type ColorCacher interface {
	Init(cacheBits int)
	Insert(pixel uint32)
	Contains(pixel uint32) (index int, ok bool)
	Clear()
}

// PrefixCoder turns a length or distance value into a prefix code plus a
// count of literal extra bits, per the container's alphabet.
type PrefixCoder interface {
	PrefixEncodeBits(value int) (code, extraBits int)
}

// FastLogger computes a fixed-point base-2 logarithm, in units of
// 2^-LOG2PrecisionBits.
type FastLogger interface {
	FastLog2(v uint32) int64
}

// PlaneCoder remaps a raw linear pixel offset to a prefix-code alphabet
// position that accounts for the image's 2D locality.
type PlaneCoder interface {
	DistanceToPlaneCode(xsize, offset int) int
}

// RefStream exposes a token stream together with an error flag that the
// producer may have raised while building it. The core propagates that
// flag as its own success bit rather than inspecting tokens for validity.
type RefStream interface {
	Len() int
	Token(i int) PixOrCopy
	HasError() bool
}

// HistogramBuilder accumulates population counts over a token stream. planeCode
// remaps a copy token's raw distance to the alphabet position used for the
// distance histogram.
type HistogramBuilder interface {
	AddToken(tok PixOrCopy, planeCode func(distance int) int)
}
