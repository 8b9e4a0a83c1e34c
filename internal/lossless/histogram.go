package lossless

// Histogram holds per-symbol population counts over the five VP8L symbol
// streams used to build a CostModel: green+length+cache-index (merged into
// Literal), red, blue, alpha, and distance-plane-code. Unlike the full
// encoder's histogram, this one carries no entropy-clustering state — cost
// model construction only ever needs the raw counts.
type Histogram struct {
	Literal  []uint32 // green (0..255), length codes, cache indices
	Red      [NumLiteralCodes]uint32
	Blue     [NumLiteralCodes]uint32
	Alpha    [NumLiteralCodes]uint32
	Distance [NumDistanceCodes]uint32
}

// histogramNumCodes returns the merged literal alphabet size for the given
// color-cache bits.
func histogramNumCodes(cacheBits int) int {
	n := NumLiteralCodes + NumLengthCodes
	if cacheBits > 0 {
		n += 1 << cacheBits
	}
	return n
}

// NewHistogram allocates a Histogram sized for cacheBits color-cache bits.
func NewHistogram(cacheBits int) *Histogram {
	return &Histogram{
		Literal: make([]uint32, histogramNumCodes(cacheBits)),
	}
}

// Clear zeros every population count.
func (h *Histogram) Clear() {
	for i := range h.Literal {
		h.Literal[i] = 0
	}
	h.Red = [NumLiteralCodes]uint32{}
	h.Blue = [NumLiteralCodes]uint32{}
	h.Alpha = [NumLiteralCodes]uint32{}
	h.Distance = [NumDistanceCodes]uint32{}
}

// AddToken accumulates a single token into the histogram, satisfying
// HistogramBuilder. planeCode remaps a copy token's raw pixel distance into
// the alphabet position used by the distance histogram.
func (h *Histogram) AddToken(tok PixOrCopy, planeCode func(distance int) int) {
	switch {
	case tok.IsLiteral():
		argb := tok.Argb()
		h.Alpha[(argb>>24)&0xff]++
		h.Red[(argb>>16)&0xff]++
		h.Literal[(argb>>8)&0xff]++ // green channel
		h.Blue[argb&0xff]++

	case tok.IsCacheIdx():
		idx := NumLiteralCodes + NumLengthCodes + tok.CacheIndex()
		if idx < len(h.Literal) {
			h.Literal[idx]++
		}

	case tok.IsCopy():
		lenCode, _ := PrefixEncodeBitsNoLUT(tok.Length())
		if lenCode < NumLengthCodes {
			h.Literal[NumLiteralCodes+lenCode]++
		}
		code := planeCode(tok.Distance())
		distCode, _ := PrefixEncodeBitsNoLUT(code)
		if distCode < NumDistanceCodes {
			h.Distance[distCode]++
		}
	}
}
