package lossless

import "math"

// Calibrated literal/cache-index bias: a literal or cache-index edge is
// scaled down slightly relative to a length-1 copy edge, by these exact
// numerators over costBiasDenom. Changing them changes compression ratio,
// so they are named constants rather than literals scattered through
// refine.go.
const (
	literalCostBiasNum = 82
	cacheCostBiasNum   = 68
	costBiasDenom      = 100
)

// divRound divides a by b, rounding to the nearest integer (ties away from
// zero), matching the reference implementation's DivRound.
func divRound(a, b int64) int64 {
	if (a < 0) != (b < 0) {
		return (a - b/2) / b
	}
	return (a + b/2) / b
}

// CostModel is an immutable bit-cost table built once from a histogram over
// an initial reference stream. Every entry is a fixed-point int64 in units
// of 2^-LOG2PrecisionBits bits.
type CostModel struct {
	alpha    [NumLiteralCodes]int64
	red      [NumLiteralCodes]int64
	blue     [NumLiteralCodes]int64
	distance [NumDistanceCodes]int64
	literal  []int64 // NumLiteralCodes + NumLengthCodes, plus 1<<cacheBits when cacheBits > 0
}

// NewCostModel allocates a CostModel sized for cacheBits color-cache bits.
// Its tables are zero until Build populates them.
func NewCostModel(cacheBits int) *CostModel {
	return &CostModel{literal: make([]int64, histogramNumCodes(cacheBits))}
}

// Build constructs the cost model by walking refs once into a Histogram and
// converting each sub-histogram's population counts to bit-cost estimates.
// It fails only if the reference stream itself reports an error.
func (cm *CostModel) Build(xsize, cacheBits int, refs RefStream, plane PlaneCoder, logger FastLogger) error {
	if refs.HasError() {
		return ErrRefStream
	}
	h := NewHistogram(cacheBits)
	remap := func(dist int) int { return plane.DistanceToPlaneCode(xsize, dist) }
	for i, n := 0, refs.Len(); i < n; i++ {
		h.AddToken(refs.Token(i), remap)
	}
	if refs.HasError() {
		return ErrRefStream
	}
	convertPopulationCountToBitEstimates(h.Literal, cm.literal, logger)
	convertPopulationCountToBitEstimates(h.Red[:], cm.red[:], logger)
	convertPopulationCountToBitEstimates(h.Blue[:], cm.blue[:], logger)
	convertPopulationCountToBitEstimates(h.Alpha[:], cm.alpha[:], logger)
	convertPopulationCountToBitEstimates(h.Distance[:], cm.distance[:], logger)
	return nil
}

// convertPopulationCountToBitEstimates fills output[i] = FastLog2(sum) -
// FastLog2(counts[i]) for each symbol, or all zero if fewer than two
// distinct symbols occurred.
func convertPopulationCountToBitEstimates(counts []uint32, output []int64, logger FastLogger) {
	var sum uint32
	nonzeros := 0
	for _, c := range counts {
		sum += c
		if c > 0 {
			nonzeros++
		}
	}
	if nonzeros <= 1 {
		for i := range output {
			output[i] = 0
		}
		return
	}
	logSum := logger.FastLog2(sum)
	for i, c := range counts {
		if c > 0 {
			output[i] = logSum - logger.FastLog2(c)
		} else {
			output[i] = logSum
		}
	}
}

// LiteralCost returns the bit cost of encoding pixel v as a literal.
func (cm *CostModel) LiteralCost(v uint32) int64 {
	return cm.alpha[(v>>24)&0xff] + cm.red[(v>>16)&0xff] + cm.literal[(v>>8)&0xff] + cm.blue[v&0xff]
}

// CacheCost returns the bit cost of encoding color-cache index i.
func (cm *CostModel) CacheCost(i int) int64 {
	idx := NumLiteralCodes + NumLengthCodes + i
	if idx < 0 || idx >= len(cm.literal) {
		return math.MaxInt64
	}
	return cm.literal[idx]
}

// LengthCost returns the bit cost of a copy of the given length, including
// its prefix-code extra bits.
func (cm *CostModel) LengthCost(length int, prefix PrefixCoder) int64 {
	code, extraBits := prefix.PrefixEncodeBits(length)
	if code < 0 || code >= NumLengthCodes {
		return math.MaxInt64
	}
	return cm.literal[NumLiteralCodes+code] + int64(extraBits)<<LOG2PrecisionBits
}

// DistanceCost returns the bit cost of a copy whose raw distance has
// already been remapped to a plane code, including prefix-code extra bits.
func (cm *CostModel) DistanceCost(distPlaneCode int, prefix PrefixCoder) int64 {
	code, extraBits := prefix.PrefixEncodeBits(distPlaneCode)
	if code < 0 || code >= NumDistanceCodes {
		return math.MaxInt64
	}
	return cm.distance[code] + int64(extraBits)<<LOG2PrecisionBits
}
