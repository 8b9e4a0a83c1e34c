package lossless

import "math"

// LOG2PrecisionBits is the number of fractional bits used to represent
// base-2 logarithm values (and every cost derived from them) as a fixed-
// point int64. A cost of one bit is represented as 1<<LOG2PrecisionBits.
const LOG2PrecisionBits = 8

// log2Scale is 1<<LOG2PrecisionBits as a float64, used only while building
// the lookup table below.
const log2Scale = float64(int64(1) << LOG2PrecisionBits)

// fastLog2LUTSize covers the population counts encountered by ordinary
// images without falling back to math.Log2 on every call.
const fastLog2LUTSize = 4096

// fastLog2LUT[v] holds round(log2(v) * 2^LOG2PrecisionBits) for v in
// [1, fastLog2LUTSize). Index 0 is unused; FastLog2 returns 0 for 0 before
// consulting the table, matching the convention that an empty symbol
// table contributes no cost.
var fastLog2LUT [fastLog2LUTSize]int64

func init() {
	for v := 1; v < fastLog2LUTSize; v++ {
		fastLog2LUT[v] = int64(math.Round(math.Log2(float64(v)) * log2Scale))
	}
}

// FastLog2 returns log2(v) as a fixed-point int64 in units of
// 2^-LOG2PrecisionBits, using a precomputed table for small v and falling
// back to math.Log2 beyond the table's range. FastLog2(0) returns 0, the
// convention used throughout the cost model when a count is absent.
func FastLog2(v uint32) int64 {
	if v == 0 {
		return 0
	}
	if v < fastLog2LUTSize {
		return fastLog2LUT[v]
	}
	return int64(math.Round(math.Log2(float64(v)) * log2Scale))
}
