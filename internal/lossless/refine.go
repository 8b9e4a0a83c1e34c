package lossless

import (
	"fmt"

	"github.com/vp8lrefine/backref/internal/pool"
)

// RefineBackwardReferences is the core's single entry point. Given a pixel
// buffer, a color-cache size, a hash-chain match-finder, and an initial
// (not necessarily optimal) reference stream, it returns the cost-optimal
// reference stream: for every pixel position it finds the cheapest prefix
// encoding of pixels [0..i], then reconstructs the globally cheapest token
// sequence by tracing that choice backwards and replaying it forwards.
//
// Failure modes follow the three error kinds of the design: an allocation
// failure during cost-model or cost-manager construction returns
// ErrAllocation with refsDst nil; a stream error (checked at entry, after
// histogram construction, and after emit) returns ErrRefStream; interval-table
// overflow never surfaces here, it silently degrades PushInterval to direct
// relaxation.
func RefineBackwardReferences(xsize, ysize int, argb []uint32, cacheBits int, hc MatchFinder, refsSrc RefStream) (*BackwardRefs, error) {
	refsDst, _, err := refineBackwardReferences(xsize, ysize, argb, cacheBits, hc, refsSrc, nil)
	return refsDst, err
}

// RefineStats carries the interval-table statistics a caller outside the
// core (the reporting/metrics layer) wants to observe, without widening
// RefineBackwardReferences's own signature.
type RefineStats struct {
	// PeakIntervals is the active interval count at the moment the main DP
	// pass finished, immediately before Release.
	PeakIntervals int
	// Overflows counts how many times the interval table hit
	// CostCacheIntervalSizeMax during the pass and fell back to direct
	// relaxation for the remainder of that insert.
	Overflows int
	// TotalCostBits is the fixed-point cost of the last pixel, i.e. the
	// cheapest total encoding cost of the whole image, in units of
	// 2^-LOG2PrecisionBits bits.
	TotalCostBits int64
}

// RefineBackwardReferencesWithStats behaves exactly like
// RefineBackwardReferences but also reports RefineStats, and invokes
// onOverflow (if non-nil) once per interval-table overflow event as it
// happens, so a caller can drive a live metrics counter.
func RefineBackwardReferencesWithStats(xsize, ysize int, argb []uint32, cacheBits int, hc MatchFinder, refsSrc RefStream, onOverflow func()) (*BackwardRefs, RefineStats, error) {
	return refineBackwardReferences(xsize, ysize, argb, cacheBits, hc, refsSrc, onOverflow)
}

func refineBackwardReferences(xsize, ysize int, argb []uint32, cacheBits int, hc MatchFinder, refsSrc RefStream, onOverflow func()) (*BackwardRefs, RefineStats, error) {
	pixCount := xsize * ysize
	if pixCount == 0 {
		return NewBackwardRefs(0), RefineStats{}, nil
	}
	if refsSrc.HasError() {
		return nil, RefineStats{}, ErrRefStream
	}

	plane := VP8LPlaneCoder{}
	prefix := VP8LPrefixCoder{}
	logger := VP8LFastLogger{}

	model, distArray, mgr, err := initRefinementState(xsize, cacheBits, pixCount, refsSrc, plane, prefix, logger)
	if err != nil {
		return nil, RefineStats{}, err
	}
	defer pool.PutUint16(distArray)
	defer mgr.Release()

	var stats RefineStats
	mgr.OnOverflow = func() {
		stats.Overflows++
		if onOverflow != nil {
			onOverflow()
		}
	}

	var dpCache ColorCacher = &ColorCache{}
	useColorCache := cacheBits > 0
	if useColorCache {
		dpCache.Init(cacheBits)
	}

	runDistanceOnlyPass(xsize, argb, hc, model, prefix, plane, dpCache, useColorCache, mgr)
	stats.PeakIntervals = mgr.Count()
	stats.TotalCostBits = mgr.Costs()[pixCount-1]

	chosenPath, chosenLen := TraceBackwards(distArray, pixCount)

	refsDst := NewBackwardRefs(pixCount)
	var emitCache ColorCacher = &ColorCache{}
	if useColorCache {
		emitCache.Init(cacheBits)
	}
	emitChosenPath(argb, useColorCache, chosenPath, chosenLen, hc, emitCache, refsDst)
	if refsSrc.HasError() || refsDst.HasError() {
		return nil, RefineStats{}, ErrRefStream
	}

	return refsDst, stats, nil
}

// initRefinementState builds the cost model, distance array, and cost
// manager that back one refinement pass. Go's allocators signal exhaustion
// by panicking (make, append) rather than returning an error, so
// construction runs under a recover that converts any such panic into
// ErrAllocation; a reference-stream error surfacing from model.Build is
// returned as-is, untouched by the recover.
func initRefinementState(xsize, cacheBits, pixCount int, refsSrc RefStream, plane PlaneCoder, prefix PrefixCoder, logger FastLogger) (model *CostModel, distArray []uint16, mgr *CostManager, err error) {
	defer func() {
		if r := recover(); r != nil {
			model, distArray, mgr = nil, nil, nil
			err = fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()

	model = NewCostModel(cacheBits)
	if buildErr := model.Build(xsize, cacheBits, refsSrc, plane, logger); buildErr != nil {
		return nil, nil, nil, buildErr
	}

	distArray = pool.GetUint16(pixCount)
	mgr = NewCostManager(distArray, pixCount, model, prefix)
	return model, distArray, mgr, nil
}

// addSingleLiteral evaluates the cost of encoding pixel idx as a literal or
// a color-cache hit, relaxing costs[idx]/distArray[idx] on improvement. The
// literal and cache-index biases (82/100, 68/100) are calibrated constants
// of the cost model; they must be reproduced exactly.
func addSingleLiteral(argb []uint32, cache ColorCacher, model *CostModel, idx int, useColorCache bool, prevCost int64, mgr *CostManager) {
	color := argb[idx]
	cost := prevCost

	cacheIndex := -1
	if useColorCache {
		if key, ok := cache.Contains(color); ok {
			cacheIndex = key
		}
	}

	if cacheIndex >= 0 {
		cost += divRound(model.CacheCost(cacheIndex)*cacheCostBiasNum, costBiasDenom)
	} else {
		if useColorCache {
			cache.Insert(color)
		}
		cost += divRound(model.LiteralCost(color)*literalCostBiasNum, costBiasDenom)
	}

	if mgr.costs[idx] > cost {
		mgr.costs[idx] = cost
		mgr.distArray[idx] = 1
	}
}

// runDistanceOnlyPass is the main left-to-right DP pass. For each position
// it relaxes the literal edge, then if the hash chain reports a profitable
// copy it pushes the corresponding cost interval — either a fresh one for a
// newly seen offset, or, for a run of positions sharing the previous
// offset, an amortized push that collapses the whole run into O(1) work via
// the rolling "reach" frontier.
func runDistanceOnlyPass(xsize int, argb []uint32, hc MatchFinder, model *CostModel, prefix PrefixCoder, plane PlaneCoder, cache ColorCacher, useColorCache bool, mgr *CostManager) {
	pixCount := len(argb)

	mgr.distArray[0] = 0
	addSingleLiteral(argb, cache, model, 0, useColorCache, 0, mgr)

	offsetPrev, lenPrev := -1, -1
	var offsetCost int64
	firstOffsetIsConstant := false
	reach := 0

	for i := 1; i < pixCount; i++ {
		prevCost := mgr.costs[i-1]
		offset, length := hc.FindCopy(i)

		addSingleLiteral(argb, cache, model, i, useColorCache, prevCost, mgr)

		if length >= 2 {
			if offset != offsetPrev {
				code := plane.DistanceToPlaneCode(xsize, offset)
				offsetCost = model.DistanceCost(code, prefix)
				firstOffsetIsConstant = true
				mgr.PushInterval(prevCost+offsetCost, i, length)
			} else {
				if firstOffsetIsConstant {
					reach = i - 1 + lenPrev - 1
					firstOffsetIsConstant = false
				}

				if i+length-1 > reach {
					j := i
					var offsetJ, lenJ int
					for j <= reach {
						offsetJ, lenJ = hc.FindCopy(j + 1)
						if offsetJ != offset {
							offsetJ, lenJ = hc.FindCopy(j)
							break
						}
						j++
					}
					if j > reach {
						offsetJ, lenJ = hc.FindCopy(j)
					}
					_ = offsetJ // final value unused, preserved for parity with the boundary double-lookup

					mgr.updateCostAtIndex(j-1, false)
					mgr.updateCostAtIndex(j, false)

					mgr.PushInterval(mgr.costs[j-1]+offsetCost, j, lenJ)
					reach = j + lenJ - 1
				}
			}
		}

		mgr.updateCostAtIndex(i, true)
		offsetPrev, lenPrev = offset, length
	}
}

// TraceBackwards walks distArray from N-1 back to the start, packing the
// chosen hop lengths at the tail of the array (reusing its storage). It
// returns the packed path and its length; the hop lengths sum to N.
func TraceBackwards(distArray []uint16, n int) ([]uint16, int) {
	pathEnd := n
	cur := n - 1
	for cur >= 0 {
		k := int(distArray[cur])
		pathEnd--
		distArray[pathEnd] = uint16(k)
		cur -= k
	}
	return distArray[pathEnd:n], n - pathEnd
}

// emitChosenPath replays the chosen hop lengths forward, re-querying the
// hash chain for copy offsets and the color cache for literal/cache-index
// decisions, producing the final token stream. It consumes exactly as many
// pixels as the hops sum to.
func emitChosenPath(argb []uint32, useColorCache bool, chosenPath []uint16, chosenLen int, hc MatchFinder, cache ColorCacher, refs *BackwardRefs) {
	refs.Reset()
	i := 0
	for ix := 0; ix < chosenLen; ix++ {
		length := int(chosenPath[ix])
		if length != 1 {
			offset := hc.FindOffset(i)
			refs.Add(CopyPixel(length, offset))
			if useColorCache {
				for k := 0; k < length; k++ {
					cache.Insert(argb[i+k])
				}
			}
			i += length
			continue
		}
		if useColorCache {
			if idx, ok := cache.Contains(argb[i]); ok {
				refs.Add(CachePixel(idx))
			} else {
				cache.Insert(argb[i])
				refs.Add(LiteralPixel(argb[i]))
			}
		} else {
			refs.Add(LiteralPixel(argb[i]))
		}
		i++
	}
}
