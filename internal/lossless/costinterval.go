package lossless

import (
	"math"

	"github.com/vp8lrefine/backref/internal/pool"
)

// CostCacheIntervalSizeMax bounds the active interval list. When the list
// would grow past this, PushInterval and InsertInterval degrade to direct
// per-position relaxation ("serialization") instead of growing further.
const CostCacheIntervalSizeMax = 500

// CostManagerMaxFreeList is the number of interval records the manager
// pre-warms its arena with before any heap traffic occurs, mirroring the
// reference implementation's inline free-list size. The arena itself does
// not distinguish inline from heap-allocated nodes past this point; see
// DESIGN.md for why that distinction is not reproduced.
const CostManagerMaxFreeList = 10

// kSkipDistance is the run length below which PushInterval relaxes
// costs[] directly instead of touching the interval list; the list's
// fixed overhead dominates for short runs.
const kSkipDistance = 10

// CostInterval represents a half-open range [start, end) of pixel indices
// over which a copy edge originating at pixel index offers cost. The
// manager's active list is sorted by start and its members never overlap.
type CostInterval struct {
	cost     int64
	index    int
	start    int
	end      int
	previous *CostInterval
	next     *CostInterval
}

// CostCacheInterval caches GetLengthCost values over maximal runs of equal
// cost, so PushInterval only has to walk O(distinct costs) segments
// instead of one per length.
type CostCacheInterval struct {
	cost  int64
	start int
	end   int // exclusive
}

// CostManager owns the per-pixel costs and predecessor-hop arrays, the
// cache-interval table, and the active interval list for one refinement
// pass.
type CostManager struct {
	head  *CostInterval
	count int

	cacheIntervals     []CostCacheInterval
	cacheIntervalsSize int

	costCache []int64 // costCache[k] = model.LengthCost(k)
	costs     []int64
	distArray []uint16

	arena *pool.Arena[CostInterval]

	// OnOverflow, if set, is called each time insertInterval finds the
	// active list already at CostCacheIntervalSizeMax and serializes
	// directly into costs instead of growing the list.
	OnOverflow func()
}

// NewCostManager initializes a CostManager for a pass over pixCount pixels,
// aliasing distArray (owned by the caller for its post-trace lifetime) and
// populating the cache-interval table from model's length costs.
func NewCostManager(distArray []uint16, pixCount int, model *CostModel, prefix PrefixCoder) *CostManager {
	mgr := &CostManager{
		distArray: distArray,
		arena:     pool.NewArena[CostInterval](),
	}

	costCacheSize := pixCount
	if costCacheSize > maxLength {
		costCacheSize = maxLength
	}
	mgr.costCache = make([]int64, costCacheSize)
	for i := 0; i < costCacheSize; i++ {
		mgr.costCache[i] = model.LengthCost(i, prefix)
	}

	mgr.cacheIntervalsSize = 1
	for i := 1; i < costCacheSize; i++ {
		if mgr.costCache[i] != mgr.costCache[i-1] {
			mgr.cacheIntervalsSize++
		}
	}
	if costCacheSize == 0 {
		mgr.cacheIntervalsSize = 0
	}

	mgr.cacheIntervals = make([]CostCacheInterval, mgr.cacheIntervalsSize)
	if costCacheSize > 0 {
		cur := 0
		mgr.cacheIntervals[0] = CostCacheInterval{start: 0, end: 1, cost: mgr.costCache[0]}
		for i := 1; i < costCacheSize; i++ {
			costVal := mgr.costCache[i]
			if costVal != mgr.cacheIntervals[cur].cost {
				cur++
				mgr.cacheIntervals[cur] = CostCacheInterval{start: i, cost: costVal}
			}
			mgr.cacheIntervals[cur].end = i + 1
		}
	}

	mgr.costs = pool.GetInt64(pixCount)
	for i := range mgr.costs {
		mgr.costs[i] = math.MaxInt64
	}

	prewarm := make([]*CostInterval, CostManagerMaxFreeList)
	for i := range prewarm {
		prewarm[i] = mgr.arena.Get()
	}
	for _, iv := range prewarm {
		mgr.arena.Put(iv)
	}

	return mgr
}

// Release returns the manager's pooled buffers. It must be called exactly
// once, after the caller is done reading Costs/DistArray.
func (mgr *CostManager) Release() {
	pool.PutInt64(mgr.costs)
	mgr.costs = nil
}

// Costs returns the current best-total-cost-per-pixel array.
func (mgr *CostManager) Costs() []int64 {
	return mgr.costs
}

// Count returns the number of intervals currently active.
func (mgr *CostManager) Count() int {
	return mgr.count
}

func (mgr *CostManager) allocInterval() *CostInterval {
	return mgr.arena.Get()
}

func (mgr *CostManager) freeInterval(iv *CostInterval) {
	mgr.arena.Put(iv)
}

// connectIntervals links prev->next, updating head if prev is nil.
func (mgr *CostManager) connectIntervals(prev, next *CostInterval) {
	if prev != nil {
		prev.next = next
	} else {
		mgr.head = next
	}
	if next != nil {
		next.previous = prev
	}
}

// popInterval removes iv from the active list and returns it to the arena.
func (mgr *CostManager) popInterval(iv *CostInterval) {
	if iv == nil {
		return
	}
	mgr.connectIntervals(iv.previous, iv.next)
	mgr.freeInterval(iv)
	mgr.count--
}

// updateCost relaxes costs[i] against a candidate cost reached via a copy
// edge originating at position, recording the hop length on improvement.
func (mgr *CostManager) updateCost(i, position int, cost int64) {
	k := i - position
	if mgr.costs[i] > cost {
		mgr.costs[i] = cost
		mgr.distArray[i] = uint16(k + 1)
	}
}

// updateCostPerInterval relaxes costs[start..end) directly, bypassing the
// interval list. Used once the active list is at capacity.
func (mgr *CostManager) updateCostPerInterval(start, end, position int, cost int64) {
	for i := start; i < end; i++ {
		mgr.updateCost(i, position, cost)
	}
}

// updateCostAtIndex settles position i against every active interval that
// covers it. When doClean is true, intervals that can no longer help any
// future position (I.end <= i) are popped; callers revisiting an earlier
// position during the same-offset optimization must pass false.
func (mgr *CostManager) updateCostAtIndex(i int, doClean bool) {
	current := mgr.head
	for current != nil && current.start <= i {
		next := current.next
		if current.end <= i {
			if doClean {
				mgr.popInterval(current)
			}
		} else {
			mgr.updateCost(i, current.index, current.cost)
		}
		current = next
	}
}

// positionOrphanInterval splices a detached interval into the sorted active
// list, using previous as a starting hint and walking outward from it.
func (mgr *CostManager) positionOrphanInterval(current, previous *CostInterval) {
	if previous == nil {
		previous = mgr.head
	}
	for previous != nil && current.start < previous.start {
		previous = previous.previous
	}
	for previous != nil && previous.next != nil && previous.next.start < current.start {
		previous = previous.next
	}
	if previous != nil {
		mgr.connectIntervals(current, previous.next)
	} else {
		mgr.connectIntervals(current, mgr.head)
	}
	mgr.connectIntervals(previous, current)
}

// insertInterval adds [start, end) as a new active interval near hint. If
// the list is already at CostCacheIntervalSizeMax, it serializes the range
// directly into costs instead of growing the list.
func (mgr *CostManager) insertInterval(hint *CostInterval, cost int64, position, start, end int) {
	if start >= end {
		return
	}
	if mgr.count >= CostCacheIntervalSizeMax {
		if mgr.OnOverflow != nil {
			mgr.OnOverflow()
		}
		mgr.updateCostPerInterval(start, end, position, cost)
		return
	}
	iv := mgr.allocInterval()
	iv.cost = cost
	iv.index = position
	iv.start = start
	iv.end = end
	mgr.positionOrphanInterval(iv, hint)
	mgr.count++
}

// PushInterval relaxes the candidate costs distanceCost+costCache[k] for
// k in [0, length) against position+k, merging with the active interval
// list. Short runs bypass the list entirely (the fast path); longer runs
// are split into maximal equal-cost segments and merge-swept against
// existing intervals.
func (mgr *CostManager) PushInterval(distanceCost int64, position, length int) {
	if length < kSkipDistance {
		for k := 0; k < length; k++ {
			j := position + k
			costTmp := distanceCost + mgr.costCache[k]
			if mgr.costs[j] > costTmp {
				mgr.costs[j] = costTmp
				mgr.distArray[j] = uint16(k + 1)
			}
		}
		return
	}

	interval := mgr.head
	for ci := 0; ci < mgr.cacheIntervalsSize && mgr.cacheIntervals[ci].start < length; ci++ {
		start := position + mgr.cacheIntervals[ci].start
		end := position + mgr.cacheIntervals[ci].end
		if end > position+length {
			end = position + length
		}
		cost := distanceCost + mgr.cacheIntervals[ci].cost

	sweep:
		for interval != nil && interval.start < end {
			next := interval.next

			if start >= interval.end {
				interval = next
				continue
			}

			if cost >= interval.cost {
				// New segment is worse: keep the existing interval, insert
				// the new segment's portion before it, then skip past it.
				startNew := interval.end
				mgr.insertInterval(interval, cost, position, start, interval.start)
				start = startNew
				if start >= end {
					break sweep
				}
				interval = next
				continue
			}

			if start <= interval.start {
				if interval.end <= end {
					// New segment covers the existing interval: drop it.
					mgr.popInterval(interval)
				} else {
					// New segment covers the existing interval's left part.
					interval.start = end
					break sweep
				}
			} else if end < interval.end {
				// New segment falls strictly inside the existing interval:
				// split it in place.
				endOriginal := interval.end
				interval.end = start
				mgr.insertInterval(interval, interval.cost, interval.index, end, endOriginal)
				interval = interval.next
				break sweep
			} else {
				// New segment covers the existing interval's right part.
				interval.end = start
			}
			interval = next
		}
		mgr.insertInterval(interval, cost, position, start, end)
	}
}
