package lossless

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

// decodeRefs replays a reference stream back into an ARGB buffer, mirroring
// what a real entropy decoder + LZ77 expander would do, so tests can assert
// round-trip fidelity without a real decoder.
func decodeRefs(refs RefStream, cacheBits int) []uint32 {
	var out []uint32
	cache := &ColorCache{}
	useCache := cacheBits > 0
	if useCache {
		cache.Init(cacheBits)
	}
	for i, n := 0, refs.Len(); i < n; i++ {
		tok := refs.Token(i)
		switch {
		case tok.IsLiteral():
			out = append(out, tok.Argb())
			if useCache {
				cache.Insert(tok.Argb())
			}
		case tok.IsCacheIdx():
			out = append(out, cache.Lookup(tok.CacheIndex()))
		case tok.IsCopy():
			dist := tok.Distance()
			for k := 0; k < tok.Length(); k++ {
				v := out[len(out)-dist]
				out = append(out, v)
				if useCache {
					cache.Insert(v)
				}
			}
		}
	}
	return out
}

func checksum(argb []uint32) [32]byte {
	buf := make([]byte, len(argb)*4)
	for i, v := range argb {
		buf[i*4+0] = byte(v)
		buf[i*4+1] = byte(v >> 8)
		buf[i*4+2] = byte(v >> 16)
		buf[i*4+3] = byte(v >> 24)
	}
	return sha3.Sum256(buf)
}

func requireRoundTrip(t *testing.T, argb []uint32, refs RefStream, cacheBits int) {
	t.Helper()
	got := decodeRefs(refs, cacheBits)
	require.Equal(t, checksum(argb), checksum(got), "round-trip decode mismatch (lengths: want %d got %d)", len(argb), len(got))
}

func runRefine(t *testing.T, xsize, ysize, cacheBits int, argb []uint32) (*BackwardRefs, RefineStats) {
	t.Helper()
	hc := NewHashChain(len(argb))
	hc.Fill(argb, 75, xsize, ysize, false)

	seed := NewBackwardRefs(len(argb))
	cache := &ColorCache{}
	SeedLZ77(xsize, ysize, argb, cacheBits, hc, cache, seed)

	refs, stats, err := RefineBackwardReferencesWithStats(xsize, ysize, argb, cacheBits, hc, seed, nil)
	require.NoError(t, err)
	return refs, stats
}

func TestRefineSinglePixel(t *testing.T) {
	argb := []uint32{0x00000000}
	refs, _ := runRefine(t, 1, 1, 0, argb)
	require.Equal(t, 1, refs.Len())
	require.True(t, refs.Token(0).IsLiteral())
	requireRoundTrip(t, argb, refs, 0)
}

func TestRefineUniformRow(t *testing.T) {
	argb := make([]uint32, 16)
	for i := range argb {
		argb[i] = 0xFF808080
	}
	refs, _ := runRefine(t, 16, 1, 0, argb)
	requireRoundTrip(t, argb, refs, 0)

	total := 0
	for i := 0; i < refs.Len(); i++ {
		total += refs.Token(i).Length()
	}
	require.Equal(t, 16, total)
	// The optimum is a single literal followed by one long copy.
	require.LessOrEqual(t, refs.Len(), 2)
}

func TestRefineAlternatingPairWithColorCache(t *testing.T) {
	const a, b = uint32(0x11111111), uint32(0x22222222)
	argb := []uint32{a, b, a, b, a, b, a, b}
	refs, _ := runRefine(t, 8, 1, 2, argb)
	requireRoundTrip(t, argb, refs, 2)

	literals, cacheHits := 0, 0
	for i := 0; i < refs.Len(); i++ {
		tok := refs.Token(i)
		if tok.IsLiteral() {
			literals++
		}
		if tok.IsCacheIdx() {
			cacheHits++
		}
	}
	require.Equal(t, 2, literals, "expect exactly 2 cold literals before the cache warms up")
	require.Equal(t, 6, cacheHits, "expect the remaining 6 pixels to hit the color cache")
}

func TestRefineTwoRunsOffsetSwitch(t *testing.T) {
	const a, b = uint32(0x33333333), uint32(0x44444444)
	argb := make([]uint32, 16)
	for i := 0; i < 8; i++ {
		argb[i] = a
	}
	for i := 8; i < 16; i++ {
		argb[i] = b
	}
	refs, _ := runRefine(t, 16, 1, 0, argb)
	requireRoundTrip(t, argb, refs, 0)

	total := 0
	for i := 0; i < refs.Len(); i++ {
		total += refs.Token(i).Length()
	}
	require.Equal(t, 16, total)
	// Two cold-start literals (one per run) plus their follow-up copies.
	literals := 0
	for i := 0; i < refs.Len(); i++ {
		if refs.Token(i).IsLiteral() {
			literals++
		}
	}
	require.Equal(t, 2, literals)
}

func TestRefineIntervalSaturation(t *testing.T) {
	n := 4096
	argb := make([]uint32, n)
	for i := range argb {
		argb[i] = uint32(i) * 2654435761
	}
	refs, stats := runRefine(t, n, 1, 0, argb)
	requireRoundTrip(t, argb, refs, 0)
	require.LessOrEqual(t, stats.PeakIntervals, CostCacheIntervalSizeMax)

	total := 0
	for i := 0; i < refs.Len(); i++ {
		total += refs.Token(i).Length()
	}
	require.Equal(t, n, total)
}

func TestRefineIdempotentOnSecondPass(t *testing.T) {
	argb := make([]uint32, 32)
	for i := range argb {
		argb[i] = uint32(i%5) * 0x01010101
	}
	refs1, stats1 := runRefine(t, 32, 1, 0, argb)

	hc := NewHashChain(len(argb))
	hc.Fill(argb, 75, 32, 1, false)
	refs2, stats2, err := RefineBackwardReferencesWithStats(32, 1, argb, 0, hc, refs1, nil)
	require.NoError(t, err)

	require.Equal(t, stats1.TotalCostBits, stats2.TotalCostBits)
	requireRoundTrip(t, argb, refs2, 0)
}

func TestRefinePropagatesRefStreamError(t *testing.T) {
	refs := NewBackwardRefs(0)
	refs.SetError()
	hc := NewHashChain(4)
	_, err := RefineBackwardReferences(2, 2, make([]uint32, 4), 0, hc, refs)
	require.ErrorIs(t, err, ErrRefStream)
}

func TestRefineEmptyImage(t *testing.T) {
	hc := NewHashChain(0)
	refs, err := RefineBackwardReferences(0, 0, nil, 0, hc, NewBackwardRefs(0))
	require.NoError(t, err)
	require.Equal(t, 0, refs.Len())
}

// TestTraceBackwardsSumsToN exercises the white-box trace invariant
// directly, without going through a full refinement pass.
func TestTraceBackwardsSumsToN(t *testing.T) {
	distArray := []uint16{1, 1, 1, 3} // position 3 ends a hop of 3, position 0 a hop of 1
	path, length := TraceBackwards(distArray, 4)
	sum := 0
	for _, hop := range path {
		sum += int(hop)
	}
	require.Equal(t, 4, sum)
	require.Equal(t, len(path), length)
}

func TestCostIntervalSnapshotStructuralDiff(t *testing.T) {
	model := flatCostModel(t, 0)
	n := 64
	distArray := make([]uint16, n)
	mgr := NewCostManager(distArray, n, model, VP8LPrefixCoder{})
	defer mgr.Release()

	mgr.costs[0] = 0
	mgr.PushInterval(1000, 1, 40)

	type snapshot struct {
		Start, End int
		Cost       int64
	}
	var before []snapshot
	for i := mgr.head; i != nil; i = i.next {
		before = append(before, snapshot{i.start, i.end, i.cost})
	}

	// Re-running the identical push against a fresh manager must produce
	// the same interval shape.
	distArray2 := make([]uint16, n)
	mgr2 := NewCostManager(distArray2, n, model, VP8LPrefixCoder{})
	defer mgr2.Release()
	mgr2.costs[0] = 0
	mgr2.PushInterval(1000, 1, 40)

	var after []snapshot
	for i := mgr2.head; i != nil; i = i.next {
		after = append(after, snapshot{i.start, i.end, i.cost})
	}

	if diff := cmp.Diff(before, after, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("interval snapshots diverged across identical runs:\n%s", diff)
	}
}
