package lossless

// BackwardRefs is a growable token stream satisfying RefStream. It serves
// both as refs_src, the initial greedy LZ77 seed that CostModel.Build
// histograms, and as refs_dst, the optimized output of
// RefineBackwardReferences.
type BackwardRefs struct {
	tokens   []PixOrCopy
	hasError bool
}

// NewBackwardRefs allocates a BackwardRefs with pre-allocated capacity.
func NewBackwardRefs(capacity int) *BackwardRefs {
	return &BackwardRefs{tokens: make([]PixOrCopy, 0, capacity)}
}

// Add appends a token to the stream.
func (br *BackwardRefs) Add(v PixOrCopy) {
	br.tokens = append(br.tokens, v)
}

// Reset clears the stream's tokens and error flag while retaining capacity.
func (br *BackwardRefs) Reset() {
	br.tokens = br.tokens[:0]
	br.hasError = false
}

// Len satisfies RefStream.
func (br *BackwardRefs) Len() int { return len(br.tokens) }

// Token satisfies RefStream.
func (br *BackwardRefs) Token(i int) PixOrCopy { return br.tokens[i] }

// HasError satisfies RefStream.
func (br *BackwardRefs) HasError() bool { return br.hasError }

// SetError marks the stream as having failed; the core propagates this as
// its own failure bit the next time the stream is consumed.
func (br *BackwardRefs) SetError() { br.hasError = true }

// Tokens returns the underlying token slice.
func (br *BackwardRefs) Tokens() []PixOrCopy { return br.tokens }

// SeedLZ77 produces an initial greedy backward-reference stream by walking
// the hash chain once: a profitable match becomes a copy token, otherwise a
// literal (or a cache-index token when the pixel is already cached). This
// stream seeds RefineBackwardReferences's cost model; it is not itself
// cost-optimal.
func SeedLZ77(xsize, ysize int, argb []uint32, cacheBits int, hc MatchFinder, cache ColorCacher, refs *BackwardRefs) {
	size := xsize * ysize
	refs.Reset()

	useCache := cacheBits > 0
	if useCache {
		cache.Init(cacheBits)
	}

	for i := 0; i < size; {
		offset, length := hc.FindCopy(i)

		if length >= minLength {
			refs.Add(CopyPixel(length, offset))
			if useCache {
				for k := 0; k < length; k++ {
					cache.Insert(argb[i+k])
				}
			}
			i += length
			continue
		}

		if useCache {
			if idx, ok := cache.Contains(argb[i]); ok {
				refs.Add(CachePixel(idx))
			} else {
				refs.Add(LiteralPixel(argb[i]))
			}
			cache.Insert(argb[i])
		} else {
			refs.Add(LiteralPixel(argb[i]))
		}
		i++
	}
}
