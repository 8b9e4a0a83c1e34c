// Package synth generates synthetic ARGB pixel buffers for exercising
// backward-reference refinement without requiring a real image decoder,
// which is out of scope for this module.
package synth

import "math/rand"

// Pattern selects a synthetic image generator.
type Pattern string

const (
	// PatternGradient produces a smooth horizontal+vertical gradient, rich
	// in short repeated runs and near-constant rows.
	PatternGradient Pattern = "gradient"
	// PatternPalette cycles pixel by pixel through a 12-color palette drawn
	// from the seed, favoring the color cache and copies at distance 12.
	PatternPalette Pattern = "palette"
	// PatternNoise produces uniform random pixels, the worst case for both
	// the match finder and the color cache.
	PatternNoise Pattern = "noise"
)

// Generate returns an xsize*ysize ARGB buffer (row-major, alpha forced to
// 0xff) for the given pattern and deterministic seed.
func Generate(pattern Pattern, xsize, ysize int, seed int64) []uint32 {
	argb := make([]uint32, xsize*ysize)
	switch pattern {
	case PatternPalette:
		fillPalette(argb, xsize, ysize, seed)
	case PatternNoise:
		fillNoise(argb, seed)
	default:
		fillGradient(argb, xsize, ysize)
	}
	return argb
}

func fillGradient(argb []uint32, xsize, ysize int) {
	denom := xsize + ysize - 2
	if denom < 1 {
		denom = 1
	}
	for y := 0; y < ysize; y++ {
		for x := 0; x < xsize; x++ {
			r := uint32(x * 255 / max(xsize-1, 1))
			g := uint32(y * 255 / max(ysize-1, 1))
			b := uint32((x + y) * 127 / denom)
			argb[y*xsize+x] = 0xff000000 | r<<16 | g<<8 | b
		}
	}
}

func fillPalette(argb []uint32, xsize, ysize int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	const numColors = 12
	palette := make([]uint32, numColors)
	for i := range palette {
		palette[i] = 0xff000000 | uint32(rng.Intn(1<<24))
	}
	for i := range argb {
		argb[i] = palette[i%numColors]
	}
}

func fillNoise(argb []uint32, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range argb {
		argb[i] = 0xff000000 | uint32(rng.Intn(1<<24))
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
