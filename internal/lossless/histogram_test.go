package lossless

import "testing"

func TestHistogramNumCodes(t *testing.T) {
	cases := []struct {
		cacheBits int
		want      int
	}{
		{0, NumLiteralCodes + NumLengthCodes},
		{8, NumLiteralCodes + NumLengthCodes + 256},
	}
	for _, c := range cases {
		if got := histogramNumCodes(c.cacheBits); got != c.want {
			t.Errorf("histogramNumCodes(%d) = %d, want %d", c.cacheBits, got, c.want)
		}
	}
}

func TestHistogramAddTokenLiteral(t *testing.T) {
	h := NewHistogram(0)
	h.AddToken(LiteralPixel(0x11223344), func(int) int { return 0 })
	if h.Alpha[0x11] != 1 {
		t.Errorf("Alpha[0x11] = %d, want 1", h.Alpha[0x11])
	}
	if h.Red[0x22] != 1 {
		t.Errorf("Red[0x22] = %d, want 1", h.Red[0x22])
	}
	if h.Literal[0x33] != 1 {
		t.Errorf("Literal[0x33] = %d, want 1", h.Literal[0x33])
	}
	if h.Blue[0x44] != 1 {
		t.Errorf("Blue[0x44] = %d, want 1", h.Blue[0x44])
	}
}

func TestHistogramAddTokenCacheIdx(t *testing.T) {
	h := NewHistogram(4)
	h.AddToken(CachePixel(3), func(int) int { return 0 })
	idx := NumLiteralCodes + NumLengthCodes + 3
	if h.Literal[idx] != 1 {
		t.Errorf("Literal[%d] = %d, want 1", idx, h.Literal[idx])
	}
}

func TestHistogramAddTokenCopy(t *testing.T) {
	h := NewHistogram(0)
	h.AddToken(CopyPixel(10, 50), func(d int) int { return d })
	lenCode, _ := PrefixEncodeBitsNoLUT(10)
	if h.Literal[NumLiteralCodes+lenCode] != 1 {
		t.Errorf("length histogram entry not incremented")
	}
	distCode, _ := PrefixEncodeBitsNoLUT(50)
	if h.Distance[distCode] != 1 {
		t.Errorf("distance histogram entry not incremented")
	}
}

func TestHistogramClear(t *testing.T) {
	h := NewHistogram(0)
	h.AddToken(LiteralPixel(0xff00ff00), func(int) int { return 0 })
	h.Clear()
	for i, v := range h.Literal {
		if v != 0 {
			t.Fatalf("Literal[%d] = %d after Clear, want 0", i, v)
		}
	}
	if h.Red != [NumLiteralCodes]uint32{} {
		t.Errorf("Red not cleared")
	}
}
