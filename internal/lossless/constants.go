package lossless

// VP8L format constants needed by backward-reference refinement, derived
// from libwebp/src/webp/format_constants.h and
// libwebp/src/enc/backward_references_cost_enc.c. Constants that only
// matter to the entropy encoder, the bitstream container, or the image
// transforms (Huffman table sizing, code-length alphabets, header bits)
// are not carried here; refinement never touches them.

const (
	// NumLiteralCodes is the number of literal codes (256 byte values).
	NumLiteralCodes = 256
	// NumLengthCodes is the number of length prefix codes.
	NumLengthCodes = 24
	// NumDistanceCodes is the number of distance prefix codes.
	NumDistanceCodes = 40

	// MaxCacheBits is the maximum color cache bit size.
	MaxCacheBits = 11
	// MinCacheBits is the minimum color cache bit size (0 = disabled).
	MinCacheBits = 0

	// CodeToPlaneCodesCount is the number of entries in the distance map table.
	CodeToPlaneCodesCount = 120
)

// CodeToPlane maps distance codes (1-based index into the table) to
// packed (yoffset, xoffset) values used by PlaneCodeToDistance.
// Entry i encodes: yoffset = value >> 4, xoffset = 8 - (value & 0xf).
var CodeToPlane = [CodeToPlaneCodesCount]uint8{
	0x18, 0x07, 0x17, 0x19, 0x28, 0x06, 0x27, 0x29, 0x16, 0x1a,
	0x26, 0x2a, 0x38, 0x05, 0x37, 0x39, 0x15, 0x1b, 0x36, 0x3a,
	0x25, 0x2b, 0x48, 0x04, 0x47, 0x49, 0x14, 0x1c, 0x35, 0x3b,
	0x46, 0x4a, 0x24, 0x2c, 0x58, 0x45, 0x4b, 0x34, 0x3c, 0x03,
	0x57, 0x59, 0x13, 0x1d, 0x56, 0x5a, 0x23, 0x2d, 0x44, 0x4c,
	0x55, 0x5b, 0x33, 0x3d, 0x68, 0x02, 0x67, 0x69, 0x12, 0x1e,
	0x66, 0x6a, 0x22, 0x2e, 0x54, 0x5c, 0x43, 0x4d, 0x65, 0x6b,
	0x32, 0x3e, 0x78, 0x01, 0x77, 0x79, 0x53, 0x5d, 0x11, 0x1f,
	0x64, 0x6c, 0x42, 0x4e, 0x76, 0x7a, 0x21, 0x2f, 0x75, 0x7b,
	0x31, 0x3f, 0x63, 0x6d, 0x52, 0x5e, 0x00, 0x74, 0x7c, 0x41,
	0x4f, 0x10, 0x20, 0x62, 0x6e, 0x30, 0x73, 0x7d, 0x51, 0x5f,
	0x40, 0x72, 0x7e, 0x61, 0x6f, 0x50, 0x71, 0x7f, 0x60, 0x70,
}

// PlaneCodeToDistance converts a VP8L distance code to an actual pixel
// distance, given the image width (xsize).
func PlaneCodeToDistance(xsize int, planeCode int) int {
	if planeCode <= 0 {
		return 1
	}
	if planeCode > CodeToPlaneCodesCount {
		return planeCode - CodeToPlaneCodesCount
	}
	distCode := CodeToPlane[planeCode-1]
	yoffset := int(distCode >> 4)
	xoffset := 8 - int(distCode&0xf)
	dist := yoffset*xsize + xoffset
	if dist < 1 {
		return 1
	}
	return dist
}

// PrefixEncodeBitsNoLUT computes the prefix code and extra bits for a
// 1-based distance or length value, using the VP8L encoding formula. A value
// of 0 gets code 0 with no extra bits, the same as 1.
func PrefixEncodeBitsNoLUT(distance int) (code int, extraBits int) {
	distance-- // make 0-based
	if distance < 0 {
		return 0, 0
	}
	if distance < 2 {
		return distance, 0
	}
	highestBit := bitsLog2Floor(distance)
	secondHighestBit := (distance >> (highestBit - 1)) & 1
	extraBits = highestBit - 1
	code = 2*highestBit + secondHighestBit
	return code, extraBits
}

// PrefixEncodeNoLUT computes the prefix code, extra bits, and extra bits
// value for a 1-based distance or length value.
func PrefixEncodeNoLUT(distance int) (code, extraBits, extraBitsValue int) {
	distance--
	if distance < 2 {
		return distance, 0, 0
	}
	highestBit := bitsLog2Floor(distance)
	secondHighestBit := (distance >> (highestBit - 1)) & 1
	extraBits = highestBit - 1
	extraBitsValue = distance & ((1 << extraBits) - 1)
	code = 2*highestBit + secondHighestBit
	return code, extraBits, extraBitsValue
}

// bitsLog2Floor returns floor(log2(n)) for n > 0.
func bitsLog2Floor(n int) int {
	log := 0
	for n > 1 {
		log++
		n >>= 1
	}
	return log
}
