package reader

// MaxVarintLen is the longest possible varint encoding.
const MaxVarintLen = 9

// GetVarint decodes a varint from the start of p and returns the value and
// the number of bytes consumed. It returns n == 0 if p ends mid-sequence.
func GetVarint(p []byte) (uint64, int) {
	// Fast path for 1-byte case
	if len(p) > 0 && p[0] < 0x80 {
		return uint64(p[0]), 1
	}

	var v uint64
	for i := 0; i < MaxVarintLen && i < len(p); i++ {
		b := p[i]
		if i == MaxVarintLen-1 {
			return v<<8 | uint64(b), MaxVarintLen
		}
		v = v<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1
		}
	}
	return 0, 0
}

// PutVarint writes v to p in varint form and returns the number of bytes
// written. p must have room for VarintLen(v) bytes.
func PutVarint(p []byte, v uint64) int {
	if v <= 0x7f {
		p[0] = byte(v)
		return 1
	}
	if v&(uint64(0xff000000)<<32) != 0 {
		// 9-byte case: all 8 bits of the 9th byte are used
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte(v&0x7f) | 0x80
			v >>= 7
		}
		return MaxVarintLen
	}

	n := VarintLen(v)
	for i := n - 1; i >= 0; i-- {
		b := byte(v & 0x7f)
		if i < n-1 {
			b |= 0x80
		}
		p[i] = b
		v >>= 7
	}
	return n
}

// AppendVarint appends the varint encoding of v to buf.
func AppendVarint(buf []byte, v uint64) []byte {
	var tmp [MaxVarintLen]byte
	n := PutVarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// VarintLen returns the number of bytes required to encode v as a varint
func VarintLen(v uint64) int {
	switch {
	case v <= 0x7f:
		return 1
	case v <= 0x3fff:
		return 2
	case v <= 0x1fffff:
		return 3
	case v <= 0xfffffff:
		return 4
	case v <= 0x7ffffffff:
		return 5
	case v <= 0x3ffffffffff:
		return 6
	case v <= 0x1ffffffffffff:
		return 7
	case v <= 0xffffffffffffff:
		return 8
	}
	return 9
}
