package pixel

import (
	"io"

	"github.com/gvspd/gvspd/internal/zerocopy"
)

// decodeMono8 is a direct byte-for-byte copy: o[i] = b0.
func decodeMono8(r zerocopy.Reader, rows, cols int) (Matrix, error) {
	n := rows * cols
	b, err := r.Read(n)
	if err != nil && err != io.EOF {
		return Matrix{}, err
	}
	if len(b) < n {
		return Matrix{}, ErrShortBuffer{Want: n, Got: len(b)}
	}
	out := make([]uint8, n)
	copy(out, b)
	return Matrix{Rows: rows, Cols: cols, BitDepth: 8, U8: out}, nil
}

// decodeMono10 decodes a little-endian 2-byte pair per pixel:
// o[i] = ((b1 & 0x03) << 8) | b0. The upper 6 bits of b1 are ignored.
func decodeMono10(r zerocopy.Reader, rows, cols int) (Matrix, error) {
	return decodeUnpacked16(r, rows, cols, 0x03, 10)
}

// decodeMono12 decodes a little-endian 2-byte pair per pixel:
// o[i] = ((b1 & 0x0f) << 8) | b0. The upper nibble of b1 is ignored.
func decodeMono12(r zerocopy.Reader, rows, cols int) (Matrix, error) {
	return decodeUnpacked16(r, rows, cols, 0x0f, 12)
}

// decodeMono16 decodes a plain little-endian 2-byte pair per pixel:
// o[i] = (b1 << 8) | b0.
func decodeMono16(r zerocopy.Reader, rows, cols int) (Matrix, error) {
	return decodeUnpacked16(r, rows, cols, 0xff, 16)
}

func decodeUnpacked16(r zerocopy.Reader, rows, cols int, highMask uint16, depth BitDepth) (Matrix, error) {
	n := rows * cols
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		b, err := r.Read(2)
		if err != nil && err != io.EOF {
			return Matrix{}, err
		}
		if len(b) < 2 {
			return Matrix{}, ErrShortBuffer{Want: n * 2, Got: i * 2}
		}
		out[i] = (uint16(b[1])&highMask)<<8 | uint16(b[0])
	}
	return Matrix{Rows: rows, Cols: cols, BitDepth: depth, U16: out}, nil
}

// decodeMono10Packed decodes 3 bytes -> 2 pixels:
//
//	o[i]   = (b0 << 2) | (b1 & 0x03)
//	o[i+1] = (b2 << 2) | ((b1 & 0x30) >> 4)
func decodeMono10Packed(r zerocopy.Reader, rows, cols int) (Matrix, error) {
	return decodePacked(r, rows, cols, 10, func(b0, b1, b2 byte) (uint16, uint16) {
		p0 := uint16(b0)<<2 | uint16(b1&0x03)
		p1 := uint16(b2)<<2 | uint16((b1&0x30)>>4)
		return p0, p1
	})
}

// decodeMono12Packed decodes 3 bytes -> 2 pixels:
//
//	o[i]   = (b0 << 4) | (b1 & 0x0f)
//	o[i+1] = (b2 << 4) | ((b1 & 0xf0) >> 4)
func decodeMono12Packed(r zerocopy.Reader, rows, cols int) (Matrix, error) {
	return decodePacked(r, rows, cols, 12, func(b0, b1, b2 byte) (uint16, uint16) {
		p0 := uint16(b0)<<4 | uint16(b1&0x0f)
		p1 := uint16(b2)<<4 | uint16((b1&0xf0)>>4)
		return p0, p1
	})
}

func decodePacked(r zerocopy.Reader, rows, cols int, depth BitDepth, unpack func(b0, b1, b2 byte) (uint16, uint16)) (Matrix, error) {
	n := rows * cols
	if n%2 != 0 {
		return Matrix{}, ErrOddPixelCount{Rows: rows, Cols: cols}
	}
	out := make([]uint16, n)
	for i := 0; i < n; i += 2 {
		b, err := r.Read(3)
		if err != nil && err != io.EOF {
			return Matrix{}, err
		}
		if len(b) < 3 {
			return Matrix{}, ErrShortBuffer{Want: (n / 2) * 3, Got: (i / 2) * 3}
		}
		out[i], out[i+1] = unpack(b[0], b[1], b[2])
	}
	return Matrix{Rows: rows, Cols: cols, BitDepth: depth, U16: out}, nil
}
