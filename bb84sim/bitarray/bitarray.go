// Package bitarray provides densely-packed arrays of bits and the small F_2
// toolkit the simulation pipeline is built on.
package bitarray

import (
	"fmt"
	"math/bits"
	"math/rand"
	"strings"
)

const blockSize = 8

// A Dense is a bit array where every bit is explicitly represented. Bit i of
// the array is bit i%8 of byte i/8.
type Dense struct {
	bits []byte
	len  int
}

// NewDense returns a new Dense whose data is a copy of data and whose length
// is bitLen. If bitLen is longer than data, trailing zeros are added. If
// bitLen is negative, it is inferred from data.
func NewDense(data []byte, bitLen int) Dense {
	if bitLen < 0 {
		bitLen = len(data) * blockSize
	}
	buf := make([]byte, BytesFor(bitLen))
	copy(buf, data)
	d := Dense{bits: buf, len: bitLen}
	d.clip()
	return d
}

// Empty returns an empty, dense bit array.
func Empty() Dense {
	return Dense{}
}

// FromString converts a string of '1's and '0's to a Dense. Spaces are
// ignored, so callers can group bits for readability.
func FromString(s string) (Dense, error) {
	d := Dense{}
	for _, c := range s {
		switch c {
		case '1':
			d.AppendBit(true)
		case '0':
			d.AppendBit(false)
		case ' ':
			continue
		default:
			return Dense{}, fmt.Errorf("parsing bit array: unexpected character %q", c)
		}
	}
	return d, nil
}

// BytesFor returns the number of bytes necessary to hold the given number of
// bits.
func BytesFor(bits int) int {
	return (bits + blockSize - 1) / blockSize
}

// Size returns the number of bits in d.
func (d Dense) Size() int {
	return d.len
}

// ByteSize returns the number of bytes necessary to represent d.
func (d Dense) ByteSize() int {
	return BytesFor(d.len)
}

// Data returns a copy of the bytes underlying d.
func (d Dense) Data() []byte {
	data := make([]byte, len(d.bits))
	copy(data, d.bits)
	return data
}

// Get returns the bit at idx. Bits past the end of d read as zero.
func (d Dense) Get(idx int) bool {
	if idx >= d.len {
		return false
	}
	return 0 < d.bits[idx/blockSize]&(1<<(idx%blockSize))
}

// AppendBit adds a single bit to the end of d.
func (d *Dense) AppendBit(bit bool) {
	pos := d.len % blockSize
	d.len++
	if pos == 0 {
		d.bits = append(d.bits, 0)
	}
	if bit {
		d.bits[len(d.bits)-1] |= 1 << pos
	}
}

// Flip inverts the bit at idx, which must be less than Size.
func (d *Dense) Flip(idx int) {
	d.bits[idx/blockSize] ^= 1 << (idx % blockSize)
}

// And computes a bitwise AND between d and other. The result is as long as
// the shorter of the two.
func (d Dense) And(other Dense) Dense {
	n := d.len
	if other.len < n {
		n = other.len
	}
	r := Dense{bits: make([]byte, BytesFor(n)), len: n}
	for i := range r.bits {
		r.bits[i] = d.bits[i] & other.bits[i]
	}
	r.clip()
	return r
}

// XOr computes a bitwise XOR between d and other. If one of the two is
// shorter than the other, trailing 0s are implicitly added to make the sizes
// match.
func (d Dense) XOr(other Dense) Dense {
	short, long := d, other
	if other.len < d.len {
		short, long = other, d
	}
	r := Dense{bits: make([]byte, BytesFor(long.len)), len: long.len}
	for i := range short.bits {
		r.bits[i] = short.bits[i] ^ long.bits[i]
	}
	copy(r.bits[len(short.bits):], long.bits[len(short.bits):])
	r.clip()
	return r
}

// XNor computes a bitwise equality operation between d and other. If one of
// the two is shorter than the other, trailing 0s are implicitly added to make
// the sizes match.
func (d Dense) XNor(other Dense) Dense {
	r := d.XOr(other)
	for i := range r.bits {
		r.bits[i] = ^r.bits[i]
	}
	r.clip()
	return r
}

// Parity returns the overall parity of d, with true corresponding to 1 and
// false to 0.
func (d Dense) Parity() bool {
	var sum byte
	for _, b := range d.bits {
		sum ^= b
	}
	return bits.OnesCount8(sum)%2 == 1
}

// CountOnes returns the total number of bits set in d.
func (d Dense) CountOnes() int {
	var sum int
	for _, b := range d.bits {
		sum += bits.OnesCount8(b)
	}
	return sum
}

// Select selects the subset of bits from d at positions where mask is set,
// preserving their relative order.
func (d Dense) Select(mask Dense) Dense {
	var r Dense
	for i := 0; i < d.len; i++ {
		if !mask.Get(i) {
			continue
		}
		r.AppendBit(d.Get(i))
	}
	return r
}

// Slice returns a copy of bits [start, end).
func (d Dense) Slice(start, end int) (Dense, error) {
	if start < 0 {
		return Dense{}, fmt.Errorf("slicing bit array with negative start: %d", start)
	}
	if end < start {
		return Dense{}, fmt.Errorf("slicing bit array to negative length: %d", end-start)
	}
	if end > d.len {
		return Dense{}, fmt.Errorf("slicing bit array of len %d up to %d", d.len, end)
	}
	var r Dense
	for i := start; i < end; i++ {
		r.AppendBit(d.Get(i))
	}
	return r, nil
}

// Shuffle randomly permutes the contents of d, using r as a source of
// randomness.
func (d *Dense) Shuffle(r *rand.Rand) {
	r.Shuffle(d.len, d.swap)
}

// Equal reports whether d and other have identical lengths and contents.
func (d Dense) Equal(other Dense) bool {
	if d.len != other.len {
		return false
	}
	for i := range d.bits {
		if d.bits[i] != other.bits[i] {
			return false
		}
	}
	return true
}

// String renders d as its canonical string of '0's and '1's, bit 0 first.
func (d Dense) String() string {
	var sb strings.Builder
	sb.Grow(d.len)
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (d *Dense) swap(i, j int) {
	a, b := d.Get(i), d.Get(j)
	if a == b {
		return
	}
	d.Flip(i)
	d.Flip(j)
}

// clip zeroes the unused high bits of the final byte, so that byte-wise
// operations like Parity and Equal see only live bits.
func (d *Dense) clip() {
	if rem := d.len % blockSize; rem != 0 && len(d.bits) > 0 {
		d.bits[len(d.bits)-1] &= byte(1<<rem) - 1
	}
}
