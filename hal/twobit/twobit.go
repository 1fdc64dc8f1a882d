// Copyright © 2023-2026 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package twobit packs and unpacks DNA bases 4-to-a-byte. Unlike the
// on-disk 2bit codec it is adapted from, it has no file format of its
// own: packed bytes live directly inside a mmapstore allocation, sized
// and addressed by the caller (hal/genome).
package twobit

import "errors"

// ErrInvalidTwoBitData means the byte slice length is inconsistent with
// the claimed base count.
var ErrInvalidTwoBitData = errors.New("twobit: packed length does not match base count")

var base2bit = [256]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 1, 1, 0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0, 0,
	0, 0, 0, 1, 3, 3, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0,
	0, 0, 1, 1, 0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0, 0,
	0, 0, 0, 1, 3, 3, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

var bit2base = [4]byte{'A', 'C', 'G', 'T'}

// PackedLen returns the number of bytes needed to hold bases bases.
func PackedLen(bases int) int {
	return (bases + 3) / 4
}

// Pack encodes s into dst, which must be at least PackedLen(len(s))
// bytes. Lower-case bases pack like their upper-case forms; B, S and Y
// pack as 'C', K as 'G', U as 'T', and any other byte as 'A' (zero code),
// mirroring the teacher's codec.
func Pack(s []byte, dst []byte) {
	n := len(s) >> 2
	m := len(s) & 3

	var j int
	for i := 0; i < n; i++ {
		j = i << 2
		dst[i] = base2bit[s[j]]<<6 + base2bit[s[j+1]]<<4 + base2bit[s[j+2]]<<2 + base2bit[s[j+3]]
	}
	if m == 0 {
		return
	}
	j = n << 2
	switch m {
	case 3:
		dst[n] = base2bit[s[j]]<<6 + base2bit[s[j+1]]<<4 + base2bit[s[j+2]]<<2
	case 2:
		dst[n] = base2bit[s[j]]<<6 + base2bit[s[j+1]]<<4
	case 1:
		dst[n] = base2bit[s[j]] << 6
	}
}

// Unpack decodes bases bases from packed into dst, which must be at
// least bases bytes. packed must be at least PackedLen(bases) bytes.
func Unpack(packed []byte, bases int, dst []byte) error {
	if bases < 0 || len(packed) < PackedLen(bases) {
		return ErrInvalidTwoBitData
	}
	n := bases >> 2
	m := bases & 3
	var b byte
	var j int
	for i := 0; i < n; i++ {
		b = packed[i]
		j = i << 2
		dst[j+3] = bit2base[b&3]
		b >>= 2
		dst[j+2] = bit2base[b&3]
		b >>= 2
		dst[j+1] = bit2base[b&3]
		b >>= 2
		dst[j] = bit2base[b&3]
	}
	if m == 0 {
		return nil
	}
	b = packed[n]
	j = n << 2
	switch m {
	case 1:
		dst[j] = bit2base[b>>6&3]
	case 2:
		b >>= 4
		dst[j+1] = bit2base[b&3]
		b >>= 2
		dst[j] = bit2base[b&3]
	case 3:
		b >>= 2
		dst[j+2] = bit2base[b&3]
		b >>= 2
		dst[j+1] = bit2base[b&3]
		b >>= 2
		dst[j] = bit2base[b&3]
	}
	return nil
}

// UnpackRange decodes the bases in [start,start+length) of a totalBases-
// base packed sequence into dst. Since the packing is byte-aligned to
// groups of 4 bases, it unpacks the covering byte range and copies the
// requested sub-slice out, rather than bit-shifting a byte-unaligned
// window directly.
func UnpackRange(packed []byte, totalBases int, start, length int, dst []byte) error {
	if start < 0 || length < 0 || start+length > totalBases {
		return ErrInvalidTwoBitData
	}
	byteStart := start / 4
	byteEndExclusive := PackedLen(start + length)
	basesFromByteStart := byteStart * 4
	coveredBases := byteEndExclusive*4 - basesFromByteStart
	if coveredBases > totalBases-basesFromByteStart {
		coveredBases = totalBases - basesFromByteStart
	}
	buf := make([]byte, coveredBases)
	if err := Unpack(packed[byteStart:byteEndExclusive], coveredBases, buf); err != nil {
		return err
	}
	copy(dst, buf[start-basesFromByteStart:start-basesFromByteStart+length])
	return nil
}
