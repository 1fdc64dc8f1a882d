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

package genome

import (
	"encoding/binary"

	"github.com/halgenome/hal/hal/segment"
)

// Fixed-width, native-endian on-disk layouts for the two segment
// flavors, matching spec.md §3's "native-endian, no cross-endian
// portability" mmap requirement (hal/mmapstore uses the same
// binary.NativeEndian convention, a deliberate departure from the
// big-endian convention used elsewhere in this codebase's ancestry for
// files meant to be portable across machines).
var ne = binary.NativeEndian

// topRecordSize is the fixed byte size of one top segment record:
// start(8) + length(8) + parentIndex(8) + reversed(8, padded) +
// nextParalogyIndex(8) + bottomParseIndex(8).
const topRecordSize = 48

// bottomHeaderSize is the fixed prefix of one bottom segment record:
// start(8) + length(8) + topParseIndex(8) + numChildSlots(8).
const bottomHeaderSize = 32

// bottomSlotSize is the per-child-slot suffix: topIndex(8) + reversed(8,
// padded).
const bottomSlotSize = 16

// bottomRecordSize returns the full record size for a genome with
// numChildren children.
func bottomRecordSize(numChildren int) int {
	return bottomHeaderSize + numChildren*bottomSlotSize
}

func encodeTop(buf []byte, s segment.TopSegment) {
	ne.PutUint64(buf[0:], uint64(s.Start))
	ne.PutUint64(buf[8:], s.Length)
	ne.PutUint64(buf[16:], uint64(s.ParentIndex))
	if s.Reversed {
		ne.PutUint64(buf[24:], 1)
	} else {
		ne.PutUint64(buf[24:], 0)
	}
	ne.PutUint64(buf[32:], uint64(s.NextParalogyIndex))
	ne.PutUint64(buf[40:], uint64(s.BottomParseIndex))
}

func decodeTop(buf []byte) segment.TopSegment {
	return segment.TopSegment{
		Start:             int64(ne.Uint64(buf[0:])),
		Length:            ne.Uint64(buf[8:]),
		ParentIndex:       int64(ne.Uint64(buf[16:])),
		Reversed:          ne.Uint64(buf[24:]) != 0,
		NextParalogyIndex: int64(ne.Uint64(buf[32:])),
		BottomParseIndex:  int64(ne.Uint64(buf[40:])),
	}
}

func encodeBottom(buf []byte, s segment.BottomSegment) {
	ne.PutUint64(buf[0:], uint64(s.Start))
	ne.PutUint64(buf[8:], s.Length)
	ne.PutUint64(buf[16:], uint64(s.TopParseIndex))
	ne.PutUint64(buf[24:], uint64(len(s.ChildSlots)))
	for i, slot := range s.ChildSlots {
		off := bottomHeaderSize + i*bottomSlotSize
		ne.PutUint64(buf[off:], uint64(slot.TopIndex))
		if slot.Reversed {
			ne.PutUint64(buf[off+8:], 1)
		} else {
			ne.PutUint64(buf[off+8:], 0)
		}
	}
}

func decodeBottom(buf []byte) segment.BottomSegment {
	numChildren := int(ne.Uint64(buf[24:]))
	slots := make([]segment.ChildSlot, numChildren)
	for i := range slots {
		off := bottomHeaderSize + i*bottomSlotSize
		slots[i] = segment.ChildSlot{
			TopIndex: int64(ne.Uint64(buf[off:])),
			Reversed: ne.Uint64(buf[off+8:]) != 0,
		}
	}
	return segment.BottomSegment{
		Start:         int64(ne.Uint64(buf[0:])),
		Length:        ne.Uint64(buf[8:]),
		TopParseIndex: int64(ne.Uint64(buf[16:])),
		ChildSlots:    slots,
	}
}
