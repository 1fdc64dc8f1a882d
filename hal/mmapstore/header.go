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

// Package mmapstore is the mapped store: a single memory-mapped file
// holding a header, genomes, sequences and segment tables, addressed by
// byte offsets.
package mmapstore

// Format is the fixed 32-byte format tag written at file offset 0.
var Format = [32]byte{'h', 'a', 'l', '-', 'g', 'o', '-', 'm', 'm', 'a', 'p'}

// ApiVersion is the dotted mmap-store API version of this implementation.
var ApiVersion = [32]byte{'1', '.', '1'}

// MajorVersion and MinorVersion are the numeric components of ApiVersion.
// Only MajorVersion must match between file and implementation; minors may
// drift.
const (
	MajorVersion = 1
	MinorVersion = 1
)

// NullOffset is the sentinel meaning "no object" (the header itself lives
// at offset 0, so no real allocation is ever returned at that offset).
const NullOffset uint64 = 0

// WordSize is the allocation alignment granularity.
const WordSize = 8

// Header field byte offsets within the mapped file. Kept as named
// constants rather than a Go struct overlaid via unsafe, so that
// HeaderSize and every field width are explicit and reviewable.
const (
	offFormat      = 0
	lenFormat      = 32
	offMmapVersion = offFormat + lenFormat
	lenMmapVersion = 32
	offHalVersion  = offMmapVersion + lenMmapVersion
	lenHalVersion  = 32
	offNextOffset  = offHalVersion + lenHalVersion
	offRootOffset  = offNextOffset + 8
	offDirty       = offRootOffset + 8
	offReserved    = offDirty + 1
	lenReserved    = 256

	// HeaderSize is the total fixed-size prefix reserved for the header:
	// offReserved+lenReserved (369 bytes) rounded up to WordSize.
	HeaderSize = 376
)

// DefaultPayloadVersion is the schema-family string ("halVersion" in the spec)
// written by callers that build a store; mmapstore itself is agnostic to
// its contents.
const DefaultPayloadVersion = "hal-go-1.0"
