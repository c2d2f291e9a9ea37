package batch

import "unsafe"

// Interleaved attribute record: position x, position y, UV x, UV y, packed
// ARGB color, sampler unit as float. One machine word per lane.
const (
	wordsPerVertex = 6
	vertexStride   = wordsPerVertex * 4 // bytes
)

// Minimum scratch buffer granules, enough for two quads each.
const (
	minAttributeWords = 8 * wordsPerVertex
	minIndexCount     = 12
)

// bufferPool hands out scratch buffers keyed by the smallest power-of-two
// size class covering the requested capacity. Blocks are cached permanently
// on first allocation and returned as-is on later hits; callers always
// overwrite before reading, so contents are never cleared. Only release
// frees the cache.
type bufferPool struct {
	attributes [32][]uint32
	indices    [32][]uint16
}

// attributeBuffer returns a scratch attribute buffer of at least n words.
func (p *bufferPool) attributeBuffer(n int) []uint32 {
	if n < minAttributeWords {
		n = minAttributeWords
	}
	i := log2(nextPow2(n))
	if p.attributes[i] == nil {
		p.attributes[i] = make([]uint32, 1<<i)
	}
	return p.attributes[i]
}

// indexBuffer returns a scratch index buffer of at least n indices.
func (p *bufferPool) indexBuffer(n int) []uint16 {
	if n < minIndexCount {
		n = minIndexCount
	}
	i := log2(nextPow2(n))
	if p.indices[i] == nil {
		p.indices[i] = make([]uint16, 1<<i)
	}
	return p.indices[i]
}

func (p *bufferPool) release() {
	for i := range p.attributes {
		p.attributes[i] = nil
		p.indices[i] = nil
	}
}

// asBytes views w as raw little-endian bytes for buffer upload.
func asBytes(w []uint32) []byte {
	if len(w) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&w[0])), len(w)*4)
}

// nextPow2 returns the smallest power of two >= v.
func nextPow2(v int) int {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	return v + 1
}

// log2 returns floor(log2(v)) for v > 0.
func log2(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
