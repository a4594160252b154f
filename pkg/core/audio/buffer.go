// Package audio holds captured audio for deferred playback.
package audio

import "sync"

// Buffer accumulates opaque audio chunks in arrival order. Chunks are only
// ever appended or dropped all at once; there is no per-chunk removal.
//
// The recorder callback appends from the media goroutine while the
// interpreter reads and clears from the event loop, so all access is
// mutex-guarded.
type Buffer struct {
	mu     sync.Mutex
	chunks [][]byte
	size   int
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append copies chunk onto the end of the buffer. Empty chunks are kept so
// chunk counts stay faithful to what the recorder delivered.
func (b *Buffer) Append(chunk []byte) {
	if b == nil {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)

	b.mu.Lock()
	b.chunks = append(b.chunks, c)
	b.size += len(c)
	b.mu.Unlock()
}

// Clear drops every accumulated chunk as a unit.
func (b *Buffer) Clear() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.chunks = nil
	b.size = 0
	b.mu.Unlock()
}

// Bytes materializes the accumulated chunks into a single blob in insertion
// order. An empty buffer yields a non-nil zero-length slice, which remains a
// valid playback source.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return []byte{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	return out
}

// Len reports the total byte length of the accumulated chunks.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// ChunkCount reports how many chunks have been appended since the last clear.
func (b *Buffer) ChunkCount() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}
