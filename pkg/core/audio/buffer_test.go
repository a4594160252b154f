package audio

import (
	"bytes"
	"sync"
	"testing"
)

func TestBuffer_AppendPreservesOrder(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte("one"))
	b.Append([]byte("two"))
	b.Append([]byte("three"))

	got := b.Bytes()
	want := []byte("onetwothree")
	if !bytes.Equal(got, want) {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
	if b.ChunkCount() != 3 {
		t.Fatalf("ChunkCount() = %d, want 3", b.ChunkCount())
	}
}

func TestBuffer_AppendCopies(t *testing.T) {
	b := NewBuffer()
	chunk := []byte("abc")
	b.Append(chunk)
	chunk[0] = 'z'

	if got := b.Bytes(); !bytes.Equal(got, []byte("abc")) {
		t.Fatalf("Bytes() = %q, caller mutation leaked into buffer", got)
	}
}

func TestBuffer_ClearThenBytes(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte("chunk"))
	b.Clear()

	got := b.Bytes()
	if got == nil {
		t.Fatal("Bytes() after Clear returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Fatalf("Bytes() after Clear = %q, want empty", got)
	}
	if b.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", b.Len())
	}
}

func TestBuffer_EmptyChunkCounted(t *testing.T) {
	b := NewBuffer()
	b.Append(nil)
	b.Append([]byte{})

	if b.ChunkCount() != 2 {
		t.Fatalf("ChunkCount() = %d, want 2", b.ChunkCount())
	}
	if b.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", b.Len())
	}
}

func TestBuffer_NilReceiver(t *testing.T) {
	var b *Buffer
	b.Append([]byte("x"))
	b.Clear()
	if got := b.Bytes(); len(got) != 0 {
		t.Fatalf("nil buffer Bytes() = %q, want empty", got)
	}
	if b.Len() != 0 || b.ChunkCount() != 0 {
		t.Fatal("nil buffer should report zero length and chunk count")
	}
}

func TestBuffer_ConcurrentAppendAndClear(t *testing.T) {
	b := NewBuffer()
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			b.Append([]byte{byte(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			b.Clear()
			_ = b.Bytes()
		}
	}()
	wg.Wait()

	if got, n := b.Bytes(), b.Len(); len(got) != n {
		t.Fatalf("Bytes() length %d disagrees with Len() %d", len(got), n)
	}
}
