package bytecode

import (
	"fmt"
	"math"
	"unsafe"
)

// bufferInitialCap is the capacity of a buffer's first allocation.
const bufferInitialCap = 8

// Buffer is a growable contiguous store with amortized O(1) append and O(1)
// indexing. Capacity starts at 8 and doubles each time it is exhausted.
//
// The backing store is capped at math.MaxInt bytes. Growing past that, or
// failing to allocate, is fatal: Push panics rather than returning an error.
//
// The zero value is an empty buffer ready to use.
type Buffer[T any] struct {
	data []T

	// OnDrop, if set, is called exactly once for every element the buffer
	// releases, either by Release or by closing a BufferIter with unread
	// elements.
	OnDrop func(T)
}

// NewBuffer creates an empty buffer. The element type must have a non-zero
// size.
func NewBuffer[T any]() *Buffer[T] {
	checkElemSize[T]()
	return &Buffer[T]{}
}

func checkElemSize[T any]() uintptr {
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 {
		panic(fmt.Sprintf("bytecode: Buffer element type %T has zero size", zero))
	}
	return size
}

// Push appends v to the end of the buffer.
func (b *Buffer[T]) Push(v T) {
	if len(b.data) == cap(b.data) {
		b.grow()
	}
	b.data = append(b.data, v)
}

// grow doubles the capacity (or allocates the initial 8 slots).
func (b *Buffer[T]) grow() {
	size := checkElemSize[T]()
	maxCap := math.MaxInt / int(size)

	newCap := bufferInitialCap
	if c := cap(b.data); c > 0 {
		if c > maxCap/2 {
			panic(fmt.Sprintf("bytecode: Buffer capacity overflow growing past %d elements", c))
		}
		newCap = c * 2
	}

	data := make([]T, len(b.data), newCap)
	copy(data, b.data)
	b.data = data
}

// At returns the element at index i. Panics if i is out of range.
func (b *Buffer[T]) At(i int) T {
	return b.data[i]
}

// Set replaces the element at index i. Panics if i is out of range.
func (b *Buffer[T]) Set(i int, v T) {
	b.data[i] = v
}

// Last returns the final element, or false if the buffer is empty.
func (b *Buffer[T]) Last() (T, bool) {
	if len(b.data) == 0 {
		var zero T
		return zero, false
	}
	return b.data[len(b.data)-1], true
}

// Len returns the number of elements in the buffer.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Cap returns the number of elements the buffer can hold before growing.
func (b *Buffer[T]) Cap() int {
	return cap(b.data)
}

// Slice returns the elements as a slice sharing the buffer's storage.
// Callers must not modify it.
func (b *Buffer[T]) Slice() []T {
	return b.data
}

// Release drops every element (calling OnDrop for each) and frees the
// backing store. The buffer is empty and reusable afterwards.
func (b *Buffer[T]) Release() {
	dropAll(b.data, b.OnDrop)
	b.data = nil
}

// IntoIter moves the buffer's elements into a consuming iterator. The buffer
// is left empty.
func (b *Buffer[T]) IntoIter() *BufferIter[T] {
	it := &BufferIter[T]{data: b.data, onDrop: b.OnDrop}
	b.data = nil
	return it
}

func dropAll[T any](data []T, onDrop func(T)) {
	if onDrop != nil {
		for _, v := range data {
			onDrop(v)
		}
	}
	clear(data)
}

// BufferIter consumes a buffer's elements front to back. Each element is
// handed out once; Close releases whatever was never read.
type BufferIter[T any] struct {
	data   []T
	pos    int
	onDrop func(T)
}

// Next returns the next element, or false once the iterator is exhausted.
func (it *BufferIter[T]) Next() (T, bool) {
	var zero T
	if it.pos >= len(it.data) {
		return zero, false
	}
	v := it.data[it.pos]
	it.data[it.pos] = zero
	it.pos++
	return v, true
}

// Pos returns how many elements have been read so far.
func (it *BufferIter[T]) Pos() int {
	return it.pos
}

// Remaining returns the number of unread elements.
func (it *BufferIter[T]) Remaining() int {
	if it.data == nil {
		return 0
	}
	return len(it.data) - it.pos
}

// Close drops every unread element and frees the backing store. It is safe
// to call more than once.
func (it *BufferIter[T]) Close() {
	if it.data == nil {
		return
	}
	dropAll(it.data[it.pos:], it.onDrop)
	it.data = nil
}
