package audio

import "sync"

// Buffer is a bounded FIFO of interleaved int16 samples shared between the
// mixer, which pushes, and the output device, which pops. Pushes beyond the
// capacity are dropped.
type Buffer struct {
	mu   sync.Mutex
	data []int16
	head int
	n    int
}

func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]int16, capacity)}
}

// Push appends samples and returns how many were accepted.
func (b *Buffer) Push(samples ...int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	accepted := 0
	for _, s := range samples {
		if b.n == len(b.data) {
			break
		}
		b.data[(b.head+b.n)%len(b.data)] = s
		b.n++
		accepted++
	}
	return accepted
}

// Pop removes the oldest sample. ok is false when the buffer is empty.
func (b *Buffer) Pop() (s int16, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.n == 0 {
		return 0, false
	}
	s = b.data[b.head]
	b.head = (b.head + 1) % len(b.data)
	b.n--
	return s, true
}

// PopInto fills dst with the oldest samples, writing zeros past the end of
// the buffered data. It returns the number of real samples copied.
func (b *Buffer) PopInto(dst []int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	copied := 0
	for i := range dst {
		if b.n == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = b.data[b.head]
		b.head = (b.head + 1) % len(b.data)
		b.n--
		copied++
	}
	return copied
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

func (b *Buffer) Cap() int { return len(b.data) }

func (b *Buffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data) - b.n
}
