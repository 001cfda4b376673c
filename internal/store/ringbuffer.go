package store

import "github.com/mmuslimabdulj/chat2k/internal/domain"

// RingBuffer is a fixed-size circular buffer of chat messages
type RingBuffer struct {
	data []domain.ChatMessage
	head int // next write position
	size int
	cap  int
}

// NewRingBuffer creates a new ring buffer with the given capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{
		data: make([]domain.ChatMessage, capacity),
		cap:  capacity,
	}
}

// Add appends a message, overwriting the oldest if full
func (rb *RingBuffer) Add(msg domain.ChatMessage) {
	rb.data[rb.head] = msg
	rb.head = (rb.head + 1) % rb.cap
	if rb.size < rb.cap {
		rb.size++
	}
}

// Newest returns up to n messages, newest first
func (rb *RingBuffer) Newest(n int) []domain.ChatMessage {
	if n > rb.size {
		n = rb.size
	}
	if n <= 0 {
		return nil
	}
	result := make([]domain.ChatMessage, 0, n)
	idx := rb.head
	for i := 0; i < n; i++ {
		idx = (idx - 1 + rb.cap) % rb.cap
		result = append(result, rb.data[idx])
	}
	return result
}

// Len returns the current number of elements
func (rb *RingBuffer) Len() int {
	return rb.size
}

// Clear removes all elements from the buffer
func (rb *RingBuffer) Clear() {
	rb.head = 0
	rb.size = 0
	for i := range rb.data {
		rb.data[i] = domain.ChatMessage{}
	}
}
