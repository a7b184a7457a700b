// Copyright 2026 The Learningbuilding Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"context"
	"sync"
)

// QueueCapacity is the number of frames buffered between the camera and the
// display.
const QueueCapacity = 21

// FrameQueue is a fixed capacity FIFO of processed frames.
//
// Push blocks when full so a slow display stalls the camera's delivery
// goroutine instead of silently losing frames.
type FrameQueue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	buf      []*ProcessedFrame // ring
	head     int
	n        int
	closed   bool
}

// NewFrameQueue returns a queue holding up to capacity frames. capacity <= 0
// selects QueueCapacity.
func NewFrameQueue(capacity int) *FrameQueue {
	if capacity <= 0 {
		capacity = QueueCapacity
	}
	q := &FrameQueue{buf: make([]*ProcessedFrame, capacity)}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Cap returns the queue capacity.
func (q *FrameQueue) Cap() int {
	return len(q.buf)
}

// Len returns the number of queued frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Push appends f, waiting for room if the queue is full.
//
// It returns ctx.Err() if ctx is done first, or ErrQueueClosed.
func (q *FrameQueue) Push(ctx context.Context, f *ProcessedFrame) error {
	stop := context.AfterFunc(ctx, q.wakeAll)
	defer stop()
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.n == len(q.buf) && !q.closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.notFull.Wait()
	}
	if q.closed {
		return ErrQueueClosed
	}
	q.buf[(q.head+q.n)%len(q.buf)] = f
	q.n++
	q.notEmpty.Broadcast()
	return nil
}

// Pop removes the oldest frame, waiting for one if the queue is empty.
//
// Frames still queued when the queue is closed are returned before
// ErrQueueClosed.
func (q *FrameQueue) Pop(ctx context.Context) (*ProcessedFrame, error) {
	stop := context.AfterFunc(ctx, q.wakeAll)
	defer stop()
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.n == 0 && !q.closed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.notEmpty.Wait()
	}
	if q.n == 0 {
		return nil, ErrQueueClosed
	}
	return q.popLocked(), nil
}

// TryPop removes the oldest frame if there is one. It never blocks.
func (q *FrameQueue) TryPop() (*ProcessedFrame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n == 0 {
		return nil, false
	}
	return q.popLocked(), true
}

// Close wakes up all blocked callers. Later pushes fail with ErrQueueClosed.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wakeAll()
}

func (q *FrameQueue) popLocked() *ProcessedFrame {
	f := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	q.notFull.Broadcast()
	return f
}

func (q *FrameQueue) wakeAll() {
	// Taking the lock guarantees a waiter between its ctx check and Wait() is
	// not missed.
	q.mu.Lock()
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
	q.mu.Unlock()
}
