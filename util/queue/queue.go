package queue

import "container/list"

// Unbounded FIFO queue backed by container/list.
//
// Queue is not thread-safe, callers must hold their own lock.
type Queue[T any] struct {
	l *list.List
}

func New[T any]() *Queue[T] {
	return &Queue[T]{
		l: list.New(),
	}
}

// Remove and return the oldest element.
//
// ok is false if the queue is empty.
func (q *Queue[T]) PopFront() (t T, ok bool) {
	f := q.l.Front()
	if f == nil {
		return t, false
	}
	q.l.Remove(f)
	return f.Value.(T), true
}

// Return the oldest element without removing it.
func (q *Queue[T]) PeekFront() (t T, ok bool) {
	f := q.l.Front()
	if f == nil {
		return t, false
	}
	return f.Value.(T), true
}

func (q *Queue[T]) PushBack(t T) {
	q.l.PushBack(t)
}

func (q *Queue[T]) Len() int {
	return q.l.Len()
}

func (q *Queue[T]) IsEmpty() bool {
	return q.l.Len() < 1
}

// Copy elements in FIFO order.
func (q *Queue[T]) Slice() []T {
	s := make([]T, 0, q.l.Len())
	for e := q.l.Front(); e != nil; e = e.Next() {
		s = append(s, e.Value.(T))
	}
	return s
}
