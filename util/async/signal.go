package async

import (
	"sync"
	"time"
)

// One-time signal, once notified, it stays notified.
type SignalOnce struct {
	ch   chan struct{}
	once sync.Once
}

func NewSignalOnce() *SignalOnce {
	return &SignalOnce{ch: make(chan struct{})}
}

// Notify all waiters, calling Notify more than once is a no-op.
func (s *SignalOnce) Notify() {
	s.once.Do(func() { close(s.ch) })
}

func (s *SignalOnce) Closed() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Channel that is closed once notified.
func (s *SignalOnce) Done() <-chan struct{} {
	return s.ch
}

func (s *SignalOnce) Wait() {
	<-s.ch
}

// Wait until notified or timeout, a timeout less than 1 waits indefinitely.
func (s *SignalOnce) TimedWait(timeout time.Duration) (isTimeout bool) {
	if timeout < 1 {
		<-s.ch
		return false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.ch:
		return false
	case <-timer.C:
		return true
	}
}
