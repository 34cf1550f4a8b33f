package adapter

import "sync"

// shim accepts commands from any goroutine over a mutex-guarded FIFO and
// forwards them one at a time onto a loop-native channel that only the
// adapter's own worker goroutine reads from. This decouples callers from
// the requirement that the underlying client library's send operation
// only be invoked from its own cooperative loop thread (spec.md §4.1,
// §9 "Cross-runtime channel bridging") — the same shape as the teacher's
// sendChan-plus-writer-goroutine split in internal/client/websocket.go,
// generalized from a buffered channel to an unbounded queue since the
// command volume here has no natural backpressure point.
type shim struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Command
	closed bool

	out chan Command
}

func newShim() *shim {
	s := &shim{out: make(chan Command)}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// enqueue accepts a command from any goroutine. Never blocks past the
// internal mutex.
func (s *shim) enqueue(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, cmd)
	s.cond.Signal()
}

// run drains the queue onto the loop-native channel until Shutdown is
// enqueued or close is called. Must run in its own goroutine.
func (s *shim) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			close(s.out)
			return
		}
		cmd := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.out <- cmd
		if _, ok := cmd.(Shutdown); ok {
			s.close()
		}
	}
}

func (s *shim) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cond.Signal()
}
