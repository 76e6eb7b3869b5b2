package surface

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Mutations run on a single writer goroutine so the song graph never
// sees concurrent writers, mirroring how the host schedules changes on
// its main thread.

// completionTimeout bounds how long a connection waits for the writer
// loop to pick up and finish a mutation.
const completionTimeout = 10 * time.Second

// ErrOperationTimeout is sent to clients when a mutation does not
// complete in time. The message is part of the wire contract.
var ErrOperationTimeout = errors.New("Timeout waiting for operation to complete")

type taskResult struct {
	value any
	err   error
}

type task struct {
	run  func() (any, error)
	done chan taskResult
}

// writerLoop drains scheduled mutations until the context is canceled.
func (s *Server) writerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.tasks:
			value, err := s.runProtected(t.run)
			t.done <- taskResult{value: value, err: err}
		}
	}
}

// runProtected executes fn and converts a panic into an error envelope,
// so a faulty handler cannot kill the writer loop or a connection
// goroutine.
func (s *Server) runProtected(fn func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "panic", r)
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return fn()
}

// schedule hands a mutation to the writer loop and waits for it.
func (s *Server) schedule(ctx context.Context, run func() (any, error)) (any, error) {
	t := task{run: run, done: make(chan taskResult, 1)}

	timer := time.NewTimer(completionTimeout)
	defer timer.Stop()

	select {
	case s.tasks <- t:
	case <-timer.C:
		return nil, ErrOperationTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-t.done:
		return res.value, res.err
	case <-timer.C:
		return nil, ErrOperationTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
