package session

import (
	"errors"
	"sync"
)

// ErrRequestPending is returned when a new request arrives while one of the
// same kind is still in flight. Requests are single-flight: the caller must
// wait for the pending one to resolve and resubmit.
var ErrRequestPending = errors.New("a request is already in flight")

type flightState int

const (
	flightIdle flightState = iota
	flightPending
	flightSucceeded
	flightFailed
)

// flight is a single-flight guard: at most one in-flight request of a given
// kind at a time. It replaces the original UI's reliance on disabling the
// submit control while a request is pending.
type flight struct {
	mu    sync.Mutex
	state flightState
}

// begin transitions to Pending, or reports ErrRequestPending if a request
// is already in flight.
func (f *flight) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == flightPending {
		return ErrRequestPending
	}
	f.state = flightPending
	return nil
}

// finish records the terminal state of the in-flight request.
func (f *flight) finish(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ok {
		f.state = flightSucceeded
	} else {
		f.state = flightFailed
	}
}
