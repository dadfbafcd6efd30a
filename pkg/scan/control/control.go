// Package control provides in-memory state management for scan pause/resume/cancel operations.
// Workers call Checkpoint between units of work; a paused scan blocks there until it is
// resumed or cancelled, without polling.
package control

import (
	"context"
	"sync"
)

// State represents the current state of a scan
type State int

const (
	StateRunning State = iota
	StatePaused
	StateCancelled
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ScanControl manages pause/resume/cancel state for a scan.
// It is safe for concurrent use by multiple goroutines.
type ScanControl struct {
	scanID string
	mu     sync.Mutex
	state  State

	// resumed is closed when a paused scan is resumed
	resumed chan struct{}

	// ctx is cancelled when the scan is cancelled
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new ScanControl in running state
func New(scanID string) *ScanControl {
	ctx, cancel := context.WithCancel(context.Background())
	return &ScanControl{
		scanID: scanID,
		state:  StateRunning,
		ctx:    ctx,
		cancel: cancel,
	}
}

// NewWithState creates ScanControl with an initial state
func NewWithState(scanID string, state State) *ScanControl {
	sc := New(scanID)
	switch state {
	case StatePaused:
		sc.SetPaused()
	case StateCancelled:
		sc.SetCancelled()
	}
	return sc
}

// ScanID returns the scan ID this control is managing
func (sc *ScanControl) ScanID() string {
	return sc.scanID
}

// Context returns the context that is cancelled when the scan is cancelled.
// Use this context for HTTP requests and other cancellable operations.
func (sc *ScanControl) Context() context.Context {
	return sc.ctx
}

// State returns current state
func (sc *ScanControl) State() State {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state
}

// SetPaused transitions to paused state
func (sc *ScanControl) SetPaused() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.state != StateRunning {
		return
	}
	sc.state = StatePaused
	sc.resumed = make(chan struct{})
}

// SetRunning transitions to running state (unblocks paused workers)
func (sc *ScanControl) SetRunning() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.state != StatePaused {
		return
	}
	sc.state = StateRunning
	close(sc.resumed)
	sc.resumed = nil
}

// SetCancelled transitions to cancelled state
func (sc *ScanControl) SetCancelled() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.state == StateCancelled {
		return
	}
	sc.state = StateCancelled
	// Waiting workers observe the cancelled context and exit
	sc.cancel()
}

// Checkpoint blocks while the scan is paused and reports whether work should
// continue. It returns false once the scan or ctx is cancelled.
//
// Example usage:
//
//	for _, mutation := range mutations {
//	    if !ctrl.Checkpoint(ctx) {
//	        return
//	    }
//	    attempt(mutation)
//	}
func (sc *ScanControl) Checkpoint(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		sc.mu.Lock()
		state, resumed := sc.state, sc.resumed
		sc.mu.Unlock()

		switch state {
		case StateRunning:
			return true
		case StateCancelled:
			return false
		}

		select {
		case <-resumed:
		case <-sc.ctx.Done():
			return false
		case <-ctx.Done():
			return false
		}
	}
}

// IsCancelled returns true if the scan has been cancelled
func (sc *ScanControl) IsCancelled() bool {
	return sc.State() == StateCancelled
}

// IsPaused returns true if the scan is paused
func (sc *ScanControl) IsPaused() bool {
	return sc.State() == StatePaused
}

// IsRunning returns true if the scan is running
func (sc *ScanControl) IsRunning() bool {
	return sc.State() == StateRunning
}
