package control

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry manages in-memory ScanControl instances.
// It provides centralized control over all active scans.
type Registry struct {
	mu       sync.RWMutex
	controls map[string]*ScanControl
}

// NewRegistry creates a new control registry
func NewRegistry() *Registry {
	return &Registry{
		controls: make(map[string]*ScanControl),
	}
}

// Register creates and registers a new ScanControl for a scan
func (r *Registry) Register(scanID string) *ScanControl {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctrl, exists := r.controls[scanID]; exists {
		return ctrl
	}

	ctrl := New(scanID)
	r.controls[scanID] = ctrl
	log.Debug().Str("scan_id", scanID).Msg("Registered scan control")
	return ctrl
}

// Get returns the ScanControl for a scan, or nil if not found
func (r *Registry) Get(scanID string) *ScanControl {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.controls[scanID]
}

// Unregister removes a scan control from the registry
func (r *Registry) Unregister(scanID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.controls, scanID)
}

// Count returns the number of registered controls
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.controls)
}

func (r *Registry) each(fn func(*ScanControl)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ctrl := range r.controls {
		fn(ctrl)
	}
}

// PauseAll pauses every registered scan
func (r *Registry) PauseAll() {
	r.each(func(ctrl *ScanControl) { ctrl.SetPaused() })
}

// ResumeAll resumes every paused scan
func (r *Registry) ResumeAll() {
	r.each(func(ctrl *ScanControl) { ctrl.SetRunning() })
}

// CancelAll cancels every registered scan
func (r *Registry) CancelAll() {
	r.each(func(ctrl *ScanControl) { ctrl.SetCancelled() })
}

// TogglePause pauses every scan when any of them is running and resumes them otherwise.
// It returns true when scans were paused.
func (r *Registry) TogglePause() bool {
	anyRunning := false
	r.each(func(ctrl *ScanControl) {
		if ctrl.IsRunning() {
			anyRunning = true
		}
	})
	if anyRunning {
		r.PauseAll()
	} else {
		r.ResumeAll()
	}
	return anyRunning
}
