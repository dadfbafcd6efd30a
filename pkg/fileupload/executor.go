package fileupload

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pyneda/upload-scanner/pkg/fileupload/vectors"
	"github.com/pyneda/upload-scanner/pkg/scan/control"
)

var ErrInvalidExecutor = errors.New("invalid executor configuration")

// Executor runs an ordered set of vectors against a single upload target.
type Executor struct {
	env     Env
	target  *Target
	vectors []*vectors.Vector
}

// NewExecutor validates its collaborators and vectors. A missing alert handler
// defaults to logging and a missing control to a fresh running one.
func NewExecutor(env Env, target *Target, attackVectors []*vectors.Vector) (*Executor, error) {
	if env.Sender == nil {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidExecutor)
	}
	if env.Locator == nil {
		return nil, fmt.Errorf("%w: locator is required", ErrInvalidExecutor)
	}
	if target == nil || target.Request == nil {
		return nil, fmt.Errorf("%w: target is required", ErrInvalidExecutor)
	}
	if len(attackVectors) == 0 {
		return nil, fmt.Errorf("%w: at least one vector is required", ErrInvalidExecutor)
	}
	for _, v := range attackVectors {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	if err := env.Options.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExecutor, err)
	}
	if env.Alerts == nil {
		env.Alerts = LogAlertHandler{}
	}
	if env.Control == nil {
		env.Control = control.New(env.Options.ScanID)
	}
	if env.Stats == nil {
		env.Stats = &Stats{}
	}
	return &Executor{env: env, target: target, vectors: attackVectors}, nil
}

func (e *Executor) Stats() *Stats {
	return e.env.Stats
}

func (e *Executor) Target() *Target {
	return e.target
}

// ExecuteAttack runs the vectors in order and reports whether any of them
// found a vulnerability. Unless SendRequestsAfterFinding is set it stops after
// the first success. A panicking vector is logged and treated as unsuccessful.
func (e *Executor) ExecuteAttack(ctx context.Context) bool {
	found := false
	for _, v := range e.vectors {
		if !e.env.Control.Checkpoint(ctx) {
			log.Info().Str("scan_id", e.env.Options.ScanID).Msg("File upload scan stopped")
			break
		}
		if !e.runVector(ctx, v) {
			continue
		}
		found = true
		if !e.env.Options.SendRequestsAfterFinding {
			break
		}
	}
	return found
}

func (e *Executor) runVector(ctx context.Context, v *vectors.Vector) (success bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("vector", v.Name).Str("field", e.target.FileField).Msg("File upload vector panicked")
			success = false
		}
	}()
	log.Debug().Str("vector", v.Name).Str("mode", e.env.Options.Mode.String()).Int("max_attempts", v.MaxAttempts(e.env.Options.Mode)).Msg("Running file upload vector")
	return RunVector(ctx, e.env, e.target, v)
}
