package fileupload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyneda/upload-scanner/pkg/fileupload/vectors"
	"github.com/pyneda/upload-scanner/pkg/scan/control"
	"github.com/pyneda/upload-scanner/pkg/scan/options"
)

func TestNewExecutorValidation(t *testing.T) {
	_, server := newUploadApp(t, nil, serveAll)
	env, _ := newTestEnv(t, server, options.ScanModeSmart)
	target := newTestTarget(t, server.URL)
	valid := []*vectors.Vector{stubVector("a", &countingMatcher{})}

	tests := []struct {
		name    string
		mutate  func(env *Env) (*Target, []*vectors.Vector)
		wantErr bool
	}{
		{"valid", func(env *Env) (*Target, []*vectors.Vector) { return target, valid }, false},
		{"missing sender", func(env *Env) (*Target, []*vectors.Vector) { env.Sender = nil; return target, valid }, true},
		{"missing locator", func(env *Env) (*Target, []*vectors.Vector) { env.Locator = nil; return target, valid }, true},
		{"missing target", func(env *Env) (*Target, []*vectors.Vector) { return nil, valid }, true},
		{"no vectors", func(env *Env) (*Target, []*vectors.Vector) { return target, nil }, true},
		{"invalid vector", func(env *Env) (*Target, []*vectors.Vector) { return target, []*vectors.Vector{{Name: "broken"}} }, true},
		{"invalid mode", func(env *Env) (*Target, []*vectors.Vector) { env.Options.Mode = "insane"; return target, valid }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := env
			tgt, vs := tt.mutate(&e)
			executor, err := NewExecutor(e, tgt, vs)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, executor)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, executor.Stats())
			assert.Equal(t, target, executor.Target())
		})
	}
}

func TestNewExecutorDefaults(t *testing.T) {
	_, server := newUploadApp(t, nil, serveAll)
	env, _ := newTestEnv(t, server, options.ScanModeSmart)
	env.Alerts = nil
	env.Stats = nil

	executor, err := NewExecutor(env, newTestTarget(t, server.URL), []*vectors.Vector{stubVector("a", &countingMatcher{})})
	require.NoError(t, err)
	assert.IsType(t, LogAlertHandler{}, executor.env.Alerts)
	require.NotNil(t, executor.env.Control)
	assert.Equal(t, "scan-test", executor.env.Control.ScanID())
	assert.NotNil(t, executor.Stats())
}

func TestExecuteAttackStopsAfterFirstSuccessfulVector(t *testing.T) {
	_, server := newUploadApp(t, nil, serveAll)
	env, alerts := newTestEnv(t, server, options.ScanModeSmart)
	first, second, third := &countingMatcher{}, &countingMatcher{result: true}, &countingMatcher{result: true}

	executor, err := NewExecutor(env, newTestTarget(t, server.URL), []*vectors.Vector{
		stubVector("first", first),
		stubVector("second", second),
		stubVector("third", third),
	})
	require.NoError(t, err)

	assert.True(t, executor.ExecuteAttack(context.Background()))
	assert.Equal(t, int32(1), first.calls.Load())
	assert.Equal(t, int32(1), second.calls.Load())
	assert.Zero(t, third.calls.Load(), "vectors after a finding must not run")
	require.Len(t, alerts.Alerts(), 1)
	assert.Equal(t, "second", alerts.Alerts()[0].Vector)
}

func TestExecuteAttackSendRequestsAfterFinding(t *testing.T) {
	_, server := newUploadApp(t, nil, serveAll)
	env, alerts := newTestEnv(t, server, options.ScanModeSmart)
	env.Options.SendRequestsAfterFinding = true
	first, second, third := &countingMatcher{}, &countingMatcher{result: true}, &countingMatcher{}

	executor, err := NewExecutor(env, newTestTarget(t, server.URL), []*vectors.Vector{
		stubVector("first", first),
		stubVector("second", second),
		stubVector("third", third),
	})
	require.NoError(t, err)

	assert.True(t, executor.ExecuteAttack(context.Background()))
	assert.Equal(t, int32(1), third.calls.Load())
	assert.Len(t, alerts.Alerts(), 1)
}

func TestExecuteAttackNothingFound(t *testing.T) {
	_, server := newUploadApp(t, nil, serveAll)
	env, alerts := newTestEnv(t, server, options.ScanModeSmart)
	matchers := []*countingMatcher{{}, {}, {}}

	executor, err := NewExecutor(env, newTestTarget(t, server.URL), []*vectors.Vector{
		stubVector("a", matchers[0]),
		stubVector("b", matchers[1]),
		stubVector("c", matchers[2]),
	})
	require.NoError(t, err)

	assert.False(t, executor.ExecuteAttack(context.Background()))
	for _, m := range matchers {
		assert.Equal(t, int32(1), m.calls.Load())
	}
	assert.Empty(t, alerts.Alerts())
	assert.Equal(t, int64(3), executor.Stats().Fetches.Load())
}

func TestExecuteAttackRecoversFromPanickingVector(t *testing.T) {
	_, server := newUploadApp(t, nil, serveAll)
	env, alerts := newTestEnv(t, server, options.ScanModeSmart)
	broken, working := &countingMatcher{panics: true}, &countingMatcher{result: true}

	executor, err := NewExecutor(env, newTestTarget(t, server.URL), []*vectors.Vector{
		stubVector("broken", broken),
		stubVector("working", working),
	})
	require.NoError(t, err)

	assert.True(t, executor.ExecuteAttack(context.Background()))
	assert.Equal(t, int32(1), broken.calls.Load())
	require.Len(t, alerts.Alerts(), 1)
	assert.Equal(t, "working", alerts.Alerts()[0].Vector)
}

func TestExecuteAttackTransportFailureDoesNotAbortSiblings(t *testing.T) {
	_, server := newUploadApp(t, nil, serveAll)
	env, _ := newTestEnv(t, server, options.ScanModeSmart)
	env.Sender = failingSender()
	first, second := &countingMatcher{result: true}, &countingMatcher{result: true}

	executor, err := NewExecutor(env, newTestTarget(t, server.URL), []*vectors.Vector{
		stubVector("first", first),
		stubVector("second", second),
	})
	require.NoError(t, err)

	assert.False(t, executor.ExecuteAttack(context.Background()))
	assert.Equal(t, int64(2), executor.Stats().Attempts.Load())
	assert.Equal(t, int64(2), executor.Stats().Failures.Load())
}

func TestExecuteAttackCancelled(t *testing.T) {
	app, server := newUploadApp(t, nil, serveAll)
	env, _ := newTestEnv(t, server, options.ScanModeSmart)
	env.Control = control.New("scan-test")
	env.Control.SetCancelled()
	m := &countingMatcher{result: true}

	executor, err := NewExecutor(env, newTestTarget(t, server.URL), []*vectors.Vector{stubVector("a", m)})
	require.NoError(t, err)

	assert.False(t, executor.ExecuteAttack(context.Background()))
	uploads, _ := app.counts()
	assert.Zero(t, uploads)
	assert.Zero(t, m.calls.Load())
}

func TestExecuteAttackContextCancelled(t *testing.T) {
	app, server := newUploadApp(t, nil, serveAll)
	env, _ := newTestEnv(t, server, options.ScanModeSmart)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor, err := NewExecutor(env, newTestTarget(t, server.URL), []*vectors.Vector{stubVector("a", &countingMatcher{result: true})})
	require.NoError(t, err)

	assert.False(t, executor.ExecuteAttack(ctx))
	uploads, _ := app.counts()
	assert.Zero(t, uploads)
}
