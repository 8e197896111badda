package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/taskmarket/x/market/types"
)

func TestDefaultParams(t *testing.T) {
	params := types.DefaultParams()

	require.NoError(t, params.Validate())
	require.Equal(t, "upaw", params.Denom)
	require.Equal(t, uint64(60), params.TimeoutMarginFactor)
	require.Equal(t, uint64(60), params.CompletionGraceSeconds)
	require.Zero(t, params.InvalidationProviderShareBps)
	require.Equal(t, uint32(3), params.MaxCommitRetries)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*types.Params)
		wantErr bool
	}{
		{"defaults", func(*types.Params) {}, false},
		{"full provider share", func(p *types.Params) { p.InvalidationProviderShareBps = types.BasisPoints }, false},
		{"no retries", func(p *types.Params) { p.MaxCommitRetries = 0 }, false},
		{"invalid denom", func(p *types.Params) { p.Denom = "1" }, true},
		{"empty denom", func(p *types.Params) { p.Denom = "" }, true},
		{"share above 100%", func(p *types.Params) { p.InvalidationProviderShareBps = types.BasisPoints + 1 }, true},
		{"zero bid bound", func(p *types.Params) { p.MaxBidsPerAuction = 0 }, true},
		{"zero sweep bound", func(p *types.Params) { p.MaxDeadlineSweep = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := types.DefaultParams()
			tt.modify(&params)
			err := params.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, types.ErrInvalidParams)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTaskTimeoutAt(t *testing.T) {
	activated := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	task := types.Task{ActivationTime: &activated, Duration: 10}

	require.Equal(t, activated.Add(10*time.Second), task.ExecutionDeadline())
	require.Equal(t, activated.Add(610*time.Second), task.TimeoutAt(types.DefaultParams()))
	require.True(t, types.Task{}.ExecutionDeadline().IsZero())
}

func TestTaskTimeoutAt_LongDurations(t *testing.T) {
	activated := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	params := types.DefaultParams()

	task := types.Task{ActivationTime: &activated, Duration: 200_000_000}
	require.Equal(t, activated.Add(200_000_000*time.Second), task.ExecutionDeadline())
	require.True(t, task.TimeoutAt(params).After(task.ExecutionDeadline()))
	require.Equal(t, task.ExecutionDeadline().Add(types.Seconds(types.MaxDurationSeconds)), task.TimeoutAt(params))

	require.Equal(t, 6_000_000_000*time.Second, params.TimeoutMargin(100_000_000))

	huge := types.Task{ActivationTime: &activated, Duration: ^uint64(0)}
	require.True(t, huge.ExecutionDeadline().After(activated))
	require.True(t, huge.TimeoutAt(params).After(huge.ExecutionDeadline()))
	require.Equal(t, types.Seconds(types.MaxDurationSeconds), types.Seconds(^uint64(0)))
}
