package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWindowSize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantSize  time.Duration
		wantDays  float64
		wantError bool
	}{
		{name: "default window", input: DefaultVelocityWindow, wantSize: 30 * 24 * time.Hour, wantDays: 30},
		{name: "days suffix", input: "7d", wantSize: 7 * 24 * time.Hour, wantDays: 7},
		{name: "hours", input: "36h", wantSize: 36 * time.Hour, wantDays: 1.5},
		{name: "empty invalid", input: "", wantError: true},
		{name: "negative invalid", input: "-1h", wantError: true},
		{name: "zero days invalid", input: "0d", wantError: true},
		{name: "bad day format invalid", input: "xd", wantError: true},
		{name: "unknown unit invalid", input: "10x", wantError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			window, err := ParseWindowSize(tc.input)
			if tc.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantSize, window.Size)
			require.InDelta(t, tc.wantDays, window.Days(), 1e-9)
		})
	}
}

func TestParseBatchScope(t *testing.T) {
	scope, err := ParseBatchScope("")
	require.NoError(t, err)
	require.Equal(t, ScopeGlobal, scope)

	scope, err = ParseBatchScope("store")
	require.NoError(t, err)
	require.Equal(t, ScopeStore, scope)

	_, err = ParseBatchScope("region")
	require.Error(t, err)
}
