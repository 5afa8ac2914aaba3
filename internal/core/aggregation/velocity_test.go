package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
)

func TestComputeVelocity(t *testing.T) {
	window, err := ParseWindowSize(DefaultVelocityWindow)
	require.NoError(t, err)

	day := 24 * time.Hour

	tests := []struct {
		name string
		txs  []*v1.Transaction
		want float64
	}{
		{name: "no transactions", want: 0},
		{
			name: "fixed denominator",
			txs:  []*v1.Transaction{sale("T1", "S1", 15, refTS.Add(-2*day)), sale("T2", "S1", 15, refTS.Add(-3*day))},
			want: 1,
		},
		{
			name: "window boundary is inclusive",
			txs:  []*v1.Transaction{sale("T1", "S1", 30, refTS.Add(-30*day))},
			want: 1,
		},
		{
			name: "out of window ignored",
			txs:  []*v1.Transaction{sale("T1", "S1", 60, refTS.Add(-30*day-time.Second)), sale("T2", "S1", 3, refTS)},
			want: 0.1,
		},
		{
			name: "other store ignored",
			txs:  []*v1.Transaction{sale("T1", "S2", 300, refTS)},
			want: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, ComputeVelocity(keyS1, tc.txs, refTS, window), 1e-9)
		})
	}
}

func TestComputeVelocity_Monotonic(t *testing.T) {
	window := WindowSpec{Size: 7 * 24 * time.Hour}
	old := sale("OLD", "S1", 1000, refTS.Add(-8*24*time.Hour))

	prev := -1.0
	for qty := int64(0); qty <= 70; qty += 7 {
		txs := []*v1.Transaction{old, sale("T", "S1", qty, refTS.Add(-time.Hour))}
		got := ComputeVelocity(keyS1, txs, refTS, window)
		require.GreaterOrEqual(t, got, prev)
		require.InDelta(t, float64(qty)/7, got, 1e-9)
		prev = got
	}
}
