package partition

import (
	"strconv"
	"testing"
)

func TestFor_Determinism(t *testing.T) {
	id := For("product-abc")
	for i := 0; i < 100; i++ {
		if got := For("product-abc"); got != id {
			t.Fatalf("For(\"product-abc\") = %d on iteration %d, want %d", got, i, id)
		}
	}
}

func TestFor_Range(t *testing.T) {
	inputs := []string{"", "a", "P1", "P2", "very-long-product-id-that-should-still-hash-correctly"}
	for _, s := range inputs {
		p := For(s)
		if p < 0 || p >= Count {
			t.Errorf("For(%q) = %d, want [0, %d)", s, p, Count)
		}
	}
}

func TestFor_Distribution(t *testing.T) {
	// 1000 keys over 256 buckets should land on well over 100 distinct partitions.
	seen := make(map[int]struct{})
	for i := 0; i < 1000; i++ {
		seen[For("product-"+strconv.Itoa(i))] = struct{}{}
	}
	if len(seen) < 100 {
		t.Errorf("only %d distinct partitions from 1000 inputs, want >= 100", len(seen))
	}
}

func TestLane(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		lanes int
	}{
		{"single lane", "P1", 1},
		{"zero lanes", "P1", 0},
		{"eight lanes", "P1", 8},
		{"odd lane count", "milk-2l", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lane(tt.key, tt.lanes)
			if tt.lanes <= 1 {
				if got != 0 {
					t.Errorf("Lane(%q, %d) = %d, want 0", tt.key, tt.lanes, got)
				}
				return
			}
			if got < 0 || got >= tt.lanes {
				t.Errorf("Lane(%q, %d) = %d, want [0, %d)", tt.key, tt.lanes, got, tt.lanes)
			}
			if got != For(tt.key)%tt.lanes {
				t.Errorf("Lane(%q, %d) = %d, not derived from For", tt.key, tt.lanes, got)
			}
		})
	}
}
