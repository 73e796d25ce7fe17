package idhash

import (
	"testing"
)

func TestComputeOpenPositionID(t *testing.T) {
	tests := []struct {
		name  string
		asset string
	}{
		{name: "mint", asset: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"},
		{name: "symbol", asset: "BONK"},
		{name: "empty", asset: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeOpenPositionID(tt.asset)

			if len(got) != 64 {
				t.Errorf("ComputeOpenPositionID() length = %d, want 64", len(got))
			}
			if again := ComputeOpenPositionID(tt.asset); again != got {
				t.Errorf("ComputeOpenPositionID() not deterministic: %s vs %s", got, again)
			}
		})
	}

	if ComputeOpenPositionID("A") == ComputeOpenPositionID("B") {
		t.Error("different assets must produce different ids")
	}
}

func TestComputeSnapshotID(t *testing.T) {
	a := ComputeSnapshotID("wallet1", "sig9", 10, "precise")
	b := ComputeSnapshotID("wallet1", "sig9", 10, "precise")
	if a != b {
		t.Errorf("ComputeSnapshotID() not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("ComputeSnapshotID() length = %d, want 64", len(a))
	}

	// Separator prevents field boundary collisions
	if ComputeSnapshotID("w", "1sig", 2, "") == ComputeSnapshotID("w1", "sig", 2, "") {
		t.Error("field boundaries must not collide")
	}
	if ComputeSnapshotID("wallet1", "sig9", 11, "precise") == a {
		t.Error("trade count must change the id")
	}
	if ComputeSnapshotID("wallet1", "sig9", 10, "heuristic") == a {
		t.Error("variant must change the id")
	}
}
