package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeOpenPositionID computes a deterministic position_id for the trailing
// open position of an asset.
// Formula: SHA256(open|asset)
// Returns hex-encoded hash (64 characters).
func ComputeOpenPositionID(asset string) string {
	data := fmt.Sprintf("open|%s", asset)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSnapshotID computes a deterministic snapshot_id using SHA256.
// Formula: SHA256(wallet|last_signature|trade_count|variant)
// variant names the calculation options that shape the stored numbers.
// The same history under the same options always maps to the same snapshot,
// so re-running a calculation collides instead of appending a copy.
func ComputeSnapshotID(wallet, lastSignature string, tradeCount int, variant string) string {
	data := fmt.Sprintf("%s|%s|%d|%s",
		wallet,
		lastSignature,
		tradeCount,
		variant,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
