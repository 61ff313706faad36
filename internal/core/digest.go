package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// digestHex returns the hex-encoded SHA-256 digest of b, used to key
// bytes-valued pool entries content-addressably (spec §4.5: "bytes-valued
// entries are keyed by their cryptographic digest") in both the v2 and
// v3 pool builders, instead of the raw payload (which for large byte
// blobs would otherwise make every dedup map lookup copy the whole blob
// into the key).
func digestHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
