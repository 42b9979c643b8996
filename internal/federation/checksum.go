package federation

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum hashes content with sha256 and formats it as the
// "sha256:<hex>" string every peer exchanges on the wire.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "sha256:" + hex.EncodeToString(sum[:])
}
