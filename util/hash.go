package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateFindingID creates a deterministic hash for a finding based on file
// path, struct name and account name.
func GenerateFindingID(filePath, structName, accountName string) string {
	input := fmt.Sprintf("%s:%s:%s", filePath, structName, accountName)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
