package repository

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewHexID returns a lowercase hexadecimal token of exactly length characters
// from a cryptographically strong source. It is used to namespace derived
// artifact filenames per processing run, so repeated extractions of files
// sharing a stem never collide on disk.
func NewHexID(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("hex id length must be positive, got %d", length)
	}
	// One byte encodes two hex characters; round up for odd lengths.
	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}
