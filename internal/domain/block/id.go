package block

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID generates a short random identifier suitable for block, SDB, and
// pipe-log primary keys.
func NewID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is a platform-level problem, not a condition
		// this package can usefully recover from.
		panic(err)
	}
	return prefix + "_" + hex.EncodeToString(buf)
}
