package object

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashBytes computes the BLAKE2b-256 hash of data and returns it as a
// lowercase hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := blake2b.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}
