// Package credential hashes and checks note passwords.
//
// Digests are unsalted hex sha256 so they stay comparable with digests
// already stored by earlier deployments. Unsalted digests are open to
// precomputed-table attacks; see DESIGN.md before changing the format.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash returns the lowercase hex sha256 digest of password.
func Hash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether candidate hashes to digest.
func Verify(candidate, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(candidate)), []byte(digest)) == 1
}

// Allowed reports whether a request carrying candidate may access a note
// protected by digest. Unprotected notes (empty digest) are always
// allowed without a comparison.
func Allowed(digest, candidate string) bool {
	if digest == "" {
		return true
	}
	if candidate == "" {
		return false
	}
	return Verify(candidate, digest)
}
