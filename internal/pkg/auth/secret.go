package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// SecretMatches compares a presented shared secret with the configured one in
// constant time. An unconfigured secret never matches.
func SecretMatches(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	a := sha256.Sum256([]byte(configured))
	b := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
