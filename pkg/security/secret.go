package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SecretMatches compares a presented shared secret against the configured
// one in constant time. An unset secret never matches
func SecretMatches(presented, configured string) bool {
	if configured == "" || presented == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}

// HashIP pseudonymises a client address for the audit log
func HashIP(ip, salt string) string {
	if ip == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(salt + ":" + ip))
	return hex.EncodeToString(sum[:])
}
