package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/recipebox/backend/internal/domain"
)

// KeyLength is the length of every derived key (hex SHA-256).
const KeyLength = sha256.Size * 2

// DeriveKey derives the cache key for an identifying string, typically an image URL.
// The result is lowercase hex and safe as both a map key and a filename.
func DeriveKey(input string) domain.CacheKey {
	sum := sha256.Sum256([]byte(input))
	return domain.CacheKey(hex.EncodeToString(sum[:]))
}

// IsValidKey reports whether s has the shape of a derived key.
func IsValidKey(s string) bool {
	if len(s) != KeyLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
