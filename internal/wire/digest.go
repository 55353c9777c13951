package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes keep digests of different record kinds from colliding.
const (
	DomainSubmission = "ecosoul/submission/v1"
	DomainRecord     = "ecosoul/record/v1"
)

// Digest hashes the canonical encoding of obj with domain separation:
// SHA256(domain || 0x00 || canonical(obj)).
func Digest(domain string, obj Object) (string, error) {
	data, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MustDigest is like Digest but panics on error.
func MustDigest(domain string, obj Object) string {
	d, err := Digest(domain, obj)
	if err != nil {
		panic(err)
	}
	return d
}
