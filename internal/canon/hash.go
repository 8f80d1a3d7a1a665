package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainSale  = "shelf/sale/v1"
	DomainEvent = "shelf/event/v1"
)

// HashWithDomain computes SHA256(domain || 0x00 || data) as lowercase hex.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID canonically encodes obj and hashes it under domain.
func ID(domain string, obj map[string]any) (string, error) {
	data, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("%s: %w", domain, err)
	}
	return HashWithDomain(domain, data), nil
}
