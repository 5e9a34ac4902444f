package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const qrPrefix = "SATad1"

// Sign computes the deterministic keyed digest binding an organisation and
// an expiry instant. HMAC-SHA256 over prefix + org id + epoch millis, so a
// caller without the key cannot forge a signature for a pair they do not
// control, while validation can recompute and compare.
func Sign(secret []byte, organisationID uint64, expiresAt time.Time) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s%d%d", qrPrefix, organisationID, expiresAt.UnixMilli())
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureEqual compares in constant time.
func SignatureEqual(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(got))
}

// GenerateUniqueCode returns an opaque, unique token code.
func GenerateUniqueCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return qrPrefix + "-" + raw[:10]
}
