package artifact

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"stratadoc/internal/domain"
)

// ComputeContentHMAC returns the hex HMAC-SHA256 of raw document bytes under
// the given secret. The keyed hash, rather than a plain digest, prevents
// forged cache keys from being planted by a party that knows the hashing
// scheme but not the key.
func ComputeContentHMAC(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// ComputeContentHash returns the plain hex SHA-256 of raw document bytes.
// Used for the public content_hash field on documents and contracts.
func ComputeContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a deterministic hex SHA-256 over a parameter map.
// Keys are sorted and values rendered through canonical JSON, so the same
// parameter values in any insertion order produce the same fingerprint.
func Fingerprint(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v, err := json.Marshal(params[k])
		if err != nil {
			// Non-serializable values collapse to their Go representation;
			// still deterministic for a fixed parameter set.
			v = []byte(fmt.Sprintf("%v", params[k]))
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(v)
		b.WriteByte(';')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// NewKey assembles a ContentKey from its parts.
func NewKey(contentHMAC string, algorithmVersion int, params map[string]any) domain.ContentKey {
	return domain.ContentKey{
		ContentHMAC:       contentHMAC,
		AlgorithmVersion:  algorithmVersion,
		ParamsFingerprint: Fingerprint(params),
	}
}
