package domain

import "fmt"

// ContentKey identifies a reproducible computation over a document's bytes
// under a specific algorithm configuration. Same bytes plus the same
// algorithm version and parameters always produce the same key, which makes
// a stored result safe to reuse.
type ContentKey struct {
	ContentHMAC       string
	AlgorithmVersion  int
	ParamsFingerprint string
}

func (k ContentKey) String() string {
	return fmt.Sprintf("%s/v%d/%s", k.ContentHMAC, k.AlgorithmVersion, k.ParamsFingerprint)
}
