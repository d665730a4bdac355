package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"getgsa/onboarding/pkg/compliance"
)

// Digest returns the hex SHA-256 of the RFC 8785 canonical JSON of v. Two
// evaluations of the same input under the same pack and clock yield the same
// digest.
func Digest(v compliance.ComplianceVerdict) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal verdict: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize verdict: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
