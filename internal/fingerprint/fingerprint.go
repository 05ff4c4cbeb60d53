// Package fingerprint holds the one-way digests used to strip sensitive text
// from findings while keeping them comparable across scans.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Algorithm prefixes tagged digests.
const Algorithm = "sha256"

// Hash returns the hex SHA-256 digest of s. Identical inputs always produce
// identical outputs, which is what lets the same secret be correlated across
// files and repositories without being stored.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// TaggedHash returns Hash(s) prefixed with the algorithm name, e.g.
// "sha256:9f86d0...".
func TaggedHash(s string) string {
	return Algorithm + ":" + Hash(s)
}

// FindingID is the broad fingerprint: one identity per commit-scoped
// occurrence of a rule match.
func FindingID(path string, line int, ruleID, commit string) string {
	return digest(path, normLine(line), ruleID, commit)
}

// MatchFingerprint is the narrow fingerprint: one identity per physical
// location, independent of the commit that introduced it.
func MatchFingerprint(path string, line int, ruleID string) string {
	return digest(path, normLine(line), ruleID)
}

// digest joins fields with NUL so ("ab","c") and ("a","bc") cannot alias.
func digest(fields ...any) string {
	h := sha256.New()
	for i, f := range fields {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = fmt.Fprint(h, f)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Unknown or invalid lines collapse to 0 so the tuple keeps its arity.
func normLine(line int) int {
	if line < 0 {
		return 0
	}
	return line
}
