// Package powlib provides the hash-and-test step of the search: computing a
// candidate's digest and checking it against a trailing-zero difficulty.
package powlib

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// DigestLen is the length of a hex-encoded digest.
const DigestLen = sha256.Size * 2

// Outcome is the result of evaluating one candidate. Matched is false for a
// candidate whose digest does not meet the difficulty; Digest is only set on
// a match.
type Outcome struct {
	Candidate uint64
	Digest    string
	Matched   bool
}

// NotifyChannel carries worker outcomes to the single aggregating consumer.
type NotifyChannel chan Outcome

// Digest returns the lowercase hex SHA-256 of the candidate's decimal form.
func Digest(candidate uint64) string {
	sum := sha256.Sum256([]byte(strconv.FormatUint(candidate, 10)))
	return hex.EncodeToString(sum[:])
}

// HasZeroesSuffix reports whether the last numZeroes characters of digest are
// all '0'. Asking for more zeroes than the digest has is never satisfied.
func HasZeroesSuffix(digest string, numZeroes uint) bool {
	if numZeroes > uint(len(digest)) {
		return false
	}
	for i := len(digest) - int(numZeroes); i < len(digest); i++ {
		if digest[i] != '0' {
			return false
		}
	}
	return true
}

// Evaluate hashes candidate and tests it against numTrailingZeros.
func Evaluate(candidate uint64, numTrailingZeros uint) Outcome {
	digest := Digest(candidate)
	if !HasZeroesSuffix(digest, numTrailingZeros) {
		return Outcome{Candidate: candidate}
	}
	return Outcome{
		Candidate: candidate,
		Digest:    digest,
		Matched:   true,
	}
}
