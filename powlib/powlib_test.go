package powlib

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const digest4163 = "95d4362bd3cd4315d0bbe38dfa5d7fb8f0aed5f1a31d98d510907279194e3000"

func TestDigest(t *testing.T) {
	got := Digest(4163)
	assert.Equal(t, digest4163, got)
	assert.Len(t, got, DigestLen)
	assert.Equal(t, strings.ToLower(got), got)
}

func TestHasZeroesSuffix(t *testing.T) {
	tests := []struct {
		name      string
		digest    string
		numZeroes uint
		want      bool
	}{
		{"three zeroes met", digest4163, 3, true},
		{"four zeroes not met", digest4163, 4, false},
		{"zero always met", digest4163, 0, true},
		{"zero on empty digest", "", 0, true},
		{"short digest", "dfd000", 3, true},
		{"short digest too many", "dfd000", 4, false},
		{"whole digest zero", "0000", 4, true},
		{"more than length", "000", 4, false},
		{"far more than length", digest4163, DigestLen + 10, false},
		{"uppercase is not zero", "abcO", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasZeroesSuffix(tt.digest, tt.numZeroes))
		})
	}
}

func TestHasZeroesSuffixMatchesTrailingRun(t *testing.T) {
	for candidate := uint64(1); candidate <= 500; candidate++ {
		digest := Digest(candidate)
		run := uint(len(digest) - len(strings.TrimRight(digest, "0")))
		for z := uint(0); z <= run+1; z++ {
			assert.Equal(t, z <= run, HasZeroesSuffix(digest, z), "candidate %d zeros %d", candidate, z)
		}
	}
}

func TestEvaluate(t *testing.T) {
	match := Evaluate(4163, 3)
	require.True(t, match.Matched)
	assert.Equal(t, uint64(4163), match.Candidate)
	assert.Equal(t, digest4163, match.Digest)

	miss := Evaluate(4163, 4)
	assert.False(t, miss.Matched)
	assert.Empty(t, miss.Digest)
}

func TestEvaluateAgreesWithPredicate(t *testing.T) {
	for candidate := uint64(1); candidate <= 200; candidate++ {
		for _, z := range []uint{0, 1, 2} {
			out := Evaluate(candidate, z)
			digest := Digest(candidate)
			require.Equal(t, HasZeroesSuffix(digest, z), out.Matched)
			if out.Matched {
				require.Equal(t, digest, out.Digest)
			}
		}
	}
}
