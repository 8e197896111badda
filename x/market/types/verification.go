package types

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// VerificationHashLen is the byte length of a keccak-256 commitment.
const VerificationHashLen = 32

// HashVerification returns the keccak-256 digest of a verification secret.
func HashVerification(secret string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(secret))
	return h.Sum(nil)
}

// CommitVerification returns the 0x-prefixed hex commitment a client records
// when creating an auction.
func CommitVerification(secret string) string {
	return "0x" + hex.EncodeToString(HashVerification(secret))
}

// ParseVerificationCommitment decodes a 0x-prefixed keccak-256 commitment.
func ParseVerificationCommitment(commitment string) ([]byte, error) {
	raw, ok := strings.CutPrefix(commitment, "0x")
	if !ok {
		return nil, ErrInvalidVerification.Wrap("missing 0x prefix")
	}
	bz, err := hex.DecodeString(raw)
	if err != nil {
		return nil, ErrInvalidVerification.Wrapf("not hex: %v", err)
	}
	if len(bz) != VerificationHashLen {
		return nil, ErrInvalidVerification.Wrapf("expected %d bytes, got %d", VerificationHashLen, len(bz))
	}
	return bz, nil
}

// MatchesVerification reports whether the revealed secret hashes to the
// commitment. Malformed commitments never match.
func MatchesVerification(commitment, revealed string) bool {
	want, err := ParseVerificationCommitment(commitment)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, HashVerification(revealed)) == 1
}
