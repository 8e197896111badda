package types

import (
	"strings"

	"github.com/ipfs/go-cid"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// MaxCodeLength bounds the task specification reference.
	MaxCodeLength = 512
)

// ValidateAddress parses a bech32 account address, naming the role on failure.
func ValidateAddress(role, addr string) (sdk.AccAddress, error) {
	acc, err := sdk.AccAddressFromBech32(addr)
	if err != nil {
		return nil, ErrInvalidRequest.Wrapf("invalid %s address: %v", role, err)
	}
	return acc, nil
}

// ValidateCode checks the task specification reference.
func ValidateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrInvalidRequest.Wrap("code must not be empty")
	}
	if len(code) > MaxCodeLength {
		return ErrInvalidRequest.Wrapf("code exceeds %d bytes", MaxCodeLength)
	}
	return nil
}

// ParseResultsCID parses a results content identifier and returns its
// canonical string form.
func ParseResultsCID(s string) (string, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return "", ErrInvalidRequest.Wrapf("invalid results cid %q: %v", s, err)
	}
	return c.String(), nil
}
