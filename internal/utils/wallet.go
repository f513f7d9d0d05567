package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeWallet validates an EVM wallet address and returns it in the
// canonical lowercase form used everywhere in the store.
func NormalizeWallet(address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if !common.IsHexAddress(trimmed) {
		return "", fmt.Errorf("invalid wallet address: %q", address)
	}
	return strings.ToLower(common.HexToAddress(trimmed).Hex()), nil
}

// SameWallet compares two addresses case-insensitively.
func SameWallet(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
