package chain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/umbracle/ethgo"
	"github.com/umbracle/ethgo/wallet"
)

// LoadTreasuryKey parses a hex-encoded private key into a signing key for the
// treasury minter.
func LoadTreasuryKey(hexKey string) (ethgo.Key, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode treasury key: %w", err)
	}
	key, err := wallet.NewWalletFromPrivKey(raw)
	if err != nil {
		return nil, fmt.Errorf("load treasury key: %w", err)
	}
	return key, nil
}
