package library

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

func Sha256Sum(data interface{}) Sha256 {
	var b []byte
	switch d := data.(type) {
	case string:
		b = []byte(d)
	case []byte:
		b = d
	default:
		LogCLI("attempted to hash non-string or non-[]byte", 0)
	}
	h := sha256.New()
	h.Write(b)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// AccountBytes decodes an account into its raw 32 bytes.
func AccountBytes(account Account) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(account, "0x"))
	if err != nil {
		return nil, fmt.Errorf("account %q is not hex: %w", account, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("account %q is %d bytes, expected 32", account, len(b))
	}
	return b, nil
}

// CanonicalAccount returns the lowercase hex form of an account.
func CanonicalAccount(account Account) (Account, error) {
	b, err := AccountBytes(account)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
