// internal/token/reference.go
package token

import (
	"github.com/gagliardetto/solana-go"
)

// ReferenceKind tags how a user-supplied token string is interpreted.
type ReferenceKind string

const (
	// KindAddress means the string is already a contract address.
	KindAddress ReferenceKind = "address"
	// KindSymbol means the string is a ticker symbol needing resolution.
	KindSymbol ReferenceKind = "symbol"
)

// Reference is a user-supplied token identifier, either a symbol or a
// contract address.
type Reference struct {
	Kind  ReferenceKind
	Value string
}

// Classify tags ref as an address or a symbol. Address shape always wins: a
// string that parses as a base58 public key of the expected length is never
// re-interpreted as a symbol, even if some token uses it as a ticker.
func Classify(ref string) Reference {
	if IsAddressShape(ref) {
		return Reference{Kind: KindAddress, Value: ref}
	}
	return Reference{Kind: KindSymbol, Value: ref}
}

// IsAddressShape reports whether s looks like an SPL token contract address:
// a valid base58 public key whose textual length is in [43,45).
// SPL token mints encode to 44 characters, wrapped SOL to 43.
func IsAddressShape(s string) bool {
	if len(s) < 43 || len(s) >= 45 {
		return false
	}
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}
