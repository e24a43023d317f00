// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet is the Solana keypair the agent signs with.
type Wallet struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey

	mu       sync.RWMutex
	ataCache map[string]solana.PublicKey
}

// NewWallet creates a wallet from a base58-encoded private key.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	privateKey := solana.PrivateKey(privateKeyBytes)
	return &Wallet{
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
		ataCache:   make(map[string]solana.PublicKey),
	}, nil
}

// SignTransaction signs tx with the wallet private key.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		return nil
	})
	return err
}

// SignTransactionWith signs tx with the wallet key plus any extra keypairs
// (used when a freshly generated mint must co-sign its own creation).
func (w *Wallet) SignTransactionWith(tx *solana.Transaction, extra ...solana.PrivateKey) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		for i := range extra {
			if key.Equals(extra[i].PublicKey()) {
				return &extra[i]
			}
		}
		return nil
	})
	return err
}

// GetATA returns the associated token account address for mint. The address
// derivation is pure, so results are cached.
func (w *Wallet) GetATA(mint solana.PublicKey) (solana.PublicKey, error) {
	mintStr := mint.String()

	w.mu.RLock()
	ata, ok := w.ataCache[mintStr]
	w.mu.RUnlock()
	if ok {
		return ata, nil
	}

	ata, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	w.mu.Lock()
	w.ataCache[mintStr] = ata
	w.mu.Unlock()
	return ata, nil
}

// CreateAssociatedTokenAccountIdempotentInstruction builds an idempotent
// create-ATA instruction for owner/mint, paid by payer.
func (w *Wallet) CreateAssociatedTokenAccountIdempotentInstruction(payer, owner, mint solana.PublicKey) solana.Instruction {
	associatedTokenProgramID := solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	ata, _, _ := solana.FindAssociatedTokenAddress(owner, mint)

	return solana.NewInstruction(
		associatedTokenProgramID,
		[]*solana.AccountMeta{
			{PublicKey: payer, IsWritable: true, IsSigner: true},
			{PublicKey: ata, IsWritable: true, IsSigner: false},
			{PublicKey: owner, IsWritable: false, IsSigner: false},
			{PublicKey: mint, IsWritable: false, IsSigner: false},
			{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: solana.SysVarRentPubkey, IsWritable: false, IsSigner: false},
		},
		[]byte{1}, // instruction code 1: create idempotent
	)
}

// String returns the wallet public key.
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
