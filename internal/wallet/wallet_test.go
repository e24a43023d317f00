// internal/wallet/wallet_test.go
package wallet

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := NewWallet(key.String())
	require.NoError(t, err)
	return w
}

func TestNewWallet(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w, err := NewWallet(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)
	assert.Equal(t, key.PublicKey().String(), w.String())

	_, err = NewWallet("not-base58!!")
	assert.Error(t, err)

	// A public key decodes but is only 32 bytes.
	_, err = NewWallet(key.PublicKey().String())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "length")
}

func TestSignTransaction(t *testing.T) {
	w := newTestWallet(t)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(
			solana.MemoProgramID,
			solana.AccountMetaSlice{solana.Meta(w.PublicKey).SIGNER().WRITE()},
			[]byte("hello"),
		)},
		solana.Hash{},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)

	require.NoError(t, w.SignTransaction(tx))
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())
}

func TestSignTransactionWith(t *testing.T) {
	w := newTestWallet(t)
	mint, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(
			solana.MemoProgramID,
			solana.AccountMetaSlice{
				solana.Meta(w.PublicKey).SIGNER().WRITE(),
				solana.Meta(mint.PublicKey()).SIGNER().WRITE(),
			},
			[]byte("create"),
		)},
		solana.Hash{},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)

	require.NoError(t, w.SignTransactionWith(tx, mint))
	require.Len(t, tx.Signatures, 2)
	assert.NoError(t, tx.VerifySignatures())
}

func TestGetATA(t *testing.T) {
	w := newTestWallet(t)
	mint := solana.NewWallet().PublicKey()

	ata, err := w.GetATA(mint)
	require.NoError(t, err)

	expected, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, ata)

	// Second lookup hits the cache and agrees.
	again, err := w.GetATA(mint)
	require.NoError(t, err)
	assert.Equal(t, ata, again)
}

func TestCreateAssociatedTokenAccountIdempotentInstruction(t *testing.T) {
	w := newTestWallet(t)
	mint := solana.NewWallet().PublicKey()

	ix := w.CreateAssociatedTokenAccountIdempotentInstruction(w.PublicKey, w.PublicKey, mint)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)

	accounts := ix.Accounts()
	require.Len(t, accounts, 7)
	assert.Equal(t, w.PublicKey, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsSigner)

	expectedATA, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expectedATA, accounts[1].PublicKey)
}
