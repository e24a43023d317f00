// internal/launch/program.go
package launch

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Known pump.fun protocol addresses.
var (
	// ProgramID is the pump.fun bonding curve program.
	ProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// EventAuthority is the program's event authority PDA.
	EventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")

	// MPLTokenMetadataProgramID is the Metaplex token metadata program.
	MPLTokenMetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// AssociatedTokenProgramID creates associated token accounts.
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// SysvarRentPubkey is the rent sysvar account.
	SysvarRentPubkey = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

// Addresses holds the derived accounts a launch touches.
type Addresses struct {
	Mint                   solana.PublicKey
	MintAuthority          solana.PublicKey
	Global                 solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
	Metadata               solana.PublicKey
}

// DeriveAddresses computes the PDAs for a new mint.
func DeriveAddresses(mint solana.PublicKey) (*Addresses, error) {
	mintAuthority, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("mint-authority")}, ProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive mint authority: %w", err)
	}

	global, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("global")}, ProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive global account: %w", err)
	}

	bondingCurve, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("bonding-curve"), mint.Bytes()}, ProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive bonding curve: %w", err)
	}

	associatedBondingCurve, _, err := solana.FindAssociatedTokenAddress(bondingCurve, mint)
	if err != nil {
		return nil, fmt.Errorf("derive associated bonding curve: %w", err)
	}

	metadata, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), MPLTokenMetadataProgramID.Bytes(), mint.Bytes()},
		MPLTokenMetadataProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive metadata account: %w", err)
	}

	return &Addresses{
		Mint:                   mint,
		MintAuthority:          mintAuthority,
		Global:                 global,
		BondingCurve:           bondingCurve,
		AssociatedBondingCurve: associatedBondingCurve,
		Metadata:               metadata,
	}, nil
}

// GlobalAccount is the on-chain state of the pump.fun global account. The
// reserve figures seed the bonding curve maths for a brand new token.
type GlobalAccount struct {
	Discriminator               [8]byte
	Initialized                 bool
	Authority                   solana.PublicKey
	FeeRecipient                solana.PublicKey
	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	TokenTotalSupply            uint64
	FeeBasisPoints              uint64
}

// AccountFetcher is the chain surface needed to read the global account.
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

const globalAccountMinLen = 8 + 1 + 32 + 32 + 8*5

// ParseGlobalAccount deserializes the global account's raw data.
func ParseGlobalAccount(data []byte) (*GlobalAccount, error) {
	if len(data) < globalAccountMinLen {
		return nil, fmt.Errorf("global account data too short: %d bytes", len(data))
	}

	account := &GlobalAccount{}
	copy(account.Discriminator[:], data[0:8])
	account.Initialized = data[8] != 0
	account.Authority = solana.PublicKeyFromBytes(data[9:41])
	account.FeeRecipient = solana.PublicKeyFromBytes(data[41:73])

	offset := 73
	for _, field := range []*uint64{
		&account.InitialVirtualTokenReserves,
		&account.InitialVirtualSolReserves,
		&account.InitialRealTokenReserves,
		&account.TokenTotalSupply,
		&account.FeeBasisPoints,
	} {
		*field = binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
	}

	if !account.Initialized {
		return nil, fmt.Errorf("global account not initialized")
	}
	return account, nil
}

// FetchGlobalAccount reads and parses the global account, verifying it is
// owned by the pump.fun program.
func FetchGlobalAccount(ctx context.Context, fetcher AccountFetcher, logger *zap.Logger) (*GlobalAccount, error) {
	global, _, err := solana.FindProgramAddress([][]byte{[]byte("global")}, ProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive global account: %w", err)
	}

	info, err := fetcher.GetAccountInfo(ctx, global)
	if err != nil {
		return nil, fmt.Errorf("fetch global account: %w", err)
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("global account not found: %s", global)
	}
	if !info.Value.Owner.Equals(ProgramID) {
		return nil, fmt.Errorf("global account owner mismatch: %s", info.Value.Owner)
	}
	data := info.Value.Data.GetBinary()

	account, err := ParseGlobalAccount(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("Fetched global account",
		zap.String("fee_recipient", account.FeeRecipient.String()),
		zap.Uint64("fee_basis_points", account.FeeBasisPoints))
	return account, nil
}
