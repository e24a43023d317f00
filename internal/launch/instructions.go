// internal/launch/instructions.go
package launch

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Anchor instruction discriminators for the pump.fun program.
var (
	createDiscriminator = []byte{24, 30, 200, 40, 5, 28, 7, 119}
	buyDiscriminator    = []byte{102, 6, 61, 18, 1, 218, 235, 234}
)

// appendBorshString encodes s as a u32 length prefix followed by the bytes.
func appendBorshString(data []byte, s string) []byte {
	lenBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBytes, uint32(len(s)))
	data = append(data, lenBytes...)
	return append(data, []byte(s)...)
}

func appendUint64(data []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return append(data, b...)
}

// BuildCreateInstruction builds the instruction that mints a new token on
// the bonding curve. The mint and the creator both sign.
func BuildCreateInstruction(addrs *Addresses, creator solana.PublicKey, name, symbol, metadataURI string) solana.Instruction {
	data := make([]byte, len(createDiscriminator))
	copy(data, createDiscriminator)
	data = appendBorshString(data, name)
	data = appendBorshString(data, symbol)
	data = appendBorshString(data, metadataURI)
	data = append(data, creator.Bytes()...)

	// Account list must be in the exact order expected by the program.
	accounts := []*solana.AccountMeta{
		{PublicKey: addrs.Mint, IsSigner: true, IsWritable: true},
		{PublicKey: addrs.MintAuthority, IsSigner: false, IsWritable: false},
		{PublicKey: addrs.BondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: addrs.AssociatedBondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: addrs.Global, IsSigner: false, IsWritable: false},
		{PublicKey: MPLTokenMetadataProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: addrs.Metadata, IsSigner: false, IsWritable: true},
		{PublicKey: creator, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: AssociatedTokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: SysvarRentPubkey, IsSigner: false, IsWritable: false},
		{PublicKey: EventAuthority, IsSigner: false, IsWritable: false},
		{PublicKey: ProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(ProgramID, accounts, data)
}

// BuildBuyInstruction builds a bonding curve buy for tokenAmount raw tokens,
// spending at most maxSolCost lamports.
func BuildBuyInstruction(addrs *Addresses, feeRecipient, buyer, buyerATA solana.PublicKey, tokenAmount, maxSolCost uint64) solana.Instruction {
	data := make([]byte, len(buyDiscriminator))
	copy(data, buyDiscriminator)
	data = appendUint64(data, tokenAmount)
	data = appendUint64(data, maxSolCost)

	accounts := []*solana.AccountMeta{
		{PublicKey: addrs.Global, IsSigner: false, IsWritable: false},
		{PublicKey: feeRecipient, IsSigner: false, IsWritable: true},
		{PublicKey: addrs.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: addrs.BondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: addrs.AssociatedBondingCurve, IsSigner: false, IsWritable: true},
		{PublicKey: buyerATA, IsSigner: false, IsWritable: true},
		{PublicKey: buyer, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: SysvarRentPubkey, IsSigner: false, IsWritable: false},
		{PublicKey: EventAuthority, IsSigner: false, IsWritable: false},
		{PublicKey: ProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(ProgramID, accounts, data)
}
