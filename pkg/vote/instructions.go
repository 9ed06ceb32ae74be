package vote

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	voteprog "github.com/gagliardetto/solana-go/programs/vote"
)

const (
	instructionInitializeAccount = 0
	instructionAuthorize         = 1
	instructionWithdraw          = 3
)

type authorizeKind uint32

// VoteAuthorize::Voter; 1 would be the withdrawer.
const authorizeVoter authorizeKind = 0

// solana-go declares InitializeAccount and Authorize without fields or
// builders, so both are encoded here.

func newInitializeAccountInstruction(voteAccount, node, voter, withdrawer solana.PublicKey, commission uint8) (solana.Instruction, error) {
	buffer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buffer)

	err := encoder.WriteUint32(instructionInitializeAccount, bin.LE)
	if err != nil {
		return nil, err
	}
	for _, pubkey := range []solana.PublicKey{node, voter, withdrawer} {
		err = encoder.WriteBytes(pubkey[:], false)
		if err != nil {
			return nil, err
		}
	}
	err = encoder.WriteByte(commission)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(solana.VoteProgramID, solana.AccountMetaSlice{
		solana.Meta(voteAccount).WRITE(),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(node).SIGNER(),
	}, buffer.Bytes()), nil
}

func newAuthorizeInstruction(voteAccount, authority, newAuthority solana.PublicKey, kind authorizeKind) (solana.Instruction, error) {
	buffer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buffer)

	err := encoder.WriteUint32(instructionAuthorize, bin.LE)
	if err != nil {
		return nil, err
	}
	err = encoder.WriteBytes(newAuthority[:], false)
	if err != nil {
		return nil, err
	}
	err = encoder.WriteUint32(uint32(kind), bin.LE)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(solana.VoteProgramID, solana.AccountMetaSlice{
		solana.Meta(voteAccount).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(authority).SIGNER(),
	}, buffer.Bytes()), nil
}

// newWithdrawInstruction wraps the solana-go Withdraw builder, which has no
// Build method of its own, in the program's instruction variant.
func newWithdrawInstruction(lamports uint64, voteAccount, recipient, withdrawer solana.PublicKey) solana.Instruction {
	return &voteprog.Instruction{BaseVariant: bin.BaseVariant{
		Impl:   voteprog.NewWithdrawInstruction(lamports, voteAccount, recipient, withdrawer),
		TypeID: bin.TypeIDFromUint32(instructionWithdraw, bin.LE),
	}}
}
