package stake

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const instructionMerge = 7

// newMergeInstruction encodes stake instruction 7, which has no builder in
// solana-go. The payload is the bare u32 tag.
func newMergeInstruction(destination, source, stakeAuthority solana.PublicKey) (solana.Instruction, error) {
	buffer := new(bytes.Buffer)
	err := bin.NewBinEncoder(buffer).WriteUint32(instructionMerge, bin.LE)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(solana.StakeProgramID, solana.AccountMetaSlice{
		solana.Meta(destination).WRITE(),
		solana.Meta(source).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(stakeAuthority).SIGNER(),
	}, buffer.Bytes()), nil
}
