package state

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

func checkOwner(expected solana.PublicKey, actual solana.PublicKey) error {
	if !expected.Equals(actual) {
		return &WrongOwnerError{Expected: expected, Actual: actual}
	}
	return nil
}

// DecodeStakeAccount checks that the account belongs to the stake program
// before decoding its data.
func DecodeStakeAccount(owner solana.PublicKey, data []byte) (*StakeState, error) {
	err := checkOwner(solana.StakeProgramID, owner)
	if err != nil {
		return nil, err
	}

	stakeState := new(StakeState)
	err = stakeState.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, &MalformedAccountDataError{Kind: "stake account", Err: err}
	}
	return stakeState, nil
}

// DecodeVoteAccount checks that the account belongs to the vote program
// before decoding its data.
func DecodeVoteAccount(owner solana.PublicKey, data []byte) (*VoteState, error) {
	err := checkOwner(solana.VoteProgramID, owner)
	if err != nil {
		return nil, err
	}

	voteState := NewVoteState()
	err = voteState.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, &MalformedAccountDataError{Kind: "vote account", Err: err}
	}
	return voteState, nil
}

func DecodeStakeHistory(data []byte) (StakeHistory, error) {
	var stakeHistory StakeHistory
	err := stakeHistory.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, &MalformedAccountDataError{Kind: "stake history", Err: err}
	}
	return stakeHistory, nil
}

func EncodeStakeState(stakeState *StakeState) ([]byte, error) {
	buffer := new(bytes.Buffer)
	err := stakeState.MarshalWithEncoder(bin.NewBinEncoder(buffer))
	if err != nil {
		return nil, err
	}

	// Stake accounts are always allocated at full size.
	data := buffer.Bytes()
	if len(data) < StakeAccountSize {
		data = append(data, make([]byte, StakeAccountSize-len(data))...)
	}
	return data, nil
}

func EncodeVoteState(voteState *VoteState) ([]byte, error) {
	buffer := new(bytes.Buffer)
	err := voteState.MarshalWithEncoder(bin.NewBinEncoder(buffer))
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
