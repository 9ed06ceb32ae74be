package state

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

func (voteState *VoteState) encodeLockouts(encoder *bin.Encoder, landed bool) error {
	err := encoder.WriteUint64(uint64(voteState.Votes.Len()), bin.LE)
	if err != nil {
		return err
	}

	voteState.Votes.Range(func(i int, vote LandedVote) bool {
		if landed {
			err = vote.MarshalWithEncoder(encoder)
		} else {
			err = vote.Lockout.MarshalWithEncoder(encoder)
		}
		return err == nil
	})
	return err
}

func (voteState *VoteState) encodeRootSlot(encoder *bin.Encoder) error {
	err := encoder.WriteOption(voteState.RootSlot != nil)
	if err != nil || voteState.RootSlot == nil {
		return err
	}
	return encoder.WriteUint64(*voteState.RootSlot, bin.LE)
}

func (voteState *VoteState) encodePriorVoters(encoder *bin.Encoder, legacy bool) error {
	if len(voteState.PriorVoters) > priorVotersCapacity {
		return fmt.Errorf("too many prior voters: %d", len(voteState.PriorVoters))
	}

	for count := 0; count < priorVotersCapacity; count++ {
		var priorVoter PriorVoter
		if count < len(voteState.PriorVoters) {
			priorVoter = voteState.PriorVoters[count]
		}

		err := encoder.WriteBytes(priorVoter.Pubkey[:], false)
		if err != nil {
			return err
		}

		err = encoder.WriteUint64(priorVoter.EpochStart, bin.LE)
		if err != nil {
			return err
		}

		err = encoder.WriteUint64(priorVoter.EpochEnd, bin.LE)
		if err != nil {
			return err
		}

		if legacy {
			err = encoder.WriteUint64(0, bin.LE)
			if err != nil {
				return err
			}
		}
	}

	index := uint64(priorVotersCapacity - 1)
	if len(voteState.PriorVoters) > 0 {
		index = uint64(len(voteState.PriorVoters) - 1)
	}
	err := encoder.WriteUint64(index, bin.LE)
	if err != nil {
		return err
	}

	if !legacy {
		return encoder.WriteBool(len(voteState.PriorVoters) == 0)
	}
	return nil
}

func (voteState *VoteState) encodeEpochCredits(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(uint64(len(voteState.EpochCredits)), bin.LE)
	if err != nil {
		return err
	}

	for _, epochCredits := range voteState.EpochCredits {
		err = epochCredits.MarshalWithEncoder(encoder)
		if err != nil {
			return err
		}
	}
	return nil
}

func (voteState *VoteState) encodeV0_23_5(encoder *bin.Encoder) error {
	authorizedVoter, ok := voteState.AuthorizedVoters.Last()
	if !ok {
		return fmt.Errorf("vote state has no authorized voter")
	}

	for _, pk := range []solana.PublicKey{voteState.NodePubkey, authorizedVoter.Pubkey} {
		err := encoder.WriteBytes(pk[:], false)
		if err != nil {
			return err
		}
	}

	err := encoder.WriteUint64(authorizedVoter.Epoch, bin.LE)
	if err != nil {
		return err
	}

	err = voteState.encodePriorVoters(encoder, true)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(voteState.AuthorizedWithdrawer[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteByte(voteState.CommissionPercent())
	if err != nil {
		return err
	}

	err = voteState.encodeLockouts(encoder, false)
	if err != nil {
		return err
	}

	err = voteState.encodeRootSlot(encoder)
	if err != nil {
		return err
	}

	err = voteState.encodeEpochCredits(encoder)
	if err != nil {
		return err
	}

	return voteState.LastTimestamp.MarshalWithEncoder(encoder)
}

func (voteState *VoteState) encodeV1_14_11(encoder *bin.Encoder, landed bool) error {
	for _, pk := range []solana.PublicKey{voteState.NodePubkey, voteState.AuthorizedWithdrawer} {
		err := encoder.WriteBytes(pk[:], false)
		if err != nil {
			return err
		}
	}

	err := encoder.WriteByte(voteState.CommissionPercent())
	if err != nil {
		return err
	}

	err = voteState.encodeLockouts(encoder, landed)
	if err != nil {
		return err
	}

	err = voteState.encodeRootSlot(encoder)
	if err != nil {
		return err
	}

	err = voteState.AuthorizedVoters.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}

	err = voteState.encodePriorVoters(encoder, false)
	if err != nil {
		return err
	}

	err = voteState.encodeEpochCredits(encoder)
	if err != nil {
		return err
	}

	return voteState.LastTimestamp.MarshalWithEncoder(encoder)
}

func (voteState *VoteState) encodeV4(encoder *bin.Encoder) error {
	for _, pk := range []solana.PublicKey{
		voteState.NodePubkey,
		voteState.AuthorizedWithdrawer,
		voteState.InflationRewardsCollector,
		voteState.BlockRevenueCollector,
	} {
		err := encoder.WriteBytes(pk[:], false)
		if err != nil {
			return err
		}
	}

	err := encoder.WriteUint16(voteState.CommissionBps, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint16(voteState.BlockRevenueCommissionBps, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(voteState.PendingDelegatorRewards, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteOption(voteState.BlsPubkeyCompressed != nil)
	if err != nil {
		return err
	}
	if voteState.BlsPubkeyCompressed != nil {
		err = encoder.WriteBytes(voteState.BlsPubkeyCompressed[:], false)
		if err != nil {
			return err
		}
	}

	err = voteState.encodeLockouts(encoder, true)
	if err != nil {
		return err
	}

	err = voteState.encodeRootSlot(encoder)
	if err != nil {
		return err
	}

	err = voteState.AuthorizedVoters.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}

	err = voteState.encodeEpochCredits(encoder)
	if err != nil {
		return err
	}

	return voteState.LastTimestamp.MarshalWithEncoder(encoder)
}

// MarshalWithEncoder writes the vote state in the layout selected by
// Version.
func (voteState *VoteState) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(voteState.Version, bin.LE)
	if err != nil {
		return err
	}

	switch voteState.Version {
	case VoteStateVersionV0_23_5:
		{
			err = voteState.encodeV0_23_5(encoder)
		}
	case VoteStateVersionV1_14_11:
		{
			err = voteState.encodeV1_14_11(encoder, false)
		}
	case VoteStateVersionCurrent:
		{
			err = voteState.encodeV1_14_11(encoder, true)
		}
	case VoteStateVersionV4:
		{
			err = voteState.encodeV4(encoder)
		}
	default:
		{
			err = fmt.Errorf("%w: %d", errInvalidVoteStateTag, voteState.Version)
		}
	}
	return err
}
