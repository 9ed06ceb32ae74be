package state

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(v interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}) ([]byte, error) {
	buffer := new(bytes.Buffer)
	err := v.MarshalWithEncoder(bin.NewBinEncoder(buffer))
	return buffer.Bytes(), err
}

func testVoteState(t *testing.T, version uint32) *VoteState {
	voteState := NewVoteState()
	voteState.Version = version
	voteState.NodePubkey = newPubkey(t)
	voteState.AuthorizedWithdrawer = newPubkey(t)
	voteState.CommissionBps = 700
	voteState.AuthorizedVoters.Insert(90, newPubkey(t))
	rootSlot := uint64(1000)
	voteState.RootSlot = &rootSlot
	voteState.EpochCredits = []EpochCredits{
		{Epoch: 89, Credits: 100, PrevCredits: 0},
		{Epoch: 90, Credits: 250, PrevCredits: 100},
	}
	voteState.LastTimestamp = BlockTimestamp{Slot: 1040, Timestamp: 1700000000}
	for slot := uint64(1001); slot <= 1040; slot += 10 {
		voteState.Votes.PushBack(LandedVote{Lockout: Lockout{Slot: slot, ConfirmationCount: uint32(1041 - slot)}})
	}

	if version != VoteStateVersionV0_23_5 {
		voteState.AuthorizedVoters.Insert(95, newPubkey(t))
	}
	if version == VoteStateVersionV1_14_11 || version == VoteStateVersionCurrent {
		voteState.PriorVoters = []PriorVoter{{Pubkey: newPubkey(t), EpochStart: 10, EpochEnd: 90}}
	}
	if version == VoteStateVersionV4 {
		voteState.CommissionBps = 725
		voteState.BlockRevenueCommissionBps = 10000
		voteState.InflationRewardsCollector = newPubkey(t)
		voteState.BlockRevenueCollector = newPubkey(t)
		voteState.PendingDelegatorRewards = 42
		voteState.BlsPubkeyCompressed = &[48]byte{1, 2, 3}
	}
	return voteState
}

func TestDecodeVoteAccount_AllVersions(t *testing.T) {
	for _, version := range []uint32{
		VoteStateVersionV0_23_5,
		VoteStateVersionV1_14_11,
		VoteStateVersionCurrent,
		VoteStateVersionV4,
	} {
		voteState := testVoteState(t, version)

		data, err := EncodeVoteState(voteState)
		require.NoError(t, err)

		decoded, err := DecodeVoteAccount(solana.VoteProgramID, data)
		require.NoError(t, err, "version %d", version)

		assert.Equal(t, version, decoded.Version)
		assert.Equal(t, voteState.NodePubkey, decoded.NodePubkey)
		assert.Equal(t, voteState.AuthorizedWithdrawer, decoded.AuthorizedWithdrawer)
		assert.Equal(t, voteState.CommissionBps, decoded.CommissionBps)
		assert.Equal(t, voteState.AuthorizedVoters.All(), decoded.AuthorizedVoters.All())
		assert.Equal(t, voteState.EpochCredits, decoded.EpochCredits)
		assert.Equal(t, voteState.LastTimestamp, decoded.LastTimestamp)
		assert.Equal(t, voteState.PriorVoters, decoded.PriorVoters)
		require.NotNil(t, decoded.RootSlot)
		assert.Equal(t, uint64(1000), *decoded.RootSlot)
		assert.Equal(t, voteState.Votes.Len(), decoded.Votes.Len())
		assert.Equal(t, uint64(250), decoded.Credits())
		assert.True(t, decoded.IsInitialized())

		lastSlot, ok := decoded.LastVotedSlot()
		require.True(t, ok)
		assert.Equal(t, uint64(1031), lastSlot)

		if version == VoteStateVersionV4 {
			assert.Equal(t, uint16(10000), decoded.BlockRevenueCommissionBps)
			assert.Equal(t, voteState.InflationRewardsCollector, decoded.InflationRewardsCollector)
			assert.Equal(t, uint64(42), decoded.PendingDelegatorRewards)
			assert.Equal(t, voteState.BlsPubkeyCompressed, decoded.BlsPubkeyCompressed)
			assert.Equal(t, uint8(7), decoded.CommissionPercent())
		}
	}
}

func TestDecodeVoteAccount_CommissionScaledToBasisPoints(t *testing.T) {
	voteState := testVoteState(t, VoteStateVersionCurrent)
	voteState.CommissionBps = 10000

	data, err := EncodeVoteState(voteState)
	require.NoError(t, err)

	// version tag, node, withdrawer, then the commission byte
	assert.Equal(t, byte(100), data[4+32+32])

	decoded, err := DecodeVoteAccount(solana.VoteProgramID, data)
	require.NoError(t, err)
	assert.Equal(t, uint16(10000), decoded.CommissionBps)
	assert.Equal(t, uint8(100), decoded.CommissionPercent())
}

func TestEncodeVoteState_MaxSize(t *testing.T) {
	for version, size := range map[uint32]int{
		VoteStateVersionV1_14_11: VoteStateV2Size,
		VoteStateVersionCurrent:  VoteStateV3Size,
	} {
		voteState := NewVoteState()
		voteState.Version = version
		for i := uint64(0); i < MaxLockoutHistory; i++ {
			voteState.Votes.PushBack(LandedVote{Lockout: Lockout{Slot: i}})
		}
		for epoch := uint64(0); epoch < 4; epoch++ {
			voteState.AuthorizedVoters.Insert(epoch, newPubkey(t))
		}
		for epoch := uint64(0); epoch < MaxEpochCreditsHistory; epoch++ {
			voteState.EpochCredits = append(voteState.EpochCredits, EpochCredits{Epoch: epoch})
		}
		rootSlot := uint64(0)
		voteState.RootSlot = &rootSlot

		data, err := EncodeVoteState(voteState)
		require.NoError(t, err)
		assert.Len(t, data, size, "version %d", version)
	}
}

func TestAuthorizedVoters_ForEpoch(t *testing.T) {
	early, current, scheduled := newPubkey(t), newPubkey(t), newPubkey(t)

	authVoters := NewAuthorizedVoters()
	authVoters.Insert(10, early)
	authVoters.Insert(20, current)
	authVoters.Insert(30, scheduled)

	_, ok := authVoters.ForEpoch(9)
	assert.False(t, ok)

	for epoch, expected := range map[uint64]solana.PublicKey{
		10:             early,
		19:             early,
		20:             current,
		25:             current,
		30:             scheduled,
		math.MaxUint64: scheduled,
	} {
		voter, ok := authVoters.ForEpoch(epoch)
		require.True(t, ok)
		assert.Equal(t, expected, voter, "epoch %d", epoch)
	}

	last, ok := authVoters.Last()
	require.True(t, ok)
	assert.Equal(t, AuthorizedVoter{Epoch: 30, Pubkey: scheduled}, last)
	assert.Len(t, authVoters.All(), 3)
}

func TestDecodeVoteAccount_WrongOwner(t *testing.T) {
	_, err := DecodeVoteAccount(solana.StakeProgramID, []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrWrongOwner)

	var wrongOwner *WrongOwnerError
	require.ErrorAs(t, err, &wrongOwner)
	assert.Equal(t, solana.VoteProgramID, wrongOwner.Expected)
}

func TestDecodeVoteAccount_Truncated(t *testing.T) {
	for _, version := range []uint32{VoteStateVersionV0_23_5, VoteStateVersionCurrent, VoteStateVersionV4} {
		data, err := EncodeVoteState(testVoteState(t, version))
		require.NoError(t, err)

		for n := 0; n < len(data); n++ {
			_, err := DecodeVoteAccount(solana.VoteProgramID, data[:n])
			assert.ErrorIs(t, err, ErrMalformedAccountData, "version %d prefix %d", version, n)
		}
	}
}

func TestDecodeVoteAccount_AdversarialLength(t *testing.T) {
	data := make([]byte, 4+32+32+1+8)
	binary.LittleEndian.PutUint32(data, VoteStateVersionCurrent)
	binary.LittleEndian.PutUint64(data[4+32+32+1:], math.MaxUint64)
	data = append(data, make([]byte, 64)...)

	_, err := DecodeVoteAccount(solana.VoteProgramID, data)
	assert.ErrorIs(t, err, ErrMalformedAccountData)
}

func TestDecodeVoteAccount_UnknownVersion(t *testing.T) {
	data := make([]byte, VoteStateV3Size)
	binary.LittleEndian.PutUint32(data, 9)

	_, err := DecodeVoteAccount(solana.VoteProgramID, data)
	assert.ErrorIs(t, err, ErrMalformedAccountData)
}

func TestVoteState_AuthorizedVoterLookups(t *testing.T) {
	voteState := NewVoteState()

	_, ok := voteState.LastAuthorizedVoter()
	assert.False(t, ok)

	current, scheduled := newPubkey(t), newPubkey(t)
	voteState.AuthorizedVoters.Insert(20, current)
	voteState.AuthorizedVoters.Insert(30, scheduled)

	voter, ok := voteState.AuthorizedVoterForEpoch(25)
	require.True(t, ok)
	assert.Equal(t, current, voter)

	last, ok := voteState.LastAuthorizedVoter()
	require.True(t, ok)
	assert.Equal(t, AuthorizedVoter{Epoch: 30, Pubkey: scheduled}, last)
}

func TestVoteState_IsInitialized_ZeroedAccount(t *testing.T) {
	decoded, err := DecodeVoteAccount(solana.VoteProgramID, make([]byte, VoteStateV3Size))
	require.NoError(t, err)
	assert.Equal(t, uint32(VoteStateVersionV0_23_5), decoded.Version)
	assert.False(t, decoded.IsInitialized())

	assert.False(t, NewVoteState().IsInitialized())
}
