package stake

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/scilla/pkg/state"
)

func newPubkey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

const testReserve = 2_282_880

func testMeta(t *testing.T) state.Meta {
	return state.Meta{
		RentExemptReserve: testReserve,
		Authorized: state.Authorized{
			Staker:     newPubkey(t),
			Withdrawer: newPubkey(t),
		},
	}
}

func initializedAccount(t *testing.T, lamports uint64) *Account {
	return &Account{
		Pubkey:   newPubkey(t),
		Lamports: lamports,
		State: &state.StakeState{
			Status:      state.StakeStateInitialized,
			Initialized: state.StakeStateInitializedData{Meta: testMeta(t)},
		},
	}
}

func delegatedAccount(t *testing.T, lamports uint64, deactivationEpoch uint64) *Account {
	return &Account{
		Pubkey:   newPubkey(t),
		Lamports: lamports,
		State: &state.StakeState{
			Status: state.StakeStateStake,
			Stake: state.StakeStateStakeData{
				Meta: testMeta(t),
				Stake: state.Stake{
					Delegation: state.Delegation{
						VoterPubkey:        newPubkey(t),
						Stake:              lamports - testReserve,
						ActivationEpoch:    100,
						DeactivationEpoch:  deactivationEpoch,
						WarmupCooldownRate: 0.25,
					},
				},
			},
		},
	}
}

func staker(account *Account) solana.PublicKey {
	meta, _ := account.State.Meta()
	return meta.Authorized.Staker
}

func withdrawer(account *Account) solana.PublicKey {
	meta, _ := account.State.Meta()
	return meta.Authorized.Withdrawer
}

func instructionTag(t *testing.T, instruction solana.Instruction) uint32 {
	data, err := instruction.Data()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 4)
	return binary.LittleEndian.Uint32(data)
}

func TestValidateDeactivate_OnlyStaker(t *testing.T) {
	account := delegatedAccount(t, 5_000_000_000, state.DeactivationEpochNone)

	instructions, err := ValidateDeactivate(account, staker(account))
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.Equal(t, solana.StakeProgramID, instructions[0].ProgramID())
	assert.Equal(t, uint32(5), instructionTag(t, instructions[0]))

	for _, caller := range []solana.PublicKey{withdrawer(account), newPubkey(t), account.Pubkey} {
		instructions, err := ValidateDeactivate(account, caller)
		require.ErrorIs(t, err, ErrNotAuthorized)
		assert.Nil(t, instructions)

		var notAuthorized *NotAuthorizedError
		require.ErrorAs(t, err, &notAuthorized)
		assert.Equal(t, "staker", notAuthorized.Role)
		assert.Equal(t, staker(account), notAuthorized.Expected)
		assert.Equal(t, caller, notAuthorized.Actual)
	}
}

func TestValidateDeactivate_AlreadyDeactivating(t *testing.T) {
	account := delegatedAccount(t, 5_000_000_000, 420)

	for _, caller := range []solana.PublicKey{staker(account), withdrawer(account), newPubkey(t)} {
		_, err := ValidateDeactivate(account, caller)
		require.ErrorIs(t, err, ErrAlreadyDeactivating)

		var already *AlreadyDeactivatingError
		require.ErrorAs(t, err, &already)
		assert.Equal(t, uint64(420), already.DeactivationEpoch)
	}
}

func TestValidateDeactivate_WrongState(t *testing.T) {
	account := initializedAccount(t, 5_000_000_000)

	_, err := ValidateDeactivate(account, staker(account))
	require.ErrorIs(t, err, ErrWrongState)

	var wrongState *WrongStateError
	require.ErrorAs(t, err, &wrongState)
	assert.Equal(t, "initialized", wrongState.Status)
}

func TestValidateWithdraw_StillActive(t *testing.T) {
	account := delegatedAccount(t, 5_000_000_000, state.DeactivationEpochNone)

	for _, caller := range []solana.PublicKey{withdrawer(account), newPubkey(t)} {
		_, err := ValidateWithdraw(account, caller, WithdrawParams{Recipient: newPubkey(t), Lamports: 1}, 500)
		require.ErrorIs(t, err, ErrStillActive)
	}
}

func TestValidateWithdraw_CoolingDown(t *testing.T) {
	const deactivationEpoch = 420
	account := delegatedAccount(t, 5_000_000_000, deactivationEpoch)

	for _, currentEpoch := range []uint64{100, 419, 420} {
		_, err := ValidateWithdraw(account, withdrawer(account), WithdrawParams{
			Recipient: newPubkey(t),
			Lamports:  account.Lamports,
		}, currentEpoch)
		require.ErrorIs(t, err, ErrCoolingDown)

		var coolingDown *CoolingDownError
		require.ErrorAs(t, err, &coolingDown)
		assert.Equal(t, deactivationEpoch-currentEpoch, coolingDown.EpochsRemaining)
		assert.Equal(t, currentEpoch, coolingDown.CurrentEpoch)
	}

	instructions, err := ValidateWithdraw(account, withdrawer(account), WithdrawParams{
		Recipient: newPubkey(t),
		Lamports:  account.Lamports,
	}, deactivationEpoch+1)
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.Equal(t, uint32(4), instructionTag(t, instructions[0]))
}

func TestValidateWithdraw_NotAuthorized(t *testing.T) {
	account := initializedAccount(t, 5_000_000_000)

	_, err := ValidateWithdraw(account, staker(account), WithdrawParams{Recipient: newPubkey(t), Lamports: 1}, 500)
	require.ErrorIs(t, err, ErrNotAuthorized)

	var notAuthorized *NotAuthorizedError
	require.ErrorAs(t, err, &notAuthorized)
	assert.Equal(t, "withdrawer", notAuthorized.Role)
}

// An otherwise eligible Initialized account cannot give more than it holds.
func TestValidateWithdraw_InsufficientBalance(t *testing.T) {
	account := initializedAccount(t, 3_000_000_000)

	instructions, err := ValidateWithdraw(account, withdrawer(account), WithdrawParams{
		Recipient: newPubkey(t),
		Lamports:  3_000_000_001,
	}, 500)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, instructions)

	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint64(3_000_000_001), insufficient.Requested)
	assert.Equal(t, uint64(3_000_000_000), insufficient.Available)
}

func TestValidateWithdraw_KeepsRentReserve(t *testing.T) {
	account := initializedAccount(t, 3_000_000_000)
	params := WithdrawParams{Recipient: newPubkey(t)}

	params.Lamports = account.Lamports - testReserve
	_, err := ValidateWithdraw(account, withdrawer(account), params, 500)
	require.NoError(t, err)

	params.Lamports = account.Lamports - testReserve + 1
	_, err = ValidateWithdraw(account, withdrawer(account), params, 500)
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, account.Lamports-testReserve, insufficient.Available)

	// Emptying the account closes it.
	params.Lamports = account.Lamports
	_, err = ValidateWithdraw(account, withdrawer(account), params, 500)
	require.NoError(t, err)
}

func TestValidateWithdraw_Lockup(t *testing.T) {
	account := initializedAccount(t, 3_000_000_000)
	account.State.Initialized.Meta.Lockup.Epoch = 600

	_, err := ValidateWithdraw(account, withdrawer(account), WithdrawParams{Recipient: newPubkey(t), Lamports: 1}, 500)
	require.ErrorIs(t, err, ErrLockupInForce)

	var lockup *LockupInForceError
	require.ErrorAs(t, err, &lockup)
	assert.Equal(t, uint64(600), lockup.LockupEpoch)
}

func TestValidateWithdraw_LockupByClusterTime(t *testing.T) {
	account := initializedAccount(t, 3_000_000_000)
	account.State.Initialized.Meta.Lockup.UnixTimestamp = 1_800_000_000
	params := WithdrawParams{Recipient: newPubkey(t), Lamports: 1, ClusterTime: 1_700_000_000}

	_, err := ValidateWithdraw(account, withdrawer(account), params, 500)
	require.ErrorIs(t, err, ErrLockupInForce)

	var lockup *LockupInForceError
	require.ErrorAs(t, err, &lockup)
	assert.Equal(t, int64(1_800_000_000), lockup.LockupTimestamp)
	assert.Equal(t, int64(1_700_000_000), lockup.ClusterTime)
	assert.Contains(t, err.Error(), "unix time 1800000000")

	params.ClusterTime = 1_800_000_000
	instructions, err := ValidateWithdraw(account, withdrawer(account), params, 500)
	require.NoError(t, err)
	assert.Len(t, instructions, 1)
}

func TestValidateMerge_SameAccountIgnoresState(t *testing.T) {
	for _, status := range []uint32{
		state.StakeStateUninitialized,
		state.StakeStateInitialized,
		state.StakeStateStake,
		state.StakeStateRewardsPool,
	} {
		account := &Account{Pubkey: newPubkey(t), State: &state.StakeState{Status: status}}

		_, err := ValidateMerge(account, account, newPubkey(t))
		require.ErrorIs(t, err, ErrSameAccount, "status %d", status)
	}
}

func sharedAuthorities(destination, source *Account) {
	sourceMeta, _ := source.State.Meta()
	destinationMeta, _ := destination.State.Meta()
	destinationMeta.Authorized = sourceMeta.Authorized
}

func TestValidateMerge(t *testing.T) {
	destination := delegatedAccount(t, 5_000_000_000, state.DeactivationEpochNone)
	source := initializedAccount(t, 3_000_000_000)
	sharedAuthorities(destination, source)

	instructions, err := ValidateMerge(destination, source, staker(source))
	require.NoError(t, err)
	require.Len(t, instructions, 1)

	data, err := instructions[0].Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 0, 0}, data)

	accounts := instructions[0].Accounts()
	require.Len(t, accounts, 5)
	assert.Equal(t, destination.Pubkey, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
	assert.Equal(t, source.Pubkey, accounts[1].PublicKey)
	assert.Equal(t, solana.SysVarStakeHistoryPubkey, accounts[3].PublicKey)
	assert.True(t, accounts[4].IsSigner)
}

func TestValidateMerge_Rejections(t *testing.T) {
	t.Run("destination uninitialized", func(t *testing.T) {
		destination := &Account{Pubkey: newPubkey(t), State: &state.StakeState{Status: state.StakeStateUninitialized}}
		source := initializedAccount(t, 1)

		_, err := ValidateMerge(destination, source, staker(source))
		require.ErrorIs(t, err, ErrInvalidDestinationState)
		assert.NotErrorIs(t, err, ErrInvalidSourceState)
	})

	t.Run("source rewards pool", func(t *testing.T) {
		destination := initializedAccount(t, 1)
		source := &Account{Pubkey: newPubkey(t), State: &state.StakeState{Status: state.StakeStateRewardsPool}}

		_, err := ValidateMerge(destination, source, staker(destination))
		require.ErrorIs(t, err, ErrInvalidSourceState)
	})

	t.Run("source deactivating", func(t *testing.T) {
		destination := initializedAccount(t, 1)
		source := delegatedAccount(t, 5_000_000_000, 420)
		sharedAuthorities(destination, source)

		_, err := ValidateMerge(destination, source, staker(source))
		require.ErrorIs(t, err, ErrSourceDeactivating)
	})

	t.Run("not the source staker", func(t *testing.T) {
		destination := initializedAccount(t, 1)
		source := initializedAccount(t, 1)
		sharedAuthorities(destination, source)

		_, err := ValidateMerge(destination, source, withdrawer(source))
		require.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("different authorities", func(t *testing.T) {
		destination := initializedAccount(t, 1)
		source := initializedAccount(t, 1)

		_, err := ValidateMerge(destination, source, staker(source))
		require.ErrorIs(t, err, ErrAuthorityMismatch)
	})
}

func TestValidateSplit(t *testing.T) {
	const minimumDelegation = 1_000_000_000
	source := delegatedAccount(t, 5_000_000_000, state.DeactivationEpochNone)
	payer, destination := newPubkey(t), newPubkey(t)

	params := SplitParams{
		Payer:             payer,
		Destination:       destination,
		MinimumDelegation: minimumDelegation,
		RentExemptReserve: testReserve,
	}

	for _, lamports := range []uint64{0, 1, minimumDelegation - 1} {
		params.Lamports = lamports
		_, err := ValidateSplit(source, staker(source), params)
		require.ErrorIs(t, err, ErrBelowMinimumDelegation)

		var below *BelowMinimumDelegationError
		require.ErrorAs(t, err, &below)
		assert.Equal(t, uint64(minimumDelegation), below.Minimum)
	}

	for _, lamports := range []uint64{minimumDelegation, 2 * minimumDelegation} {
		params.Lamports = lamports
		instructions, err := ValidateSplit(source, staker(source), params)
		require.NoError(t, err)
		require.Len(t, instructions, 2)

		assert.Equal(t, solana.SystemProgramID, instructions[0].ProgramID())
		assert.Equal(t, payer, instructions[0].Accounts()[0].PublicKey)
		assert.Equal(t, destination, instructions[0].Accounts()[1].PublicKey)

		assert.Equal(t, solana.StakeProgramID, instructions[1].ProgramID())
		assert.Equal(t, uint32(3), instructionTag(t, instructions[1]))
	}
}

func TestValidateSplit_SameAccount(t *testing.T) {
	source := delegatedAccount(t, 5_000_000_000, state.DeactivationEpochNone)

	_, err := ValidateSplit(source, staker(source), SplitParams{
		Destination: source.Pubkey,
		Lamports:    2_000_000_000,
	})
	require.ErrorIs(t, err, ErrSameAccount)
}

func TestValidateSplit_InsufficientBalance(t *testing.T) {
	source := initializedAccount(t, 1_500_000_000)

	_, err := ValidateSplit(source, staker(source), SplitParams{
		Destination:       newPubkey(t),
		Lamports:          2_000_000_000,
		MinimumDelegation: 1_000_000_000,
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func testVoteAccountData(t *testing.T) []byte {
	voteState := state.NewVoteState()
	voteState.NodePubkey = newPubkey(t)
	voteState.AuthorizedWithdrawer = newPubkey(t)
	voteState.AuthorizedVoters.Insert(0, voteState.NodePubkey)

	data, err := state.EncodeVoteState(voteState)
	require.NoError(t, err)
	return data
}

func TestValidateDelegate(t *testing.T) {
	account := initializedAccount(t, 5_000_000_000)
	votePubkey := newPubkey(t)
	voteData := testVoteAccountData(t)

	instructions, err := ValidateDelegate(account, votePubkey, solana.VoteProgramID, voteData, staker(account))
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.Equal(t, uint32(2), instructionTag(t, instructions[0]))

	_, err = ValidateDelegate(account, votePubkey, solana.SystemProgramID, voteData, staker(account))
	require.ErrorIs(t, err, state.ErrWrongOwner)

	_, err = ValidateDelegate(account, votePubkey, solana.VoteProgramID, voteData, withdrawer(account))
	require.ErrorIs(t, err, ErrNotAuthorized)

	active := delegatedAccount(t, 5_000_000_000, state.DeactivationEpochNone)
	_, err = ValidateDelegate(active, votePubkey, solana.VoteProgramID, voteData, staker(active))
	require.ErrorIs(t, err, ErrAlreadyDelegated)

	deactivating := delegatedAccount(t, 5_000_000_000, 420)
	_, err = ValidateDelegate(deactivating, votePubkey, solana.VoteProgramID, voteData, staker(deactivating))
	require.NoError(t, err)
}

func TestBuildCreate(t *testing.T) {
	payer, stakeAccount := newPubkey(t), newPubkey(t)
	params := CreateParams{
		Payer:             payer,
		StakeAccount:      stakeAccount,
		Staker:            newPubkey(t),
		Withdrawer:        newPubkey(t),
		Lamports:          testReserve - 1,
		RentExemptReserve: testReserve,
	}

	_, err := BuildCreate(params)
	require.ErrorIs(t, err, ErrBelowRentExempt)

	params.Lamports = testReserve
	instructions, err := BuildCreate(params)
	require.NoError(t, err)
	require.Len(t, instructions, 2)
	assert.Equal(t, solana.SystemProgramID, instructions[0].ProgramID())
	assert.Equal(t, uint32(0), instructionTag(t, instructions[1]))

	params.StakeAccount = payer
	_, err = BuildCreate(params)
	require.ErrorIs(t, err, ErrSameAccount)
}

func TestDescribe(t *testing.T) {
	active := delegatedAccount(t, 5_000_000_000, state.DeactivationEpochNone)
	deactivating := delegatedAccount(t, 5_000_000_000, 420)
	initialized := initializedAccount(t, 1)

	for _, tc := range []struct {
		account  *Account
		epoch    uint64
		expected ActivationStatus
	}{
		{active, 100, StatusActivating},
		{active, 101, StatusActive},
		{deactivating, 420, StatusDeactivating},
		{deactivating, 421, StatusInactive},
		{initialized, 500, StatusInactive},
	} {
		summary := Describe(tc.account, tc.epoch, nil)
		assert.Equal(t, tc.expected, summary.Status, "%s at epoch %d", summary.State, tc.epoch)
	}

	summary := Describe(deactivating, 400, nil)
	require.NotNil(t, summary.DeactivationEpoch)
	assert.Equal(t, uint64(420), *summary.DeactivationEpoch)
	assert.Equal(t, deactivating.State.Stake.Stake.Delegation.VoterPubkey, *summary.Voter)

	uninitialized := Describe(&Account{State: &state.StakeState{}}, 1, nil)
	assert.Equal(t, "uninitialized", uninitialized.State)
	assert.Empty(t, uninitialized.Status)
	assert.Nil(t, uninitialized.Staker)
	assert.Nil(t, summary.ClusterStake)
}

func TestDescribe_ClusterStakeFromHistory(t *testing.T) {
	account := delegatedAccount(t, 5_000_000_000, state.DeactivationEpochNone)
	history := state.StakeHistory{
		{Epoch: 499, Entry: state.StakeHistoryEntry{Effective: 900, Activating: 50, Deactivating: 10}},
		{Epoch: 498, Entry: state.StakeHistoryEntry{Effective: 800}},
	}

	summary := Describe(account, 500, history)
	require.NotNil(t, summary.ClusterStakeEpoch)
	assert.Equal(t, uint64(499), *summary.ClusterStakeEpoch)
	assert.Equal(t, uint64(50), summary.ClusterStake.Activating)

	// The sysvar has no entry for the epoch before 498.
	summary = Describe(account, 498, history)
	assert.Nil(t, summary.ClusterStake)
	assert.Nil(t, summary.ClusterStakeEpoch)
}
