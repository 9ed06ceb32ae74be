package vote

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/scilla/pkg/rpcclient"
	"github.com/Overclock-Validator/scilla/pkg/state"
)

const testRent = 27_074_400

func newPubkey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

func testAccount(t *testing.T, lamports uint64) *Account {
	voteState := state.NewVoteState()
	voteState.NodePubkey = newPubkey(t)
	voteState.AuthorizedWithdrawer = newPubkey(t)
	voteState.CommissionBps = 500
	voteState.AuthorizedVoters.Insert(0, voteState.NodePubkey)

	return &Account{Pubkey: newPubkey(t), Lamports: lamports, State: voteState}
}

func instructionData(t *testing.T, instruction solana.Instruction) []byte {
	data, err := instruction.Data()
	require.NoError(t, err)
	return data
}

func TestValidateCreate(t *testing.T) {
	params := CreateParams{
		Payer:       newPubkey(t),
		VoteAccount: newPubkey(t),
		Identity:    newPubkey(t),
		Withdrawer:  newPubkey(t),
		Commission:  10,
	}

	instructions, err := ValidateCreate(params, nil, testRent)
	require.NoError(t, err)
	require.Len(t, instructions, 2)

	create := instructions[0]
	assert.Equal(t, solana.SystemProgramID, create.ProgramID())
	createData := instructionData(t, create)
	assert.Equal(t, uint64(testRent), binary.LittleEndian.Uint64(createData[4:]))
	assert.Equal(t, uint64(state.VoteAccountSize), binary.LittleEndian.Uint64(createData[12:]))

	initialize := instructions[1]
	assert.Equal(t, solana.VoteProgramID, initialize.ProgramID())
	data := instructionData(t, initialize)
	require.Len(t, data, 4+32*3+1)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data))
	assert.Equal(t, params.Identity[:], data[4:36])
	// voter defaults to the identity
	assert.Equal(t, params.Identity[:], data[36:68])
	assert.Equal(t, params.Withdrawer[:], data[68:100])
	assert.Equal(t, byte(10), data[100])

	accounts := initialize.Accounts()
	require.Len(t, accounts, 4)
	assert.Equal(t, params.Identity, accounts[3].PublicKey)
	assert.True(t, accounts[3].IsSigner)
}

func TestValidateCreate_ExplicitVoter(t *testing.T) {
	params := CreateParams{
		Payer:       newPubkey(t),
		VoteAccount: newPubkey(t),
		Identity:    newPubkey(t),
		Voter:       newPubkey(t),
		Withdrawer:  newPubkey(t),
	}

	instructions, err := ValidateCreate(params, nil, 0)
	require.NoError(t, err)

	data := instructionData(t, instructions[1])
	assert.Equal(t, params.Voter[:], data[36:68])

	// zero rent still funds the account with one lamport
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(instructionData(t, instructions[0])[4:]))
}

func TestValidateCreate_Rejections(t *testing.T) {
	payer, voteAccount, identity := newPubkey(t), newPubkey(t), newPubkey(t)

	_, err := ValidateCreate(CreateParams{Payer: payer, VoteAccount: payer, Identity: identity}, nil, testRent)
	require.ErrorIs(t, err, ErrPayerIsVoteAccount)

	_, err = ValidateCreate(CreateParams{Payer: payer, VoteAccount: voteAccount, Identity: voteAccount}, nil, testRent)
	require.ErrorIs(t, err, ErrVoteAccountIsIdentity)

	params := CreateParams{Payer: payer, VoteAccount: voteAccount, Identity: identity}

	_, err = ValidateCreate(params, &rpcclient.Account{Pubkey: voteAccount, Owner: solana.VoteProgramID}, testRent)
	var exists *AccountExistsError
	require.ErrorAs(t, err, &exists)
	assert.True(t, exists.IsVoteAccount)
	assert.ErrorIs(t, err, ErrAccountExists)

	_, err = ValidateCreate(params, &rpcclient.Account{Pubkey: voteAccount, Owner: solana.SystemProgramID}, testRent)
	require.ErrorAs(t, err, &exists)
	assert.False(t, exists.IsVoteAccount)
	assert.Contains(t, err.Error(), "not a vote account")
}

// The voter recorded for the current epoch may rotate, not the latest entry
// and not an earlier one.
func TestValidateAuthorizeVoter_EpochIndexed(t *testing.T) {
	account := testAccount(t, testRent)
	previous, current, scheduled := newPubkey(t), newPubkey(t), newPubkey(t)
	account.State.AuthorizedVoters = state.NewAuthorizedVoters()
	account.State.AuthorizedVoters.Insert(10, previous)
	account.State.AuthorizedVoters.Insert(20, current)
	account.State.AuthorizedVoters.Insert(30, scheduled)

	newVoter := newPubkey(t)

	for _, caller := range []solana.PublicKey{current, account.State.AuthorizedWithdrawer} {
		instructions, err := ValidateAuthorizeVoter(account, caller, newVoter, 25)
		require.NoError(t, err)
		require.Len(t, instructions, 1)

		data := instructionData(t, instructions[0])
		require.Len(t, data, 4+32+4)
		assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data))
		assert.Equal(t, newVoter[:], data[4:36])
		assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[36:]))

		accounts := instructions[0].Accounts()
		assert.Equal(t, caller, accounts[2].PublicKey)
		assert.True(t, accounts[2].IsSigner)
	}

	for _, caller := range []solana.PublicKey{previous, scheduled, newPubkey(t)} {
		_, err := ValidateAuthorizeVoter(account, caller, newVoter, 25)
		require.ErrorIs(t, err, ErrNotAuthorized)

		var notAuthorized *NotAuthorizedError
		require.ErrorAs(t, err, &notAuthorized)
		assert.Equal(t, []solana.PublicKey{current, account.State.AuthorizedWithdrawer}, notAuthorized.Expected)
	}

	_, err := ValidateAuthorizeVoter(account, scheduled, newVoter, 30)
	require.NoError(t, err)

	_, err = ValidateAuthorizeVoter(account, previous, newVoter, 5)
	require.ErrorIs(t, err, ErrNoAuthorizedVoter)
}

func TestValidateWithdraw(t *testing.T) {
	account := testAccount(t, 10*testRent)
	withdrawer := account.State.AuthorizedWithdrawer
	recipient := newPubkey(t)

	_, err := ValidateWithdraw(account, account.State.NodePubkey, recipient, 1, testRent)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = ValidateWithdraw(account, withdrawer, recipient, account.Lamports+1, testRent)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = ValidateWithdraw(account, withdrawer, recipient, account.Lamports-testRent+1, testRent)
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, account.Lamports-testRent, insufficient.Available)

	for _, lamports := range []uint64{1, account.Lamports - testRent, account.Lamports} {
		instructions, err := ValidateWithdraw(account, withdrawer, recipient, lamports, testRent)
		require.NoError(t, err)
		require.Len(t, instructions, 1)

		data := instructionData(t, instructions[0])
		require.Len(t, data, 12)
		assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data))
		assert.Equal(t, lamports, binary.LittleEndian.Uint64(data[4:]))

		accounts := instructions[0].Accounts()
		require.Len(t, accounts, 3)
		assert.Equal(t, account.Pubkey, accounts[0].PublicKey)
		assert.Equal(t, recipient, accounts[1].PublicKey)
		assert.Equal(t, withdrawer, accounts[2].PublicKey)
	}
}

func voteAccountsView(pubkey solana.PublicKey, current, delinquent uint64) *rpc.GetVoteAccountsResult {
	result := &rpc.GetVoteAccountsResult{}
	if current != 0 {
		result.Current = append(result.Current, rpc.VoteAccountsResult{VotePubkey: pubkey, ActivatedStake: current})
	}
	if delinquent != 0 {
		result.Delinquent = append(result.Delinquent, rpc.VoteAccountsResult{VotePubkey: pubkey, ActivatedStake: delinquent})
	}
	return result
}

// Active stake in the cluster view blocks closing even though the balance
// could otherwise be withdrawn.
func TestValidateClose_ActiveStake(t *testing.T) {
	account := testAccount(t, 10*testRent)
	withdrawer := account.State.AuthorizedWithdrawer

	for _, view := range []*rpc.GetVoteAccountsResult{
		voteAccountsView(account.Pubkey, 42_000_000_000, 0),
		voteAccountsView(account.Pubkey, 0, 7),
	} {
		instructions, err := ValidateClose(account, withdrawer, newPubkey(t), view)
		require.ErrorIs(t, err, ErrHasActiveStake)
		assert.Nil(t, instructions)

		var active *HasActiveStakeError
		require.ErrorAs(t, err, &active)
		assert.NotZero(t, active.ActivatedStake)
	}
}

func TestValidateClose(t *testing.T) {
	account := testAccount(t, 10*testRent)
	withdrawer := account.State.AuthorizedWithdrawer
	destination := newPubkey(t)

	// other vote accounts' stake is irrelevant
	view := voteAccountsView(newPubkey(t), 42_000_000_000, 0)

	_, err := ValidateClose(account, account.State.NodePubkey, destination, view)
	require.ErrorIs(t, err, ErrNotAuthorized)

	instructions, err := ValidateClose(account, withdrawer, destination, view)
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.Equal(t, account.Lamports, binary.LittleEndian.Uint64(instructionData(t, instructions[0])[4:]))

	account.Lamports = 0
	_, err = ValidateClose(account, withdrawer, destination, nil)
	require.ErrorIs(t, err, ErrNothingToReclaim)
}

func TestSummarize(t *testing.T) {
	account := testAccount(t, testRent)
	rootSlot := uint64(1000)
	account.State.RootSlot = &rootSlot
	for epoch := uint64(1); epoch <= 8; epoch++ {
		account.State.EpochCredits = append(account.State.EpochCredits, state.EpochCredits{
			Epoch:       epoch,
			Credits:     epoch * 100,
			PrevCredits: (epoch - 1) * 100,
		})
	}
	account.State.Votes.PushBack(state.LandedVote{Lockout: state.Lockout{Slot: 1001}})

	summary := Summarize(account, 8)
	assert.Equal(t, uint8(5), summary.CommissionPercent)
	assert.Equal(t, uint64(800), summary.Credits)
	require.NotNil(t, summary.AuthorizedVoter)
	assert.Equal(t, account.State.NodePubkey, *summary.AuthorizedVoter)
	assert.Len(t, summary.EpochCredits, recentEpochCredits)
	assert.Equal(t, uint64(8), summary.EpochCredits[recentEpochCredits-1].Epoch)
	require.NotNil(t, summary.LastVotedSlot)
	assert.Equal(t, uint64(1001), *summary.LastVotedSlot)
	assert.Equal(t, &rootSlot, summary.RootSlot)
}

func TestSummarize_ScheduledVoter(t *testing.T) {
	account := testAccount(t, testRent)
	scheduled := newPubkey(t)
	account.State.AuthorizedVoters.Insert(12, scheduled)

	summary := Summarize(account, 10)
	require.NotNil(t, summary.AuthorizedVoter)
	assert.Equal(t, account.State.NodePubkey, *summary.AuthorizedVoter)
	require.NotNil(t, summary.ScheduledVoter)
	assert.Equal(t, state.AuthorizedVoter{Epoch: 12, Pubkey: scheduled}, *summary.ScheduledVoter)

	summary = Summarize(account, 12)
	assert.Equal(t, scheduled, *summary.AuthorizedVoter)
	assert.Nil(t, summary.ScheduledVoter)

	account.State.AuthorizedVoters.Insert(14, scheduled)
	assert.Nil(t, Summarize(account, 12).ScheduledVoter)
}
