package vote

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/scilla/pkg/output"
	"github.com/Overclock-Validator/scilla/pkg/state"
	"github.com/Overclock-Validator/scilla/pkg/vote"
)

func fieldMap(fields []output.Field) map[string]output.Field {
	m := make(map[string]output.Field, len(fields))
	for _, field := range fields {
		m[field.Key] = field
	}
	return m
}

func TestSummaryFields(t *testing.T) {
	current := solana.PublicKey{5}
	lastVoted := uint64(1001)
	summary := &vote.Summary{
		Pubkey:            solana.PublicKey{1},
		Lamports:          27_074_400,
		Identity:          solana.PublicKey{2},
		AuthorizedVoter:   &current,
		Withdrawer:        solana.PublicKey{3},
		CommissionPercent: 5,
		Credits:           250,
		LastVotedSlot:     &lastVoted,
		ScheduledVoter:    &state.AuthorizedVoter{Epoch: 30, Pubkey: solana.PublicKey{6}},
		AuthorizedVoters: []state.AuthorizedVoter{
			{Epoch: 20, Pubkey: current},
			{Epoch: 30, Pubkey: solana.PublicKey{6}},
		},
		EpochCredits: []state.EpochCredits{
			{Epoch: 89, Credits: 100},
			{Epoch: 90, Credits: 250, PrevCredits: 100},
		},
	}

	fields := fieldMap(summaryFields(summary))
	assert.Equal(t, "5%", fields["Commission"].Value)
	assert.Equal(t, current.String(), fields["Authorized Voter"].Value)
	assert.Equal(t, solana.PublicKey{6}.String()+" from epoch 30", fields["Scheduled Voter"].Value)
	assert.Equal(t, uint64(1001), fields["Last Voted Slot"].Value)
	assert.NotContains(t, fields, "Root Slot")
	assert.NotContains(t, fields, "Last Timestamp")
	assert.Len(t, fields["Authorized Voters"].Children, 2)

	credits := fields["Recent Epoch Credits"].Children
	require.Len(t, credits, 2)
	assert.Equal(t, "Epoch 90", credits[0].Key)
	assert.Equal(t, uint64(150), credits[0].Value)
	assert.Equal(t, uint64(100), credits[1].Value)
}

func TestSummaryFields_NoVoter(t *testing.T) {
	fields := fieldMap(summaryFields(&vote.Summary{
		AuthorizedVoters: []state.AuthorizedVoter{{Epoch: 50, Pubkey: solana.PublicKey{7}}},
	}))
	assert.Equal(t, "none", fields["Authorized Voter"].Value)
	assert.NotContains(t, fields, "Scheduled Voter")
	assert.NotContains(t, fields, "Authorized Voters")
	assert.NotContains(t, fields, "Recent Epoch Credits")
}
