package state

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/tidwall/btree"
)

type AuthorizedVoter struct {
	Epoch  uint64
	Pubkey solana.PublicKey
}

// AuthorizedVoters is the epoch-indexed history of vote authorities. An
// entry applies from its epoch until the next entry's epoch.
type AuthorizedVoters struct {
	voters *btree.BTreeG[AuthorizedVoter]
}

func NewAuthorizedVoters() *AuthorizedVoters {
	return &AuthorizedVoters{
		voters: btree.NewBTreeG(func(a, b AuthorizedVoter) bool {
			return a.Epoch < b.Epoch
		}),
	}
}

func (authVoters *AuthorizedVoters) Insert(epoch uint64, pubkey solana.PublicKey) {
	authVoters.voters.Set(AuthorizedVoter{Epoch: epoch, Pubkey: pubkey})
}

func (authVoters *AuthorizedVoters) Len() int {
	return authVoters.voters.Len()
}

// ForEpoch returns the voter in effect at epoch: the entry with the greatest
// epoch that is not after it.
func (authVoters *AuthorizedVoters) ForEpoch(epoch uint64) (solana.PublicKey, bool) {
	var (
		voter solana.PublicKey
		found bool
	)
	authVoters.voters.Descend(AuthorizedVoter{Epoch: epoch}, func(item AuthorizedVoter) bool {
		voter, found = item.Pubkey, true
		return false
	})
	return voter, found
}

// Last returns the entry with the highest epoch, which may be scheduled for
// a future epoch.
func (authVoters *AuthorizedVoters) Last() (AuthorizedVoter, bool) {
	return authVoters.voters.Max()
}

func (authVoters *AuthorizedVoters) All() []AuthorizedVoter {
	voters := make([]AuthorizedVoter, 0, authVoters.voters.Len())
	authVoters.voters.Scan(func(item AuthorizedVoter) bool {
		voters = append(voters, item)
		return true
	})
	return voters
}

func (authVoter *AuthorizedVoter) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	authVoter.Epoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read epoch when decoding AuthorizedVoter: %w", err)
	}

	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read pubkey when decoding AuthorizedVoter: %w", err)
	}
	copy(authVoter.Pubkey[:], pk)
	return nil
}

func (authVoter *AuthorizedVoter) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(authVoter.Epoch, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(authVoter.Pubkey[:], false)
}

func (authVoters *AuthorizedVoters) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	numAuthVoters, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read number of authorized voters when decoding AuthorizedVoters: %w", err)
	}

	err = checkLength(numAuthVoters, authorizedVoterSize, decoder.Remaining(), "authorized voters")
	if err != nil {
		return err
	}

	for count := uint64(0); count < numAuthVoters; count++ {
		var authVoter AuthorizedVoter
		err = authVoter.UnmarshalWithDecoder(decoder)
		if err != nil {
			return err
		}
		authVoters.voters.Set(authVoter)
	}
	return nil
}

func (authVoters *AuthorizedVoters) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(uint64(authVoters.voters.Len()), bin.LE)
	if err != nil {
		return err
	}
	authVoters.voters.Scan(func(authVoter AuthorizedVoter) bool {
		err = authVoter.MarshalWithEncoder(encoder)
		return err == nil
	})
	return err
}
