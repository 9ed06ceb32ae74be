package state

import (
	"fmt"

	"github.com/edwingeng/deque/v2"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	VoteStateVersionV0_23_5 = iota
	VoteStateVersionV1_14_11
	VoteStateVersionCurrent
	VoteStateVersionV4
)

const (
	VoteStateV2Size = 3731
	VoteStateV3Size = 3762

	// VoteAccountSize is the space allocated for new vote accounts.
	VoteAccountSize = VoteStateV3Size

	MaxLockoutHistory       = 31
	MaxEpochCreditsHistory  = 64
	priorVotersCapacity     = 32
	blsPubkeyCompressedSize = 48
)

const (
	lockoutSize         = 12
	landedVoteSize      = 1 + lockoutSize
	authorizedVoterSize = 8 + solana.PublicKeyLength
	epochCreditsSize    = 24
)

type Lockout struct {
	Slot              uint64
	ConfirmationCount uint32
}

type LandedVote struct {
	Latency byte
	Lockout Lockout
}

type EpochCredits struct {
	Epoch       uint64
	Credits     uint64
	PrevCredits uint64
}

type BlockTimestamp struct {
	Slot      uint64
	Timestamp int64
}

type PriorVoter struct {
	Pubkey     solana.PublicKey
	EpochStart uint64
	EpochEnd   uint64
}

// VoteState is the version independent view of a vote account. Commission
// is always expressed in basis points; versions before V4 store a whole
// percentage which is scaled on decode.
type VoteState struct {
	Version uint32

	NodePubkey           solana.PublicKey
	AuthorizedWithdrawer solana.PublicKey

	// V4 only.
	InflationRewardsCollector solana.PublicKey
	BlockRevenueCollector     solana.PublicKey
	BlockRevenueCommissionBps uint16
	PendingDelegatorRewards   uint64
	BlsPubkeyCompressed       *[blsPubkeyCompressedSize]byte

	CommissionBps    uint16
	Votes            *deque.Deque[LandedVote]
	RootSlot         *uint64
	AuthorizedVoters *AuthorizedVoters
	PriorVoters      []PriorVoter
	EpochCredits     []EpochCredits
	LastTimestamp    BlockTimestamp
}

func NewVoteState() *VoteState {
	return &VoteState{
		Version:          VoteStateVersionCurrent,
		Votes:            deque.NewDeque[LandedVote](),
		AuthorizedVoters: NewAuthorizedVoters(),
	}
}

// CommissionPercent truncates the basis point commission to whole percent.
func (voteState *VoteState) CommissionPercent() uint8 {
	return uint8(voteState.CommissionBps / 100)
}

// Credits returns the lifetime credits earned, zero when no epoch has been
// credited yet.
func (voteState *VoteState) Credits() uint64 {
	if len(voteState.EpochCredits) == 0 {
		return 0
	}
	return voteState.EpochCredits[len(voteState.EpochCredits)-1].Credits
}

func (voteState *VoteState) LastVotedSlot() (uint64, bool) {
	var (
		slot  uint64
		found bool
	)
	voteState.Votes.Range(func(i int, vote LandedVote) bool {
		slot, found = vote.Lockout.Slot, true
		return true
	})
	return slot, found
}

// IsInitialized reports whether the account has been through
// InitializeAccount. A zeroed account decodes as a 0.23.5 state whose voter
// is the zero key.
func (voteState *VoteState) IsInitialized() bool {
	if voteState.Version == VoteStateVersionV0_23_5 {
		voter, ok := voteState.AuthorizedVoters.Last()
		return ok && !voter.Pubkey.IsZero()
	}
	return voteState.AuthorizedVoters.Len() != 0
}

// AuthorizedVoterForEpoch returns the voter in effect at epoch: the entry
// with the greatest epoch not after it.
func (voteState *VoteState) AuthorizedVoterForEpoch(epoch uint64) (solana.PublicKey, bool) {
	return voteState.AuthorizedVoters.ForEpoch(epoch)
}

// LastAuthorizedVoter returns the newest entry, which may be scheduled for a
// future epoch.
func (voteState *VoteState) LastAuthorizedVoter() (AuthorizedVoter, bool) {
	return voteState.AuthorizedVoters.Last()
}

func (lockout *Lockout) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	lockout.Slot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read slot when decoding Lockout: %w", err)
	}

	lockout.ConfirmationCount, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read confirmation count when decoding Lockout: %w", err)
	}
	return nil
}

func (lockout *Lockout) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(lockout.Slot, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteUint32(lockout.ConfirmationCount, bin.LE)
}

func (landedVote *LandedVote) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	landedVote.Latency, err = decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read latency when decoding LandedVote: %w", err)
	}
	return landedVote.Lockout.UnmarshalWithDecoder(decoder)
}

func (landedVote *LandedVote) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(landedVote.Latency)
	if err != nil {
		return err
	}
	return landedVote.Lockout.MarshalWithEncoder(encoder)
}

func (epochCredits *EpochCredits) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	epochCredits.Epoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	epochCredits.Credits, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	epochCredits.PrevCredits, err = decoder.ReadUint64(bin.LE)
	return err
}

func (epochCredits *EpochCredits) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(epochCredits.Epoch, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(epochCredits.Credits, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteUint64(epochCredits.PrevCredits, bin.LE)
}

func (blockTimestamp *BlockTimestamp) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	blockTimestamp.Slot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read slot when decoding BlockTimestamp: %w", err)
	}

	blockTimestamp.Timestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read timestamp when decoding BlockTimestamp: %w", err)
	}
	return nil
}

func (blockTimestamp *BlockTimestamp) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(blockTimestamp.Slot, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteInt64(blockTimestamp.Timestamp, bin.LE)
}

func readPubkey(decoder *bin.Decoder, dst *solana.PublicKey, field string) error {
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read %s when decoding VoteState: %w", field, err)
	}
	copy(dst[:], pk)
	return nil
}

func (voteState *VoteState) decodeLockouts(decoder *bin.Decoder) error {
	numLockouts, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read number of votes when decoding VoteState: %w", err)
	}

	err = checkLength(numLockouts, lockoutSize, decoder.Remaining(), "votes")
	if err != nil {
		return err
	}

	for count := uint64(0); count < numLockouts; count++ {
		var lockout Lockout
		err = lockout.UnmarshalWithDecoder(decoder)
		if err != nil {
			return err
		}
		voteState.Votes.PushBack(LandedVote{Lockout: lockout})
	}
	return nil
}

func (voteState *VoteState) decodeLandedVotes(decoder *bin.Decoder) error {
	numVotes, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read number of votes when decoding VoteState: %w", err)
	}

	err = checkLength(numVotes, landedVoteSize, decoder.Remaining(), "votes")
	if err != nil {
		return err
	}

	for count := uint64(0); count < numVotes; count++ {
		var landedVote LandedVote
		err = landedVote.UnmarshalWithDecoder(decoder)
		if err != nil {
			return err
		}
		voteState.Votes.PushBack(landedVote)
	}
	return nil
}

func (voteState *VoteState) decodeRootSlot(decoder *bin.Decoder) error {
	hasRootSlot, err := decoder.ReadOption()
	if err != nil {
		return fmt.Errorf("failed to read root slot when decoding VoteState: %w", err)
	}

	if hasRootSlot {
		rootSlot, err := decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read root slot when decoding VoteState: %w", err)
		}
		voteState.RootSlot = &rootSlot
	}
	return nil
}

// decodePriorVoters reads the fixed size circular buffer of prior voters.
// V0_23_5 entries carry an extra slot field and the buffer has no
// is_empty flag.
func (voteState *VoteState) decodePriorVoters(decoder *bin.Decoder, legacy bool) error {
	for count := 0; count < priorVotersCapacity; count++ {
		var priorVoter PriorVoter
		err := readPubkey(decoder, &priorVoter.Pubkey, "prior voter")
		if err != nil {
			return err
		}

		priorVoter.EpochStart, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read prior voter epoch when decoding VoteState: %w", err)
		}

		priorVoter.EpochEnd, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read prior voter epoch when decoding VoteState: %w", err)
		}

		if legacy {
			_, err = decoder.ReadUint64(bin.LE)
			if err != nil {
				return fmt.Errorf("failed to read prior voter slot when decoding VoteState: %w", err)
			}
		}

		if !priorVoter.Pubkey.IsZero() {
			voteState.PriorVoters = append(voteState.PriorVoters, priorVoter)
		}
	}

	_, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read prior voters index when decoding VoteState: %w", err)
	}

	if !legacy {
		_, err = decoder.ReadBool()
		if err != nil {
			return fmt.Errorf("failed to read prior voters is_empty when decoding VoteState: %w", err)
		}
	}
	return nil
}

func (voteState *VoteState) decodeEpochCredits(decoder *bin.Decoder) error {
	numEpochCredits, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read number of epoch credits when decoding VoteState: %w", err)
	}

	err = checkLength(numEpochCredits, epochCreditsSize, decoder.Remaining(), "epoch credits")
	if err != nil {
		return err
	}

	voteState.EpochCredits = make([]EpochCredits, 0, numEpochCredits)
	for count := uint64(0); count < numEpochCredits; count++ {
		var epochCredits EpochCredits
		err = epochCredits.UnmarshalWithDecoder(decoder)
		if err != nil {
			return fmt.Errorf("failed to read epoch credits when decoding VoteState: %w", err)
		}
		voteState.EpochCredits = append(voteState.EpochCredits, epochCredits)
	}
	return nil
}

func (voteState *VoteState) decodeV0_23_5(decoder *bin.Decoder) error {
	err := readPubkey(decoder, &voteState.NodePubkey, "node pubkey")
	if err != nil {
		return err
	}

	var authorizedVoter solana.PublicKey
	err = readPubkey(decoder, &authorizedVoter, "authorized voter")
	if err != nil {
		return err
	}

	authorizedVoterEpoch, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read authorized voter epoch when decoding VoteState: %w", err)
	}
	voteState.AuthorizedVoters.Insert(authorizedVoterEpoch, authorizedVoter)

	err = voteState.decodePriorVoters(decoder, true)
	if err != nil {
		return err
	}

	err = readPubkey(decoder, &voteState.AuthorizedWithdrawer, "authorized withdrawer")
	if err != nil {
		return err
	}

	commission, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read commission when decoding VoteState: %w", err)
	}
	voteState.CommissionBps = uint16(commission) * 100

	err = voteState.decodeLockouts(decoder)
	if err != nil {
		return err
	}

	err = voteState.decodeRootSlot(decoder)
	if err != nil {
		return err
	}

	err = voteState.decodeEpochCredits(decoder)
	if err != nil {
		return err
	}

	return voteState.LastTimestamp.UnmarshalWithDecoder(decoder)
}

// decodeV1_14_11 also decodes the Current layout; the two differ only in
// the vote entry type.
func (voteState *VoteState) decodeV1_14_11(decoder *bin.Decoder, landed bool) error {
	err := readPubkey(decoder, &voteState.NodePubkey, "node pubkey")
	if err != nil {
		return err
	}

	err = readPubkey(decoder, &voteState.AuthorizedWithdrawer, "authorized withdrawer")
	if err != nil {
		return err
	}

	commission, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read commission when decoding VoteState: %w", err)
	}
	voteState.CommissionBps = uint16(commission) * 100

	if landed {
		err = voteState.decodeLandedVotes(decoder)
	} else {
		err = voteState.decodeLockouts(decoder)
	}
	if err != nil {
		return err
	}

	err = voteState.decodeRootSlot(decoder)
	if err != nil {
		return err
	}

	err = voteState.AuthorizedVoters.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}

	err = voteState.decodePriorVoters(decoder, false)
	if err != nil {
		return err
	}

	err = voteState.decodeEpochCredits(decoder)
	if err != nil {
		return err
	}

	return voteState.LastTimestamp.UnmarshalWithDecoder(decoder)
}

func (voteState *VoteState) decodeV4(decoder *bin.Decoder) error {
	for _, field := range []struct {
		dst  *solana.PublicKey
		name string
	}{
		{&voteState.NodePubkey, "node pubkey"},
		{&voteState.AuthorizedWithdrawer, "authorized withdrawer"},
		{&voteState.InflationRewardsCollector, "inflation rewards collector"},
		{&voteState.BlockRevenueCollector, "block revenue collector"},
	} {
		err := readPubkey(decoder, field.dst, field.name)
		if err != nil {
			return err
		}
	}

	var err error
	voteState.CommissionBps, err = decoder.ReadUint16(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read inflation rewards commission when decoding VoteState: %w", err)
	}

	voteState.BlockRevenueCommissionBps, err = decoder.ReadUint16(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read block revenue commission when decoding VoteState: %w", err)
	}

	voteState.PendingDelegatorRewards, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read pending delegator rewards when decoding VoteState: %w", err)
	}

	hasBlsPubkey, err := decoder.ReadOption()
	if err != nil {
		return fmt.Errorf("failed to read bls pubkey when decoding VoteState: %w", err)
	}
	if hasBlsPubkey {
		blsPubkey, err := decoder.ReadBytes(blsPubkeyCompressedSize)
		if err != nil {
			return fmt.Errorf("failed to read bls pubkey when decoding VoteState: %w", err)
		}
		voteState.BlsPubkeyCompressed = new([blsPubkeyCompressedSize]byte)
		copy(voteState.BlsPubkeyCompressed[:], blsPubkey)
	}

	err = voteState.decodeLandedVotes(decoder)
	if err != nil {
		return err
	}

	err = voteState.decodeRootSlot(decoder)
	if err != nil {
		return err
	}

	err = voteState.AuthorizedVoters.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}

	err = voteState.decodeEpochCredits(decoder)
	if err != nil {
		return err
	}

	return voteState.LastTimestamp.UnmarshalWithDecoder(decoder)
}

func (voteState *VoteState) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	if voteState.Votes == nil {
		voteState.Votes = deque.NewDeque[LandedVote]()
	}
	if voteState.AuthorizedVoters == nil {
		voteState.AuthorizedVoters = NewAuthorizedVoters()
	}

	var err error
	voteState.Version, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read version when decoding VoteState: %w", err)
	}

	switch voteState.Version {
	case VoteStateVersionV0_23_5:
		{
			err = voteState.decodeV0_23_5(decoder)
		}
	case VoteStateVersionV1_14_11:
		{
			err = voteState.decodeV1_14_11(decoder, false)
		}
	case VoteStateVersionCurrent:
		{
			err = voteState.decodeV1_14_11(decoder, true)
		}
	case VoteStateVersionV4:
		{
			err = voteState.decodeV4(decoder)
		}
	default:
		{
			err = fmt.Errorf("%w: %d", errInvalidVoteStateTag, voteState.Version)
		}
	}
	return err
}
