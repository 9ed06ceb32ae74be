package state

import (
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	StakeAccountSize = 200

	// DeactivationEpochNone marks a delegation that is not deactivating.
	DeactivationEpochNone = math.MaxUint64
)

const (
	StakeStateUninitialized = iota
	StakeStateInitialized
	StakeStateStake
	StakeStateRewardsPool
)

type Authorized struct {
	Staker     solana.PublicKey
	Withdrawer solana.PublicKey
}

type Lockup struct {
	UnixTimestamp int64
	Epoch         uint64
	Custodian     solana.PublicKey
}

type Meta struct {
	RentExemptReserve uint64
	Authorized        Authorized
	Lockup            Lockup
}

type Delegation struct {
	VoterPubkey        solana.PublicKey
	Stake              uint64
	ActivationEpoch    uint64
	DeactivationEpoch  uint64
	WarmupCooldownRate float64
}

type Stake struct {
	Delegation      Delegation
	CreditsObserved uint64
}

type StakeFlags struct {
	Bits byte
}

type StakeStateInitializedData struct {
	Meta Meta
}

type StakeStateStakeData struct {
	Meta       Meta
	Stake      Stake
	StakeFlags StakeFlags
}

// StakeState is the decoded stake account. Status selects which of the
// variant fields is meaningful.
type StakeState struct {
	Status      uint32
	Initialized StakeStateInitializedData
	Stake       StakeStateStakeData
}

func (state *StakeState) StatusName() string {
	switch state.Status {
	case StakeStateUninitialized:
		return "uninitialized"
	case StakeStateInitialized:
		return "initialized"
	case StakeStateStake:
		return "delegated"
	case StakeStateRewardsPool:
		return "rewards pool"
	default:
		return fmt.Sprintf("unknown(%d)", state.Status)
	}
}

// Meta returns the account metadata for the Initialized and Stake variants.
func (state *StakeState) Meta() (*Meta, bool) {
	switch state.Status {
	case StakeStateInitialized:
		return &state.Initialized.Meta, true
	case StakeStateStake:
		return &state.Stake.Meta, true
	default:
		return nil, false
	}
}

// Delegation returns the delegation of the Stake variant.
func (state *StakeState) Delegation() (*Delegation, bool) {
	if state.Status != StakeStateStake {
		return nil, false
	}
	return &state.Stake.Stake.Delegation, true
}

func (delegation *Delegation) IsDeactivating() bool {
	return delegation.DeactivationEpoch != DeactivationEpochNone
}

func (authorized *Authorized) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read staker when decoding Authorized: %w", err)
	}
	copy(authorized.Staker[:], pk)

	pk, err = decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read withdrawer when decoding Authorized: %w", err)
	}
	copy(authorized.Withdrawer[:], pk)
	return nil
}

func (authorized *Authorized) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(authorized.Staker[:], false)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(authorized.Withdrawer[:], false)
}

func (lockup *Lockup) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	lockup.UnixTimestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read unix timestamp when decoding Lockup: %w", err)
	}

	lockup.Epoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read epoch when decoding Lockup: %w", err)
	}

	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read custodian when decoding Lockup: %w", err)
	}
	copy(lockup.Custodian[:], pk)

	return nil
}

func (lockup *Lockup) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteInt64(lockup.UnixTimestamp, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(lockup.Epoch, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteBytes(lockup.Custodian[:], false)
}

func (meta *Meta) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	meta.RentExemptReserve, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read rent exempt reserve when decoding Meta: %w", err)
	}

	err = meta.Authorized.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}

	return meta.Lockup.UnmarshalWithDecoder(decoder)
}

func (meta *Meta) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(meta.RentExemptReserve, bin.LE)
	if err != nil {
		return err
	}

	err = meta.Authorized.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}

	return meta.Lockup.MarshalWithEncoder(encoder)
}

func (delegation *Delegation) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	voterPubkey, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read voter when decoding Delegation: %w", err)
	}
	copy(delegation.VoterPubkey[:], voterPubkey)

	delegation.Stake, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read stake when decoding Delegation: %w", err)
	}

	delegation.ActivationEpoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read activation epoch when decoding Delegation: %w", err)
	}

	delegation.DeactivationEpoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read deactivation epoch when decoding Delegation: %w", err)
	}

	delegation.WarmupCooldownRate, err = decoder.ReadFloat64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read warmup cooldown rate when decoding Delegation: %w", err)
	}
	return nil
}

func (delegation *Delegation) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(delegation.VoterPubkey[:], false)
	if err != nil {
		return err
	}

	for _, v := range []uint64{delegation.Stake, delegation.ActivationEpoch, delegation.DeactivationEpoch} {
		err = encoder.WriteUint64(v, bin.LE)
		if err != nil {
			return err
		}
	}

	return encoder.WriteFloat64(delegation.WarmupCooldownRate, bin.LE)
}

func (stake *Stake) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	err := stake.Delegation.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}

	stake.CreditsObserved, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read credits observed when decoding Stake: %w", err)
	}
	return nil
}

func (stake *Stake) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := stake.Delegation.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(stake.CreditsObserved, bin.LE)
}

func (state *StakeState) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	state.Status, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read status when decoding StakeState: %w", err)
	}

	switch state.Status {
	case StakeStateUninitialized:
		{
			// nothing to deserialize
		}

	case StakeStateInitialized:
		{
			err = state.Initialized.Meta.UnmarshalWithDecoder(decoder)
		}

	case StakeStateStake:
		{
			err = state.Stake.Meta.UnmarshalWithDecoder(decoder)
			if err != nil {
				return err
			}

			err = state.Stake.Stake.UnmarshalWithDecoder(decoder)
			if err != nil {
				return err
			}

			state.Stake.StakeFlags.Bits, err = decoder.ReadByte()
			if err != nil {
				err = fmt.Errorf("failed to read stake flags when decoding StakeState: %w", err)
			}
		}

	case StakeStateRewardsPool:
		{
			// nothing to deserialize
		}

	default:
		{
			err = fmt.Errorf("%w: %d", errInvalidStakeStateTag, state.Status)
		}
	}

	return err
}

func (state *StakeState) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(state.Status, bin.LE)
	if err != nil {
		return err
	}

	switch state.Status {
	case StakeStateInitialized:
		{
			err = state.Initialized.Meta.MarshalWithEncoder(encoder)
		}

	case StakeStateStake:
		{
			err = state.Stake.Meta.MarshalWithEncoder(encoder)
			if err != nil {
				return err
			}

			err = state.Stake.Stake.MarshalWithEncoder(encoder)
			if err != nil {
				return err
			}

			err = encoder.WriteByte(state.Stake.StakeFlags.Bits)
		}
	}

	return err
}
