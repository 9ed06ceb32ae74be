package state

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// MaxStakeHistoryEntries bounds the stake history sysvar. The runtime keeps
// 512 epochs; anything longer is rejected as malformed.
const MaxStakeHistoryEntries = 512

const stakeHistoryEntrySize = 32

type StakeHistoryEntry struct {
	Effective    uint64
	Activating   uint64
	Deactivating uint64
}

type StakeHistoryPair struct {
	Epoch uint64
	Entry StakeHistoryEntry
}

// StakeHistory is ordered newest epoch first, as stored by the runtime.
type StakeHistory []StakeHistoryPair

func (sh *StakeHistory) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	entriesLen, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read length of entries when decoding StakeHistory: %w", err)
	}

	if entriesLen > MaxStakeHistoryEntries {
		return fmt.Errorf("%w: %d stake history entries, limit %d", errLengthExceedsData, entriesLen, MaxStakeHistoryEntries)
	}

	err = checkLength(entriesLen, stakeHistoryEntrySize, decoder.Remaining(), "stake history entries")
	if err != nil {
		return err
	}

	stakeHistory := make(StakeHistory, 0, entriesLen)

	for count := uint64(0); count < entriesLen; count++ {
		stakeHistoryPair := StakeHistoryPair{}
		stakeHistoryPair.Epoch, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Epoch when decoding StakeHistory: %w", err)
		}

		stakeHistoryPair.Entry.Effective, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Effective when decoding StakeHistory: %w", err)
		}

		stakeHistoryPair.Entry.Activating, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Activating when decoding StakeHistory: %w", err)
		}

		stakeHistoryPair.Entry.Deactivating, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Deactivating when decoding StakeHistory: %w", err)
		}

		stakeHistory = append(stakeHistory, stakeHistoryPair)
	}

	*sh = stakeHistory
	return nil
}

func (sh StakeHistory) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(uint64(len(sh)), bin.LE)
	if err != nil {
		return err
	}

	for _, pair := range sh {
		for _, v := range []uint64{pair.Epoch, pair.Entry.Effective, pair.Entry.Activating, pair.Entry.Deactivating} {
			err = encoder.WriteUint64(v, bin.LE)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (sh StakeHistory) Get(epoch uint64) (*StakeHistoryEntry, bool) {
	for i := range sh {
		if sh[i].Epoch == epoch {
			return &sh[i].Entry, true
		}
	}
	return nil, false
}
