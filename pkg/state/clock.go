package state

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

const ClockSize = 40

// Clock is the clock sysvar. UnixTimestamp is the cluster's stake weighted
// time, which is what stake lockups are compared against.
type Clock struct {
	Slot                uint64
	EpochStartTimestamp int64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	UnixTimestamp       int64
}

func (clock *Clock) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	clock.Slot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Slot when decoding Clock: %w", err)
	}

	clock.EpochStartTimestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read EpochStartTimestamp when decoding Clock: %w", err)
	}

	clock.Epoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Epoch when decoding Clock: %w", err)
	}

	clock.LeaderScheduleEpoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LeaderScheduleEpoch when decoding Clock: %w", err)
	}

	clock.UnixTimestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read UnixTimestamp when decoding Clock: %w", err)
	}
	return nil
}

func (clock *Clock) MarshalWithEncoder(encoder *bin.Encoder) error {
	for _, v := range []uint64{
		clock.Slot,
		uint64(clock.EpochStartTimestamp),
		clock.Epoch,
		clock.LeaderScheduleEpoch,
		uint64(clock.UnixTimestamp),
	} {
		err := encoder.WriteUint64(v, bin.LE)
		if err != nil {
			return err
		}
	}
	return nil
}

func DecodeClock(data []byte) (*Clock, error) {
	clock := new(Clock)
	err := clock.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, &MalformedAccountDataError{Kind: "clock", Err: err}
	}
	return clock, nil
}

func EncodeClock(clock *Clock) ([]byte, error) {
	buffer := new(bytes.Buffer)
	err := clock.MarshalWithEncoder(bin.NewBinEncoder(buffer))
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
