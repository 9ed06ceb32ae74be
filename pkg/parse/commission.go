package parse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const MaxCommission = 100

var (
	ErrInvalidCommission    = errors.New("commission is not a whole number")
	ErrCommissionOutOfRange = errors.New("commission must be between 0 and 100")
)

// Commission is a vote account commission in whole percent.
type Commission uint8

// ParseCommission accepts an integer percentage in [0, 100]. Empty input
// means zero commission.
func ParseCommission(input string) (Commission, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	value, err := strconv.ParseUint(input, 10, 8)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %s", ErrCommissionOutOfRange, input)
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidCommission, input)
	}

	if value > MaxCommission {
		return 0, fmt.Errorf("%w: %d", ErrCommissionOutOfRange, value)
	}

	return Commission(value), nil
}

func (c Commission) BasisPoints() uint16 {
	return uint16(c) * 100
}
