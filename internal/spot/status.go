package spot

import (
	"errors"
	"fmt"
)

// Status is the current belief about spot occupancy. The values are the
// strings published on the status topic.
type Status string

const (
	StatusInitializing Status = "INICIANDO"
	StatusFree         Status = "LIVRE"
	StatusOccupied     Status = "OCUPADA"
	StatusInMotion     Status = "MOVIMENTACAO"
)

// ErrUnknownStatus is returned by ParseStatus for anything but the three
// published values.
var ErrUnknownStatus = errors.New("unknown spot status")

// ParseStatus accepts LIVRE, OCUPADA and MOVIMENTACAO.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusFree, StatusOccupied, StatusInMotion:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

func (s Status) String() string { return string(s) }

// IndicatorLevel selects which of the three lamps is lit.
type IndicatorLevel int

const (
	// IndicatorOff is only seen before the first classification.
	IndicatorOff IndicatorLevel = iota
	IndicatorGreen
	IndicatorYellow
	IndicatorRed
)

func (l IndicatorLevel) String() string {
	switch l {
	case IndicatorGreen:
		return "GREEN"
	case IndicatorYellow:
		return "YELLOW"
	case IndicatorRed:
		return "RED"
	default:
		return "OFF"
	}
}

// Outputs returns the green, yellow and red output levels. At most one is true.
func (l IndicatorLevel) Outputs() (green, yellow, red bool) {
	return l == IndicatorGreen, l == IndicatorYellow, l == IndicatorRed
}

// IndicatorFor maps a status to its lamp.
func IndicatorFor(s Status) IndicatorLevel {
	switch s {
	case StatusFree:
		return IndicatorGreen
	case StatusInMotion:
		return IndicatorYellow
	case StatusOccupied:
		return IndicatorRed
	default:
		return IndicatorOff
	}
}
