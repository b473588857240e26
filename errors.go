package flowcover

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned for a flow record without identifier or
	// path, or with an empty path.
	ErrMalformedRecord = errors.New("flowcover: malformed flow record")

	// ErrUnknownSwitchReference is returned when capacity data names a switch
	// that appears on no flow path.
	ErrUnknownSwitchReference = errors.New("flowcover: unknown switch reference")

	// ErrCapacityShapeMismatch is returned when a capacity array does not have
	// one entry per switch.
	ErrCapacityShapeMismatch = errors.New("flowcover: capacity array length does not match switch count")

	// ErrInvalidCapacity is returned for negative, NaN or infinite capacities.
	ErrInvalidCapacity = errors.New("flowcover: invalid capacity")

	// ErrInvalidPenalty is returned for a negative or NaN assignment penalty.
	ErrInvalidPenalty = errors.New("flowcover: invalid assignment penalty")
)

// RecordError locates a malformed record in its input batch.
type RecordError struct {
	Line   int
	FlowID string
	Reason string
}

func (e *RecordError) Error() string {
	if e.FlowID == "" {
		return fmt.Sprintf("%s: record %d: %s", ErrMalformedRecord, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: record %d (flow %q): %s", ErrMalformedRecord, e.Line, e.FlowID, e.Reason)
}

func (e *RecordError) Unwrap() error { return ErrMalformedRecord }
