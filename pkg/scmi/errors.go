package scmi

import (
	"errors"
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/wire"
)

// Adaptor errors.
var (
	// ErrDuplicateBinding indicates a (channel, id) pair already in use.
	ErrDuplicateBinding = errors.New("duplicate clock binding")

	// ErrNotFound indicates no clock is bound to (channel, id).
	ErrNotFound = fmt.Errorf("%w: clock not bound", clk.ErrInvalidArgument)

	// ErrNotSupported indicates the clock does not implement the request.
	ErrNotSupported = errors.New("not supported")

	// ErrEnableFailed indicates the tree refused to enable a clock for an
	// agent. Agents only see a generic failure.
	ErrEnableFailed = errors.New("clock enable failed")
)

// StatusOf maps an error to a protocol status. Nil maps to success.
func StatusOf(err error) wire.Status {
	switch {
	case err == nil:
		return wire.StatusSuccess
	case errors.Is(err, ErrEnableFailed):
		return wire.StatusGenericError
	case errors.Is(err, ErrNotFound):
		return wire.StatusNotFound
	case errors.Is(err, ErrNotSupported):
		return wire.StatusNotSupported
	case errors.Is(err, clk.ErrBusy):
		return wire.StatusBusy
	case errors.Is(err, clk.ErrOutOfRange):
		return wire.StatusOutOfRange
	case errors.Is(err, clk.ErrUnsupportedRate),
		errors.Is(err, clk.ErrInvalidArgument),
		errors.Is(err, ErrDuplicateBinding):
		return wire.StatusInvalidParameters
	case errors.Is(err, clk.ErrHardware):
		return wire.StatusHardwareError
	case errors.Is(err, wire.ErrInvalidPayload), errors.Is(err, wire.ErrInvalidMessage):
		return wire.StatusProtocolError
	default:
		return wire.StatusGenericError
	}
}

// StatusError is a failed response received by a Client.
type StatusError struct {
	Status  wire.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	}
	return e.Status.String()
}

// statusError creates an error from a response status.
func statusError(status wire.Status, payload any) error {
	var ep wire.ErrorPayload
	msg := ""
	if err := wire.DecodePayload(payload, &ep); err == nil {
		msg = ep.Message
	}
	return &StatusError{Status: status, Message: msg}
}
