package clk

import "errors"

// Errors returned by tree operations. Drivers wrap ErrUnsupportedRate and
// ErrOutOfRange when refusing a rate.
var (
	// ErrConfiguration indicates a node that cannot be registered.
	ErrConfiguration = errors.New("invalid clock configuration")

	// ErrHardware indicates the hardware refused an enable or parent switch.
	ErrHardware = errors.New("clock hardware error")

	// ErrUnsupportedRate indicates no divider setting produces the rate.
	ErrUnsupportedRate = errors.New("unsupported rate")

	// ErrOutOfRange indicates a rate or input outside the supported band.
	ErrOutOfRange = errors.New("rate out of range")

	// ErrBusy indicates a gated change attempted while the clock is enabled.
	ErrBusy = errors.New("clock busy")

	// ErrInvalidArgument indicates a bad parent index, an unknown node or a
	// missing capability.
	ErrInvalidArgument = errors.New("invalid argument")
)

// driverError keeps recognized driver errors and marks everything else as a
// hardware failure.
func driverError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnsupportedRate),
		errors.Is(err, ErrOutOfRange),
		errors.Is(err, ErrBusy),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrHardware):
		return err
	default:
		return errors.Join(ErrHardware, err)
	}
}
