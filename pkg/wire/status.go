package wire

// Status is an SCMI response status code. Zero is success; failures are
// negative.
type Status int32

const (
	// StatusSuccess indicates the command completed successfully.
	StatusSuccess Status = 0

	// StatusNotSupported indicates the command or capability is not supported.
	StatusNotSupported Status = -1

	// StatusInvalidParameters indicates a malformed or out-of-range argument.
	StatusInvalidParameters Status = -2

	// StatusDenied indicates the agent may not perform the command.
	StatusDenied Status = -3

	// StatusNotFound indicates the addressed object does not exist.
	StatusNotFound Status = -4

	// StatusOutOfRange indicates a value outside the supported range.
	StatusOutOfRange Status = -5

	// StatusBusy indicates the object cannot be changed in its current state.
	StatusBusy Status = -6

	// StatusCommsError indicates a transport failure.
	StatusCommsError Status = -7

	// StatusGenericError indicates an unspecified failure.
	StatusGenericError Status = -8

	// StatusHardwareError indicates the hardware rejected the operation.
	StatusHardwareError Status = -9

	// StatusProtocolError indicates a malformed message.
	StatusProtocolError Status = -10
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusNotSupported:
		return "NOT_SUPPORTED"
	case StatusInvalidParameters:
		return "INVALID_PARAMETERS"
	case StatusDenied:
		return "DENIED"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusOutOfRange:
		return "OUT_OF_RANGE"
	case StatusBusy:
		return "BUSY"
	case StatusCommsError:
		return "COMMS_ERROR"
	case StatusGenericError:
		return "GENERIC_ERROR"
	case StatusHardwareError:
		return "HARDWARE_ERROR"
	case StatusProtocolError:
		return "PROTOCOL_ERROR"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}
