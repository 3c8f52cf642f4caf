package wire

import "fmt"

// Protocol identifies a protocol carried on the management channel.
type Protocol uint8

const (
	// ProtocolBase is the discovery protocol every platform implements.
	ProtocolBase Protocol = 0x10

	// ProtocolClock is the clock management protocol.
	ProtocolClock Protocol = 0x14
)

// String returns the protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolBase:
		return "BASE"
	case ProtocolClock:
		return "CLOCK"
	default:
		return fmt.Sprintf("PROTOCOL_%#x", uint8(p))
	}
}

// Commands shared by every protocol.
const (
	CmdProtocolVersion    uint8 = 0x0
	CmdProtocolAttributes uint8 = 0x1
	CmdMessageAttributes  uint8 = 0x2
)

// Base protocol commands.
const (
	CmdBaseDiscoverVendor        uint8 = 0x3
	CmdBaseDiscoverSubVendor     uint8 = 0x4
	CmdBaseDiscoverImplVersion   uint8 = 0x5
	CmdBaseDiscoverListProtocols uint8 = 0x6
)

// Clock protocol commands.
const (
	CmdClockAttributes    uint8 = 0x3
	CmdClockDescribeRates uint8 = 0x4
	CmdClockRateSet       uint8 = 0x5
	CmdClockRateGet       uint8 = 0x6
	CmdClockConfigSet     uint8 = 0x7
)

// CommandName returns a readable name for a command of protocol p.
func CommandName(p Protocol, cmd uint8) string {
	switch cmd {
	case CmdProtocolVersion:
		return "PROTOCOL_VERSION"
	case CmdProtocolAttributes:
		return "PROTOCOL_ATTRIBUTES"
	case CmdMessageAttributes:
		return "PROTOCOL_MESSAGE_ATTRIBUTES"
	}

	switch p {
	case ProtocolBase:
		switch cmd {
		case CmdBaseDiscoverVendor:
			return "BASE_DISCOVER_VENDOR"
		case CmdBaseDiscoverSubVendor:
			return "BASE_DISCOVER_SUB_VENDOR"
		case CmdBaseDiscoverImplVersion:
			return "BASE_DISCOVER_IMPLEMENTATION_VERSION"
		case CmdBaseDiscoverListProtocols:
			return "BASE_DISCOVER_LIST_PROTOCOLS"
		}
	case ProtocolClock:
		switch cmd {
		case CmdClockAttributes:
			return "CLOCK_ATTRIBUTES"
		case CmdClockDescribeRates:
			return "CLOCK_DESCRIBE_RATES"
		case CmdClockRateSet:
			return "CLOCK_RATE_SET"
		case CmdClockRateGet:
			return "CLOCK_RATE_GET"
		case CmdClockConfigSet:
			return "CLOCK_CONFIG_SET"
		}
	}
	return fmt.Sprintf("COMMAND_%#x", cmd)
}
