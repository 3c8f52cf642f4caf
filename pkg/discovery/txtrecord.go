package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/secclk/clkcore/pkg/version"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeDaemonTXT creates TXT records for a daemon advertisement.
func EncodeDaemonTXT(info *DaemonInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeySoC] = info.SoC
	txt[TXTKeyBoard] = info.Board
	txt[TXTKeyVersion] = version.FromWord(info.ProtocolVersion).String()

	if info.Vendor != "" {
		txt[TXTKeyVendor] = info.Vendor
	}
	if len(info.Channels) > 0 {
		txt[TXTKeyChannels] = encodeChannels(info.Channels)
	}
	return txt
}

// DecodeDaemonTXT parses TXT records from a daemon advertisement.
func DecodeDaemonTXT(txt TXTRecordMap) (*DaemonInfo, error) {
	info := &DaemonInfo{}
	var ok bool

	if info.SoC, ok = txt[TXTKeySoC]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeySoC)
	}
	if info.Board, ok = txt[TXTKeyBoard]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyBoard)
	}

	verStr, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	ver, err := version.Parse(verStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, TXTKeyVersion, verStr)
	}
	info.ProtocolVersion = ver.Word()

	info.Vendor = txt[TXTKeyVendor]

	if chStr, ok := txt[TXTKeyChannels]; ok {
		info.Channels, err = parseChannels(chStr)
		if err != nil {
			return nil, err
		}
	}
	return info, nil
}

func encodeChannels(channels []uint32) string {
	sorted := append([]uint32(nil), channels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = strconv.FormatUint(uint64(c), 10)
	}
	return strings.Join(parts, ",")
}

func parseChannels(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %q", ErrInvalidTXTRecord, p)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrMissingRequired)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
