package wire

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Decoding limits for requests. Requests come from agents outside the
// secure world, so nesting and container sizes are bounded well above
// anything the protocol sends.
const (
	maxRequestNesting = 4
	maxRequestArray   = 64
	maxRequestMap     = 16
)

var (
	// encMode produces canonical CBOR so equal values encode identically.
	encMode = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	})

	// requestMode rejects duplicate keys and oversized containers.
	requestMode = mustDecMode(cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		MaxNestedLevels:  maxRequestNesting,
		MaxArrayElements: maxRequestArray,
		MaxMapPairs:      maxRequestMap,
	})

	// decMode is used for responses and payload conversion. Unknown keys
	// are ignored so newer platforms can add fields.
	decMode = mustDecMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: CBOR encoder options: %v", err))
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: CBOR decoder options: %v", err))
	}
	return m
}

// Marshal encodes v in canonical CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeRequest validates and encodes a request.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes and validates a request received from an agent.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := requestMode.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// EncodeResponse encodes a response.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(resp)
}

// DecodeResponse decodes a response received from the platform.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// DecodePayload converts a payload into the struct pointed to by v. The
// payload is either still typed (never encoded) or a generic value from
// the decoder; re-encoding handles both.
func DecodePayload(payload any, v any) error {
	if payload == nil {
		return fmt.Errorf("%w: missing payload", ErrInvalidPayload)
	}
	data, err := Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Equal reports whether a and b have the same canonical encoding.
func Equal(a, b any) bool {
	dataA, errA := Marshal(a)
	dataB, errB := Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(dataA, dataB)
}
