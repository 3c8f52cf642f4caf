package scmi

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/secclk/clkcore/pkg/wire"
)

// Client errors.
var (
	ErrRequestTimeout  = errors.New("request timed out")
	ErrClientClosed    = errors.New("client is closed")
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// Sender transmits an encoded request.
type Sender interface {
	Send(data []byte) error
}

// Client issues protocol requests for one agent channel and matches
// responses by message ID.
type Client struct {
	mu sync.RWMutex

	sender  Sender
	channel uint32
	timeout time.Duration

	nextMsgID uint32

	// pendingMu guards pending and closed.
	pending   map[uint32]chan *wire.Response
	pendingMu sync.Mutex
	closed    bool
}

// NewClient creates a client sending on sender as agent channel.
func NewClient(sender Sender, channel uint32) *Client {
	return &Client{
		sender:  sender,
		channel: channel,
		timeout: 5 * time.Second,
		pending: make(map[uint32]chan *wire.Response),
	}
}

// SetTimeout sets the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// Close fails all pending requests and rejects new ones.
func (c *Client) Close() error {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	return nil
}

func (c *Client) nextMessageID() uint32 {
	return atomic.AddUint32(&c.nextMsgID, 1)
}

// HandleMessage decodes a response frame and delivers it.
func (c *Client) HandleMessage(data []byte) error {
	resp, err := wire.DecodeResponse(data)
	if err != nil {
		return err
	}
	return c.HandleResponse(resp)
}

// HandleResponse delivers resp to the request waiting for it.
func (c *Client) HandleResponse(resp *wire.Response) error {
	c.pendingMu.Lock()
	ch, ok := c.pending[resp.MessageID]
	if ok {
		delete(c.pending, resp.MessageID)
	}
	c.pendingMu.Unlock()

	if !ok {
		return ErrUnexpectedReply
	}
	ch <- resp
	return nil
}

func (c *Client) call(ctx context.Context, protocol wire.Protocol, cmd uint8, payload, out any) error {
	c.mu.RLock()
	timeout := c.timeout
	c.mu.RUnlock()

	req := &wire.Request{
		MessageID: c.nextMessageID(),
		Channel:   c.channel,
		Protocol:  protocol,
		Command:   cmd,
		Payload:   payload,
	}
	data, err := wire.EncodeRequest(req)
	if err != nil {
		return err
	}

	// The closed check and the insert share one critical section, so a
	// concurrent Close either rejects the request or fails it.
	respCh := make(chan *wire.Response, 1)
	c.pendingMu.Lock()
	if c.closed {
		c.pendingMu.Unlock()
		return ErrClientClosed
	}
	c.pending[req.MessageID] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendingMu.Unlock()
	}()

	if err := c.sender.Send(data); err != nil {
		return err
	}

	var resp *wire.Response
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return ErrRequestTimeout
	case r, ok := <-respCh:
		if !ok {
			return ErrClientClosed
		}
		resp = r
	}

	if !resp.IsSuccess() {
		return statusError(resp.Status, resp.Payload)
	}
	if out == nil {
		return nil
	}
	return wire.DecodePayload(resp.Payload, out)
}

// Version returns the version of protocol.
func (c *Client) Version(ctx context.Context, protocol wire.Protocol) (uint32, error) {
	var r wire.VersionResponse
	if err := c.call(ctx, protocol, wire.CmdProtocolVersion, nil, &r); err != nil {
		return 0, err
	}
	return r.Version, nil
}

// Attributes returns the attributes of protocol.
func (c *Client) Attributes(ctx context.Context, protocol wire.Protocol) (*wire.ProtocolAttributes, error) {
	var r wire.ProtocolAttributes
	if err := c.call(ctx, protocol, wire.CmdProtocolAttributes, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Supports reports whether the platform implements cmd of protocol.
func (c *Client) Supports(ctx context.Context, protocol wire.Protocol, cmd uint8) (bool, error) {
	err := c.call(ctx, protocol, wire.CmdMessageAttributes, &wire.MessageAttributesRequest{Command: cmd}, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Status == wire.StatusNotFound {
		return false, nil
	}
	return err == nil, err
}

// Vendor returns the vendor and sub-vendor names.
func (c *Client) Vendor(ctx context.Context) (vendor, subVendor string, err error) {
	var v, sv wire.VendorResponse
	if err := c.call(ctx, wire.ProtocolBase, wire.CmdBaseDiscoverVendor, nil, &v); err != nil {
		return "", "", err
	}
	if err := c.call(ctx, wire.ProtocolBase, wire.CmdBaseDiscoverSubVendor, nil, &sv); err != nil {
		return "", "", err
	}
	return v.Name, sv.Name, nil
}

// ImplVersion returns the implementation version.
func (c *Client) ImplVersion(ctx context.Context) (uint32, error) {
	var r wire.ImplVersionResponse
	if err := c.call(ctx, wire.ProtocolBase, wire.CmdBaseDiscoverImplVersion, nil, &r); err != nil {
		return 0, err
	}
	return r.Version, nil
}

// ListProtocols returns the implemented protocols other than base.
func (c *Client) ListProtocols(ctx context.Context) ([]wire.Protocol, error) {
	var r wire.ListProtocolsResponse
	if err := c.call(ctx, wire.ProtocolBase, wire.CmdBaseDiscoverListProtocols, &wire.ListProtocolsRequest{}, &r); err != nil {
		return nil, err
	}
	return r.Protocols, nil
}

// ClockCount returns the number of clock identifiers on the channel.
func (c *Client) ClockCount(ctx context.Context) (int, error) {
	a, err := c.Attributes(ctx, wire.ProtocolClock)
	if err != nil {
		return 0, err
	}
	return int(a.NumClocks), nil
}

// ClockAttributes returns the name and enable state of clock id.
func (c *Client) ClockAttributes(ctx context.Context, id uint32) (*wire.ClockAttributes, error) {
	var r wire.ClockAttributes
	if err := c.call(ctx, wire.ProtocolClock, wire.CmdClockAttributes, &wire.ClockIDPayload{ClockID: id}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DescribeRates returns one page of rates of clock id starting at index.
func (c *Client) DescribeRates(ctx context.Context, id, index uint32) ([]uint64, bool, error) {
	var r wire.DescribeRatesResponse
	req := &wire.DescribeRatesRequest{ClockID: id, RateIndex: index}
	if err := c.call(ctx, wire.ProtocolClock, wire.CmdClockDescribeRates, req, &r); err != nil {
		return nil, false, err
	}
	return r.Rates, r.More, nil
}

// Rates collects every rate of clock id page by page.
func (c *Client) Rates(ctx context.Context, id uint32) ([]uint64, error) {
	var all []uint64
	for {
		page, more, err := c.DescribeRates(ctx, id, uint32(len(all)))
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if !more || len(page) == 0 {
			return all, nil
		}
	}
}

// RateGet returns the rate of clock id.
func (c *Client) RateGet(ctx context.Context, id uint32) (uint64, error) {
	var r wire.RateGetResponse
	if err := c.call(ctx, wire.ProtocolClock, wire.CmdClockRateGet, &wire.ClockIDPayload{ClockID: id}, &r); err != nil {
		return 0, err
	}
	return r.Rate, nil
}

// RateSet requests a new rate for clock id.
func (c *Client) RateSet(ctx context.Context, id uint32, rate uint64) error {
	return c.call(ctx, wire.ProtocolClock, wire.CmdClockRateSet, &wire.RateSetRequest{ClockID: id, Rate: rate}, nil)
}

// ConfigSet enables or disables clock id.
func (c *Client) ConfigSet(ctx context.Context, id uint32, enable bool) error {
	return c.call(ctx, wire.ProtocolClock, wire.CmdClockConfigSet, &wire.ConfigSetRequest{ClockID: id, Enable: enable}, nil)
}
