package scmi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/secclk/clkcore/pkg/log"
	"github.com/secclk/clkcore/pkg/wire"
)

// Protocol versions reported by PROTOCOL_VERSION.
const (
	BaseVersion  uint32 = 0x20000
	ClockVersion uint32 = 0x10000
)

// Info identifies the platform to agents.
type Info struct {
	Vendor      string
	SubVendor   string
	ImplVersion uint32
	NumAgents   uint8
}

// DefaultInfo describes a Microchip platform with a single agent.
var DefaultInfo = Info{
	Vendor:    "Microchip",
	SubVendor: "",
	NumAgents: 1,
}

// Protocols lists the protocols implemented beside base.
var Protocols = []wire.Protocol{wire.ProtocolClock}

var implemented = map[wire.Protocol][]uint8{
	wire.ProtocolBase: {
		wire.CmdProtocolVersion,
		wire.CmdProtocolAttributes,
		wire.CmdMessageAttributes,
		wire.CmdBaseDiscoverVendor,
		wire.CmdBaseDiscoverSubVendor,
		wire.CmdBaseDiscoverImplVersion,
		wire.CmdBaseDiscoverListProtocols,
	},
	wire.ProtocolClock: {
		wire.CmdProtocolVersion,
		wire.CmdProtocolAttributes,
		wire.CmdMessageAttributes,
		wire.CmdClockAttributes,
		wire.CmdClockDescribeRates,
		wire.CmdClockRateSet,
		wire.CmdClockRateGet,
		wire.CmdClockConfigSet,
	},
}

func isImplemented(p wire.Protocol, cmd uint8) bool {
	for _, c := range implemented[p] {
		if c == cmd {
			return true
		}
	}
	return false
}

// Server answers base and clock protocol requests from an Adaptor.
type Server struct {
	mu      sync.RWMutex
	adaptor *Adaptor
	info    Info

	logger *slog.Logger
	events log.Logger
}

// NewServer creates a server for adaptor.
func NewServer(adaptor *Adaptor, info Info) *Server {
	return &Server{
		adaptor: adaptor,
		info:    info,
		events:  log.NoopLogger{},
	}
}

// SetLogger sets the operational logger. Nil disables it.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetEventLogger sets the message capture logger. Nil disables it.
func (s *Server) SetEventLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = logger
}

func (s *Server) debugLog(msg string, args ...any) {
	s.mu.RLock()
	logger := s.logger
	s.mu.RUnlock()
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// HandleMessage decodes an encoded request, handles it and returns the
// encoded response. Undecodable input yields a PROTOCOL_ERROR response with
// message ID 0.
func (s *Server) HandleMessage(ctx context.Context, connID string, data []byte) ([]byte, error) {
	start := time.Now()

	req, err := wire.DecodeRequest(data)
	var resp *wire.Response
	if err != nil {
		s.debugLog("request rejected", "conn", connID, "error", err)
		resp = errorResponse(0, wire.StatusProtocolError, err.Error())
	} else {
		s.logRequest(connID, req)
		resp = s.HandleRequest(ctx, req)
	}
	s.logResponse(connID, resp, time.Since(start))

	return wire.EncodeResponse(resp)
}

// HandleRequest dispatches req by protocol.
func (s *Server) HandleRequest(ctx context.Context, req *wire.Request) *wire.Response {
	if !isImplemented(req.Protocol, req.Command) {
		return errorResponse(req.MessageID, wire.StatusNotSupported,
			fmt.Sprintf("%s %s not implemented", req.Protocol, wire.CommandName(req.Protocol, req.Command)))
	}

	switch req.Command {
	case wire.CmdProtocolVersion:
		return s.handleVersion(req)
	case wire.CmdProtocolAttributes:
		return s.handleProtocolAttributes(req)
	case wire.CmdMessageAttributes:
		return s.handleMessageAttributes(req)
	}

	if req.Protocol == wire.ProtocolBase {
		return s.handleBase(req)
	}
	return s.handleClock(ctx, req)
}

func (s *Server) handleVersion(req *wire.Request) *wire.Response {
	v := ClockVersion
	if req.Protocol == wire.ProtocolBase {
		v = BaseVersion
	}
	return okResponse(req.MessageID, &wire.VersionResponse{Version: v})
}

func (s *Server) handleProtocolAttributes(req *wire.Request) *wire.Response {
	if req.Protocol == wire.ProtocolBase {
		return okResponse(req.MessageID, &wire.ProtocolAttributes{
			NumProtocols: uint8(len(Protocols)),
			NumAgents:    s.info.NumAgents,
		})
	}
	return okResponse(req.MessageID, &wire.ProtocolAttributes{
		NumClocks:  uint16(s.adaptor.Count(req.Channel)),
		MaxPending: 1,
	})
}

func (s *Server) handleMessageAttributes(req *wire.Request) *wire.Response {
	var p wire.MessageAttributesRequest
	if err := wire.DecodePayload(req.Payload, &p); err != nil {
		return errorResponse(req.MessageID, wire.StatusProtocolError, err.Error())
	}
	if !isImplemented(req.Protocol, p.Command) {
		return errorResponse(req.MessageID, wire.StatusNotFound,
			fmt.Sprintf("command %#x not implemented", p.Command))
	}
	return okResponse(req.MessageID, &wire.MessageAttributes{})
}

func (s *Server) handleBase(req *wire.Request) *wire.Response {
	switch req.Command {
	case wire.CmdBaseDiscoverVendor:
		return okResponse(req.MessageID, &wire.VendorResponse{Name: s.info.Vendor})
	case wire.CmdBaseDiscoverSubVendor:
		return okResponse(req.MessageID, &wire.VendorResponse{Name: s.info.SubVendor})
	case wire.CmdBaseDiscoverImplVersion:
		return okResponse(req.MessageID, &wire.ImplVersionResponse{Version: s.info.ImplVersion})
	default:
		var p wire.ListProtocolsRequest
		if req.Payload != nil {
			if err := wire.DecodePayload(req.Payload, &p); err != nil {
				return errorResponse(req.MessageID, wire.StatusProtocolError, err.Error())
			}
		}
		if int(p.Skip) > len(Protocols) {
			return errorResponse(req.MessageID, wire.StatusInvalidParameters,
				fmt.Sprintf("skip %d beyond %d protocols", p.Skip, len(Protocols)))
		}
		list := make([]wire.Protocol, len(Protocols)-int(p.Skip))
		copy(list, Protocols[p.Skip:])
		return okResponse(req.MessageID, &wire.ListProtocolsResponse{Protocols: list})
	}
}

func (s *Server) handleClock(_ context.Context, req *wire.Request) *wire.Response {
	switch req.Command {
	case wire.CmdClockAttributes:
		var p wire.ClockIDPayload
		if err := wire.DecodePayload(req.Payload, &p); err != nil {
			return errorResponse(req.MessageID, wire.StatusProtocolError, err.Error())
		}
		name, err := s.adaptor.Name(req.Channel, p.ClockID)
		if err != nil {
			return failure(req.MessageID, err)
		}
		on, err := s.adaptor.State(req.Channel, p.ClockID)
		if err != nil {
			return failure(req.MessageID, err)
		}
		return okResponse(req.MessageID, &wire.ClockAttributes{Enabled: on, Name: name})

	case wire.CmdClockDescribeRates:
		var p wire.DescribeRatesRequest
		if err := wire.DecodePayload(req.Payload, &p); err != nil {
			return errorResponse(req.MessageID, wire.StatusProtocolError, err.Error())
		}
		rates, more, err := s.adaptor.ListRates(req.Channel, p.ClockID, int(p.RateIndex))
		if err != nil {
			return failure(req.MessageID, err)
		}
		return okResponse(req.MessageID, &wire.DescribeRatesResponse{Rates: rates, More: more})

	case wire.CmdClockRateSet:
		var p wire.RateSetRequest
		if err := wire.DecodePayload(req.Payload, &p); err != nil {
			return errorResponse(req.MessageID, wire.StatusProtocolError, err.Error())
		}
		if err := s.adaptor.SetRate(req.Channel, p.ClockID, p.Rate); err != nil {
			s.debugLog("rate set refused", "channel", req.Channel, "clock", p.ClockID, "rate", p.Rate, "error", err)
			return failure(req.MessageID, err)
		}
		return okResponse(req.MessageID, nil)

	case wire.CmdClockRateGet:
		var p wire.ClockIDPayload
		if err := wire.DecodePayload(req.Payload, &p); err != nil {
			return errorResponse(req.MessageID, wire.StatusProtocolError, err.Error())
		}
		rate, err := s.adaptor.Rate(req.Channel, p.ClockID)
		if err != nil {
			return failure(req.MessageID, err)
		}
		return okResponse(req.MessageID, &wire.RateGetResponse{Rate: rate})

	default: // CmdClockConfigSet
		var p wire.ConfigSetRequest
		if err := wire.DecodePayload(req.Payload, &p); err != nil {
			return errorResponse(req.MessageID, wire.StatusProtocolError, err.Error())
		}
		if err := s.adaptor.SetState(req.Channel, p.ClockID, p.Enable); err != nil {
			s.debugLog("config set failed", "channel", req.Channel, "clock", p.ClockID, "enable", p.Enable, "error", err)
			return failure(req.MessageID, err)
		}
		return okResponse(req.MessageID, nil)
	}
}

func (s *Server) logRequest(connID string, req *wire.Request) {
	s.mu.RLock()
	events := s.events
	s.mu.RUnlock()

	protocol := req.Protocol
	command := req.Command
	channel := req.Channel
	events.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RolePlatform,
		Channel:      &channel,
		Message: &log.MessageEvent{
			Type:      log.MessageTypeRequest,
			MessageID: req.MessageID,
			Protocol:  &protocol,
			Command:   &command,
			Payload:   req.Payload,
		},
	})
}

func (s *Server) logResponse(connID string, resp *wire.Response, elapsed time.Duration) {
	s.mu.RLock()
	events := s.events
	s.mu.RUnlock()

	status := resp.Status
	events.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RolePlatform,
		Message: &log.MessageEvent{
			Type:           log.MessageTypeResponse,
			MessageID:      resp.MessageID,
			Status:         &status,
			Payload:        resp.Payload,
			ProcessingTime: &elapsed,
		},
	})
}

func okResponse(msgID uint32, payload any) *wire.Response {
	return &wire.Response{
		MessageID: msgID,
		Status:    wire.StatusSuccess,
		Payload:   payload,
	}
}

// failure converts an adaptor error to a response.
func failure(msgID uint32, err error) *wire.Response {
	return errorResponse(msgID, StatusOf(err), err.Error())
}

// errorResponse creates an error response.
func errorResponse(msgID uint32, status wire.Status, message string) *wire.Response {
	return &wire.Response{
		MessageID: msgID,
		Status:    status,
		Payload:   &wire.ErrorPayload{Message: message},
	}
}
