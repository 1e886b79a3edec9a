// Package server speaks the MCP tool protocol over newline-delimited
// JSON-RPC and dispatches tool calls to the corpus catalog.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hays/shahnameh-mcp/catalog"
)

// Server implements the MCP server
type Server struct {
	transport *Transport
	catalog   *catalog.Catalog
	name      string
	version   string
	log       zerolog.Logger
}

// NewServer creates a new MCP server
func NewServer(name, version string, cat *catalog.Catalog, transport *Transport, log zerolog.Logger) *Server {
	return &Server{
		transport: transport,
		catalog:   cat,
		name:      name,
		version:   version,
		log:       log,
	}
}

// Run processes messages until the input ends, ctx is cancelled or a
// response cannot be written. Tool calls run concurrently; Run waits for the
// ones in flight before returning. End of input is reported as io.EOF.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info().
		Str("name", s.name).
		Str("version", s.version).
		Int("tools", len(s.catalog.Tools())).
		Msg("Starting server")

	calls, callCtx := errgroup.WithContext(ctx)
	msgs := s.transport.messages(callCtx)

	err := s.loop(callCtx, calls, msgs)
	if werr := calls.Wait(); werr != nil && err == nil {
		err = werr
	}
	return err
}

func (s *Server) loop(ctx context.Context, calls *errgroup.Group, msgs <-chan inbound) error {
	for {
		var in inbound
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case next, ok := <-msgs:
			if !ok {
				return context.Cause(ctx)
			}
			in = next
		}

		if in.err != nil {
			if errors.Is(in.err, ErrParse) {
				s.log.Warn().Err(in.err).Msg("Discarding malformed message")
				if err := s.transport.WriteError(nil, codeParseError, "Parse error", nil); err != nil {
					return err
				}
				continue
			}
			return in.err
		}

		msg := in.msg
		if msg.Method == "tools/call" && !msg.IsNotification() {
			calls.Go(func() error {
				return s.handleToolsCall(ctx, msg)
			})
			continue
		}

		if err := s.handleMessage(msg); err != nil {
			s.log.Error().Err(err).Str("method", msg.Method).Msg("Error handling message")
			if werr := s.transport.WriteError(msg.ID, codeInternalError, err.Error(), nil); werr != nil {
				return werr
			}
		}
	}
}

func (s *Server) handleMessage(msg *JSONRPCMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "ping":
		return s.transport.WriteResponse(msg.ID, struct{}{})
	case "tools/list":
		return s.handleToolsList(msg)
	default:
		if !msg.IsNotification() {
			return s.transport.WriteError(msg.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method), nil)
		}
		// Notifications (notifications/initialized, cancellations, ...) get no response
		return nil
	}
}

// --- Initialize ---

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params mcp.InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return fmt.Errorf("invalid initialize params: %w", err)
		}
	}

	if params.ClientInfo != nil {
		s.log.Info().
			Str("client", params.ClientInfo.Name).
			Str("client_version", params.ClientInfo.Version).
			Str("protocol", params.ProtocolVersion).
			Msg("Client connected")
	}

	result := &mcp.InitializeResult{
		ProtocolVersion: negotiateProtocol(params.ProtocolVersion),
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{},
		},
		ServerInfo: &mcp.Implementation{
			Name:    s.name,
			Version: s.version,
		},
	}

	return s.transport.WriteResponse(msg.ID, result)
}

// negotiateProtocol echoes the client's revision when supported and
// otherwise offers the newest one.
func negotiateProtocol(requested string) string {
	if slices.Contains(supportedProtocolVersions, requested) {
		return requested
	}
	return supportedProtocolVersions[0]
}

// --- Response Helpers ---

func (s *Server) respondText(id json.RawMessage, text string) error {
	return s.transport.WriteResponse(id, &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	})
}

func (s *Server) respondError(id json.RawMessage, text string) error {
	return s.transport.WriteResponse(id, &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	})
}
