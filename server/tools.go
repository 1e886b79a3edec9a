package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hays/shahnameh-mcp/catalog"
)

// handleToolsList returns the catalog's tool definitions
func (s *Server) handleToolsList(msg *JSONRPCMessage) error {
	defs := s.catalog.Tools()
	tools := make([]*mcp.Tool, 0, len(defs))
	for _, t := range defs {
		tools = append(tools, t.MCPTool())
	}

	return s.transport.WriteResponse(msg.ID, &mcp.ListToolsResult{Tools: tools})
}

// handleToolsCall runs one tool and writes its reply. Only write failures are
// returned; everything else is answered on the wire.
func (s *Server) handleToolsCall(ctx context.Context, msg *JSONRPCMessage) error {
	var params ToolsCallParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.transport.WriteError(msg.ID, codeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err), nil)
	}

	log := s.log.With().
		Str("tool", params.Name).
		Str("invocation_id", uuid.NewString()).
		Logger()
	ctx = log.WithContext(ctx)

	log.Info().Msg("Tool call")

	reply, err := s.catalog.Call(ctx, params.Name, params.Arguments)
	switch {
	case errors.Is(err, catalog.ErrUnknownTool):
		return s.transport.WriteError(msg.ID, codeInvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name), nil)
	case errors.Is(err, catalog.ErrInvalidArguments):
		log.Warn().Err(err).Msg("Rejected tool arguments")
		return s.respondError(msg.ID, err.Error())
	case err != nil:
		return s.respondError(msg.ID, err.Error())
	}

	if !reply.Found() {
		log.Info().Msg("Upstream result absent, returning fallback")
	}
	return s.respondText(msg.ID, reply.Text())
}
