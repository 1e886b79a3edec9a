package server

import "encoding/json"

// ToolsCallParams is the params for a tools/call request. Arguments are kept
// raw so each tool decodes its own shape.
type ToolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// supportedProtocolVersions lists the MCP revisions this server speaks,
// newest first.
var supportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}
