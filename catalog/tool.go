// Package catalog defines the corpus tools exposed to MCP clients.
//
// Each tool shapes its arguments into one upstream URL, delegates to a
// Fetcher and maps the outcome to a Reply: the upstream JSON passed through
// unchanged, or a fixed fallback sentence when the fetch came back absent.
package catalog

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/invopop/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hays/shahnameh-mcp/upstream"
)

// Fetcher performs the single GET each tool needs.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string) upstream.Result
}

// Reply is what a tool hands back to the host.
type Reply struct {
	// Payload is the upstream body, byte for byte. Nil when Fallback is set.
	Payload json.RawMessage
	// Fallback is the tool's fixed sentence, set only when the fetch was absent.
	Fallback string
}

// Found reports whether the reply carries upstream JSON.
func (r Reply) Found() bool { return r.Fallback == "" }

// Text renders the reply as the text block sent to the host.
func (r Reply) Text() string {
	if r.Found() {
		return string(r.Payload)
	}
	return r.Fallback
}

// endpoint is a path below the base address plus its query.
// Every tool uses at most one query key, so url.Values keeps value order.
type endpoint struct {
	path  string
	query url.Values
}

// Tool is one catalog entry: name, schema, URL shaping and fallback.
type Tool struct {
	Name        string
	Title       string
	Description string
	Fallback    string
	Schema      *jsonschema.Schema

	build func(args json.RawMessage) (endpoint, error)
}

// MCPTool converts the entry into its tools/list representation.
func (t *Tool) MCPTool() *mcp.Tool {
	openWorld := true
	return &mcp.Tool{
		Name:        t.Name,
		Title:       t.Title,
		Description: t.Description,
		InputSchema: t.Schema,
		Annotations: &mcp.ToolAnnotations{
			Title:          t.Title,
			ReadOnlyHint:   true,
			IdempotentHint: true,
			OpenWorldHint:  &openWorld,
		},
	}
}

// define builds a Tool whose arguments decode into A.
func define[A any](name, title, fallback, description string, route func(A) endpoint) *Tool {
	return &Tool{
		Name:        name,
		Title:       title,
		Description: description,
		Fallback:    fallback,
		Schema:      generateSchema[A](),
		build: func(raw json.RawMessage) (endpoint, error) {
			var args A
			if err := json.Unmarshal(raw, &args); err != nil {
				return endpoint{}, err
			}
			return route(args), nil
		},
	}
}

// generateSchema derives the input schema from the argument struct tags.
func generateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	return schema
}
