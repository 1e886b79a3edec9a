package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrUnknownTool is returned by Call for a name not in the catalog.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned by Call when the arguments cannot be
	// decoded or a required argument is missing.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Catalog binds the fixed tool table to a base address and a Fetcher.
type Catalog struct {
	base     string
	fetcher  Fetcher
	registry *Registry
}

// New builds the catalog for the API rooted at baseURL.
func New(baseURL string, f Fetcher) (*Catalog, error) {
	if f == nil {
		return nil, fmt.Errorf("catalog: fetcher is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("catalog: base URL %q must be an absolute http(s) URL", baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("catalog: base URL %q must not carry a query or fragment", baseURL)
	}

	registry, err := NewRegistry(corpusTools()...)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	return &Catalog{
		base:     strings.TrimRight(baseURL, "/"),
		fetcher:  f,
		registry: registry,
	}, nil
}

// Tools lists the catalog in declaration order.
func (c *Catalog) Tools() []*Tool {
	return c.registry.List()
}

// Lookup finds a tool by name.
func (c *Catalog) Lookup(name string) (*Tool, bool) {
	t, err := c.registry.Get(name)
	return t, err == nil
}

// Call runs the named tool. The fetch outcome never surfaces as an error:
// absence becomes the tool's fallback Reply. Errors are reserved for unknown
// tools and unusable arguments.
func (c *Catalog) Call(ctx context.Context, name string, args json.RawMessage) (Reply, error) {
	t, err := c.registry.Get(name)
	if err != nil {
		return Reply{}, err
	}

	args, err = normalizeArgs(args)
	if err != nil {
		return Reply{}, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, name, err)
	}
	if err := checkRequired(t, args); err != nil {
		return Reply{}, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, name, err)
	}
	ep, err := t.build(args)
	if err != nil {
		return Reply{}, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, name, err)
	}

	res := c.fetcher.FetchJSON(ctx, c.url(ep))
	payload, ok := res.Payload()

	zerolog.Ctx(ctx).Debug().
		Str("tool", name).
		Bool("found", ok).
		Msg("Tool completed")

	if !ok {
		return Reply{Fallback: t.Fallback}, nil
	}
	return Reply{Payload: payload}, nil
}

func (c *Catalog) url(ep endpoint) string {
	u := c.base + ep.path
	if q := ep.query.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// normalizeArgs treats absent or null arguments as an empty object and
// rejects anything that is not a JSON object.
func normalizeArgs(args json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("arguments must be a JSON object")
	}
	return trimmed, nil
}

// checkRequired enforces the schema's required list. A JSON null counts as
// missing.
func checkRequired(t *Tool, args json.RawMessage) error {
	if len(t.Schema.Required) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil {
		return err
	}
	for _, name := range t.Schema.Required {
		v, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("missing required argument: %s", name)
		}
	}
	return nil
}
