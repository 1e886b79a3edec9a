package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hays/shahnameh-mcp/catalog"
	"github.com/hays/shahnameh-mcp/upstream"
)

type response struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

type callResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func newCorpusAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/verses/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"42","text":"..."}`))
	})
	mux.HandleFunc("/api/v1/verses/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Not Found"}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// runSession feeds input lines to a fresh server and returns responses keyed by id.
func runSession(t *testing.T, lines ...string) map[string]response {
	t.Helper()

	api := newCorpusAPI(t)
	cat, err := catalog.New(api.URL+"/api/v1", upstream.NewClient("", zerolog.Nop()))
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	srv := NewServer("shahnameh", "test", cat, NewTransport(in, &out, zerolog.Nop()), zerolog.Nop())

	if err := srv.Run(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Run returned %v, want io.EOF", err)
	}

	responses := make(map[string]response)
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var r response
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("invalid response line %q: %v", scanner.Text(), err)
		}
		key := string(r.ID)
		if key == "" {
			key = "null"
		}
		responses[key] = r
	}
	return responses
}

func decodeCall(t *testing.T, r response) callResult {
	t.Helper()
	if r.Error != nil {
		t.Fatalf("unexpected RPC error: %+v", r.Error)
	}
	var res callResult
	if err := json.Unmarshal(r.Result, &res); err != nil {
		t.Fatalf("invalid tools/call result: %v", err)
	}
	if len(res.Content) != 1 || res.Content[0].Type != "text" {
		t.Fatalf("expected one text block, got %+v", res.Content)
	}
	return res
}

func TestInitialize(t *testing.T) {
	responses := runSession(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
	)

	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
		Capabilities    struct {
			Tools map[string]any `json:"tools"`
		} `json:"capabilities"`
		ServerInfo struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
	}
	if err := json.Unmarshal(responses["1"].Result, &result); err != nil {
		t.Fatalf("invalid initialize result: %v", err)
	}
	if result.ProtocolVersion != "2025-03-26" {
		t.Errorf("expected negotiated 2025-03-26, got %q", result.ProtocolVersion)
	}
	if result.Capabilities.Tools == nil {
		t.Error("expected tools capability")
	}
	if result.ServerInfo.Name != "shahnameh" {
		t.Errorf("expected server name shahnameh, got %q", result.ServerInfo.Name)
	}
}

func TestNegotiateProtocol(t *testing.T) {
	tests := []struct {
		requested string
		want      string
	}{
		{"2024-11-05", "2024-11-05"},
		{"2025-06-18", "2025-06-18"},
		{"1999-01-01", "2025-06-18"},
		{"", "2025-06-18"},
	}
	for _, tt := range tests {
		if got := negotiateProtocol(tt.requested); got != tt.want {
			t.Errorf("negotiateProtocol(%q) = %q, want %q", tt.requested, got, tt.want)
		}
	}
}

func TestToolsList(t *testing.T) {
	responses := runSession(t, `{"jsonrpc":"2.0","id":"list","method":"tools/list"}`)

	var result struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(responses[`"list"`].Result, &result); err != nil {
		t.Fatalf("invalid tools/list result: %v", err)
	}
	if len(result.Tools) != 6 {
		t.Fatalf("expected 6 tools, got %d", len(result.Tools))
	}
	for _, tool := range result.Tools {
		if tool.InputSchema["type"] != "object" {
			t.Errorf("tool %s: expected object schema, got %v", tool.Name, tool.InputSchema["type"])
		}
		if tool.Description == "" {
			t.Errorf("tool %s: missing description", tool.Name)
		}
	}
}

func TestToolsCallPassthroughAndFallback(t *testing.T) {
	responses := runSession(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_verse_by_id","arguments":{"id":"42"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_verses_by_substrings","arguments":{"substrings":["آرش","کمان"]}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_chapter_by_id","arguments":{"id":"999"}}}`,
	)

	if got := decodeCall(t, responses["1"]); got.Content[0].Text != `{"id":"42","text":"..."}` || got.IsError {
		t.Errorf("get_verse_by_id: unexpected result %+v", got)
	}
	if got := decodeCall(t, responses["2"]); got.Content[0].Text != `[]` || got.IsError {
		t.Errorf("list_verses_by_substrings: expected [], got %+v", got)
	}
	if got := decodeCall(t, responses["3"]); got.Content[0].Text != catalog.FallbackChapter || got.IsError {
		t.Errorf("get_chapter_by_id: expected fallback, got %+v", got)
	}
}

func TestToolsCallUnknownTool(t *testing.T) {
	responses := runSession(t, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"add_command","arguments":{}}}`)

	r := responses["7"]
	if r.Error == nil || r.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params error, got %+v", r)
	}
}

func TestToolsCallInvalidArguments(t *testing.T) {
	responses := runSession(t, `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"get_verse_by_id","arguments":{}}}`)

	got := decodeCall(t, responses["8"])
	if !got.IsError {
		t.Fatalf("expected isError result, got %+v", got)
	}
	if !strings.Contains(got.Content[0].Text, "missing required argument: id") {
		t.Errorf("unexpected error text %q", got.Content[0].Text)
	}
}

func TestPingAndUnknownMethod(t *testing.T) {
	responses := runSession(t,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":1}}`,
	)

	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if string(responses["1"].Result) != "{}" {
		t.Errorf("ping: expected {}, got %s", responses["1"].Result)
	}
	if r := responses["2"]; r.Error == nil || r.Error.Code != codeMethodNotFound {
		t.Errorf("resources/list: expected method not found, got %+v", r)
	}
}

func TestMalformedLineDoesNotStopServer(t *testing.T) {
	responses := runSession(t,
		`{not json`,
		``,
		`{"jsonrpc":"2.0","id":5,"method":"ping"}`,
	)

	if r, ok := responses["null"]; !ok || r.Error == nil || r.Error.Code != codeParseError {
		t.Errorf("expected parse error with null id, got %+v", responses)
	}
	if _, ok := responses["5"]; !ok {
		t.Error("expected ping to be answered after malformed line")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	api := newCorpusAPI(t)
	cat, err := catalog.New(api.URL, upstream.NewClient("", zerolog.Nop()))
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := NewServer("shahnameh", "test", cat, NewTransport(pr, io.Discard, zerolog.Nop()), zerolog.Nop())
	if err := srv.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}
