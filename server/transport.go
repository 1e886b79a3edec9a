package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// ErrParse marks a line that could not be decoded as JSON-RPC. The stream
// itself is still usable.
var ErrParse = errors.New("parse error")

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// JSONRPCMessage represents a JSON-RPC 2.0 message
type JSONRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// IsNotification reports whether the message expects no response.
func (m *JSONRPCMessage) IsNotification() bool {
	return len(m.ID) == 0
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Transport handles newline-delimited JSON-RPC over a reader/writer pair,
// normally stdin and stdout.
type Transport struct {
	reader *bufio.Reader
	mu     sync.Mutex
	writer io.Writer
	log    zerolog.Logger
}

// NewTransport creates a transport reading from r and writing to w
func NewTransport(r io.Reader, w io.Writer, log zerolog.Logger) *Transport {
	return &Transport{
		reader: bufio.NewReader(r),
		writer: w,
		log:    log,
	}
}

// ReadMessage reads and parses one JSON-RPC message. Blank lines are skipped.
// A malformed line yields an error wrapping ErrParse.
func (t *Transport) ReadMessage() (*JSONRPCMessage, error) {
	for {
		line, err := t.reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) == 0 {
			if err != nil {
				return nil, err
			}
			continue
		}
		// A final line without a trailing newline is still a message.
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		var msg JSONRPCMessage
		if uerr := json.Unmarshal(line, &msg); uerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, uerr)
		}

		t.log.Debug().Str("method", msg.Method).RawJSON("id", idOrNull(msg.ID)).Msg("←")
		return &msg, nil
	}
}

// inbound is one result of ReadMessage delivered over a channel.
type inbound struct {
	msg *JSONRPCMessage
	err error
}

// messages pumps ReadMessage into a channel until a non-parse error occurs
// or ctx ends. The channel is closed after the terminal error is delivered.
func (t *Transport) messages(ctx context.Context) <-chan inbound {
	out := make(chan inbound)
	go func() {
		defer close(out)
		for {
			msg, err := t.ReadMessage()
			select {
			case out <- inbound{msg: msg, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil && !errors.Is(err, ErrParse) {
				return
			}
		}
	}()
	return out
}

// WriteMessage writes a JSON-RPC message as a single line. Safe for
// concurrent use.
func (t *Transport) WriteMessage(msg *JSONRPCMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON-RPC message: %w", err)
	}
	data = append(data, '\n')

	t.mu.Lock()
	_, err = t.writer.Write(data)
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if msg.Error != nil {
		t.log.Debug().RawJSON("id", idOrNull(msg.ID)).Str("error", msg.Error.Message).Msg("→ error")
	} else {
		t.log.Debug().RawJSON("id", idOrNull(msg.ID)).Msg("→ result")
	}
	return nil
}

// WriteResponse writes a JSON-RPC response
func (t *Transport) WriteResponse(id json.RawMessage, result any) error {
	return t.WriteMessage(&JSONRPCMessage{
		JSONRPC: "2.0",
		ID:      idOrNull(id),
		Result:  result,
	})
}

// WriteError writes a JSON-RPC error response
func (t *Transport) WriteError(id json.RawMessage, code int, message string, data any) error {
	return t.WriteMessage(&JSONRPCMessage{
		JSONRPC: "2.0",
		ID:      idOrNull(id),
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func idOrNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
