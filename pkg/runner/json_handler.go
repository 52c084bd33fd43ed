package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// JSONHandler speaks JSON-Lines: one Request object per input line, one
// Message per output line.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder

	mu sync.Mutex
}

// Message is one line of JSONHandler output.
type Message struct {
	Type    string               `json:"type"`
	Outcome *domain.EventOutcome `json:"outcome,omitempty"`
	Topic   string               `json:"topic,omitempty"`
	Value   any                  `json:"value,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// Message types.
const (
	MessageOutcome = "outcome"
	MessageEmit    = "emit"
	MessageError   = "error"
)

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

// Input reads the next request. Malformed lines are reported as error
// messages and skipped.
func (h *JSONHandler) Input(ctx context.Context) (Request, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Request{}, err
		}
		text, err := h.Reader.ReadString('\n')
		line := strings.TrimSpace(text)
		if line == "" {
			if err != nil {
				return Request{}, err
			}
			continue
		}

		req, perr := decodeRequest(line)
		if perr == nil {
			return req, nil
		}
		if werr := h.write(Message{Type: MessageError, Error: perr.Error()}); werr != nil {
			return Request{}, werr
		}
		if err != nil {
			return Request{}, err
		}
	}
}

func decodeRequest(line string) (Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	if req.Entry == "" {
		return Request{}, fmt.Errorf("decode request: missing entry")
	}
	return req, nil
}

func (h *JSONHandler) Output(_ context.Context, outcomes []domain.EventOutcome) error {
	for i := range outcomes {
		if err := h.write(Message{Type: MessageOutcome, Outcome: &outcomes[i]}); err != nil {
			return err
		}
	}
	return nil
}

func (h *JSONHandler) Emission(_ context.Context, topic string, value any) error {
	return h.write(Message{Type: MessageEmit, Topic: topic, Value: value})
}

func (h *JSONHandler) write(msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(msg)
}
