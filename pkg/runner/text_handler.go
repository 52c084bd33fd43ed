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
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/nodes"
	"gopkg.in/yaml.v3"
)

// TextHandler is the line-based console. Each line names an entry point,
// optionally followed by a JSON object or key=value pairs:
//
//	start
//	door/opened {"value": 3}
//	tick value=2 label=fast
type TextHandler struct {
	Reader *bufio.Reader
	Writer io.Writer
	Prompt string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: "> ",
	}
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines on its own goroutine so that Input can honor ctx.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Input(ctx context.Context) (Request, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return Request{}, ctx.Err()
		default:
			fmt.Fprint(h.Writer, h.Prompt)
		}

		select {
		case <-ctx.Done():
			return Request{}, ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return Request{}, io.EOF
			}
			if res.err != nil {
				return Request{}, res.err
			}
			line, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			req, err := ParseLine(line)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v\n", err)
				continue
			}
			return req, nil
		}
	}
}

func (h *TextHandler) Output(_ context.Context, outcomes []domain.EventOutcome) error {
	for _, o := range outcomes {
		target := o.Entry
		if o.Graph != "" && !strings.Contains(target, domain.QualifiedEntrySeparator) {
			target = o.Graph + domain.QualifiedEntrySeparator + target
		}
		if !o.Succeeded() {
			if _, err := fmt.Fprintf(h.Writer, "fail %s: %s\n", target, o.Reason); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(h.Writer, "ok   %s (%s)\n", target, o.Duration.Round(time.Microsecond)); err != nil {
			return err
		}
	}
	return nil
}

func (h *TextHandler) Emission(_ context.Context, topic string, value any) error {
	_, err := fmt.Fprintf(h.Writer, "[%s] %s\n", topic, nodes.Format(value))
	return err
}

// ParseLine parses one console line into a request.
func ParseLine(line string) (Request, error) {
	entry, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	if entry == "" {
		return Request{}, fmt.Errorf("missing entry point")
	}
	req := Request{Entry: entry}

	rest = strings.TrimSpace(rest)
	switch {
	case rest == "":
	case strings.HasPrefix(rest, "{"):
		if err := json.Unmarshal([]byte(rest), &req.Payload); err != nil {
			return Request{}, fmt.Errorf("payload: %w", err)
		}
	default:
		req.Payload = make(map[string]any)
		for _, pair := range strings.Fields(rest) {
			key, raw, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				return Request{}, fmt.Errorf("payload: expected key=value, got %q", pair)
			}
			req.Payload[key] = scalar(raw)
		}
	}
	return req, nil
}

// scalar reads a YAML scalar so that numbers and booleans keep their kind.
func scalar(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	switch v.(type) {
	case map[string]any, []any:
		return raw
	}
	return v
}
