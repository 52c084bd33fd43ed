// Package process runs allow-listed local commands from a graph through
// the process.run node type.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

// TypeRun is the node type served by Runner.
const TypeRun = "process.run"

// EnvPrefix prefixes the variables that carry node input to a command.
const EnvPrefix = "TENDRIL_ARG_"

// DefaultTimeout bounds a single command run.
const DefaultTimeout = 30 * time.Second

// ErrNotRegistered is returned for tools missing from the allow-list.
var ErrNotRegistered = errors.New("process tool not registered")

// Runner executes local processes. Only registered tools can run; graph
// data never supplies a command line.
type Runner struct {
	registry map[string]ProcessConfig
	baseDir  string
	timeout  time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			tool.Name = name
			r.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) { r.baseDir = dir }
}

// WithTimeout bounds each run. Zero disables the bound.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ProcessConfig),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = ProcessConfig{Name: name, Command: command, Args: args}
}

// Tools returns the registered tool names in lexical order.
func (r *Runner) Tools() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes tool with args passed as TENDRIL_ARG_<NAME> environment
// variables, never as flags. Stdout that parses as a JSON object or array
// is decoded; anything else is returned as trimmed text.
func (r *Runner) Run(ctx context.Context, tool string, args map[string]any) (any, error) {
	proc, ok := r.registry[tool]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, tool)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = cmd.Environ()
	for k, v := range proc.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	for k, v := range args {
		cmd.Env = append(cmd.Env, EnvPrefix+strings.ToUpper(k)+"="+envValue(v))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", tool, err, strings.TrimSpace(stderr.String()))
	}
	return decodeOutput(stdout.String()), nil
}

func envValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64, bool, int, int64, schema.EntityRef:
		return fmt.Sprint(v)
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprint(v)
	}
}

func decodeOutput(out string) any {
	trimmed := strings.TrimSpace(out)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}

// Descriptor returns the process.run node type. The "tool" input names a
// registered tool; "args" is a map of values, and a non-map value is
// passed as TENDRIL_ARG_VALUE.
func (r *Runner) Descriptor() registry.NodeDescriptor {
	return registry.NodeDescriptor{
		Type:        TypeRun,
		Description: "Runs an allow-listed local command and outputs its stdout.",
		Inputs: []domain.SlotSpec{
			domain.Slot("tool", schema.Text),
			domain.OptionalSlot("args", schema.Any),
		},
		Outputs: []domain.SlotSpec{domain.Slot("result", schema.Any)},
		Behavior: registry.Effectful(func(ctx context.Context, c *registry.Call) (registry.Outputs, error) {
			args, ok := c.Inputs["args"].(map[string]any)
			if !ok {
				args = map[string]any{}
				if v, set := c.Inputs["args"]; set {
					args["value"] = v
				}
			}
			result, err := r.Run(ctx, c.Text("tool"), args)
			if err != nil {
				return nil, err
			}
			return registry.Outputs{"result": result}, nil
		}),
	}
}
