package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/nodes"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConsole(t *testing.T, h runner.IOHandler) (*runner.Driver, *memory.Host) {
	t.Helper()
	base := memory.NewHost()
	m := tendril.New(nodes.NewRegistry(), tendril.WithHost(runner.NewEchoHost(base, h)))
	require.NoError(t, m.Load(context.Background(), echoSpec(t, "go")))
	return runner.NewDriver(m), base
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    runner.Request
		wantErr bool
	}{
		{line: "start", want: runner.Request{Entry: "start"}},
		{line: "door/opened {\"value\": 3}", want: runner.Request{Entry: "door/opened", Payload: map[string]any{"value": 3.0}}},
		{line: "tick value=2 fast=true label=slow", want: runner.Request{Entry: "tick", Payload: map[string]any{"value": 2, "fast": true, "label": "slow"}}},
		{line: "tick list=[1,2]", want: runner.Request{Entry: "tick", Payload: map[string]any{"list": "[1,2]"}}},
		{line: "tick {bad", wantErr: true},
		{line: "tick novalue", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := runner.ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseLine() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInteract_Text(t *testing.T) {
	in := strings.NewReader("# comment\ngo value=3\n\ngo {oops\ngo\necho/go value=hi\n")
	out := &bytes.Buffer{}
	h := runner.NewTextHandler(in, out)
	d, base := newConsole(t, h)

	require.NoError(t, d.Interact(context.Background(), h))

	text := out.String()
	assert.Contains(t, text, "[print] 3")
	assert.Contains(t, text, "ok   echo/go")
	assert.Contains(t, text, "Error: payload:")
	assert.Contains(t, text, "fail echo/go:")
	assert.Contains(t, text, "[print] hi")
	assert.Equal(t, []any{"3", "hi"}, base.Emitted(nodes.PrintTopic))
}

func TestInteract_TextCanceled(t *testing.T) {
	h := runner.NewTextHandler(strings.NewReader(""), &bytes.Buffer{})
	d, _ := newConsole(t, h)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, d.Interact(ctx, h))
}

func TestInteract_JSON(t *testing.T) {
	in := strings.NewReader("{\"entry\":\"go\",\"payload\":{\"value\":\"hi\"}}\nnot json\n{\"payload\":{}}\n{\"graph\":\"echo\",\"entry\":\"go\"}")
	out := &bytes.Buffer{}
	h := runner.NewJSONHandler(in, out)
	d, _ := newConsole(t, h)

	require.NoError(t, d.Interact(context.Background(), h))

	var msgs []runner.Message
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var msg runner.Message
		require.NoError(t, json.Unmarshal(sc.Bytes(), &msg))
		msgs = append(msgs, msg)
	}
	require.Len(t, msgs, 5)

	assert.Equal(t, runner.MessageEmit, msgs[0].Type)
	assert.Equal(t, "print", msgs[0].Topic)
	assert.Equal(t, "hi", msgs[0].Value)

	assert.Equal(t, runner.MessageOutcome, msgs[1].Type)
	require.NotNil(t, msgs[1].Outcome)
	assert.Equal(t, domain.OutcomeSucceeded, msgs[1].Outcome.Status)
	assert.Equal(t, "echo", msgs[1].Outcome.Graph)

	assert.Equal(t, runner.MessageError, msgs[2].Type)
	assert.Equal(t, runner.MessageError, msgs[3].Type)
	assert.Contains(t, msgs[3].Error, "missing entry")

	require.NotNil(t, msgs[4].Outcome)
	assert.Equal(t, domain.OutcomeFailed, msgs[4].Outcome.Status)
	assert.Contains(t, msgs[4].Outcome.Reason, "value")
}

func TestEchoHost_FailureIsNotEchoed(t *testing.T) {
	out := &bytes.Buffer{}
	base := memory.NewHost()
	base.FailWith(assert.AnError)
	host := runner.NewEchoHost(base, runner.NewTextHandler(nil, out))

	assert.Error(t, host.Emit(context.Background(), "print", "x"))
	assert.Empty(t, out.String())
}

func TestSanitizeInput(t *testing.T) {
	clean, err := runner.SanitizeInput("go\x1b[31m value=1\t")
	require.NoError(t, err)
	assert.Equal(t, "go[31m value=1\t", clean)

	_, err = runner.SanitizeInput(string([]byte{0xff, 0xfe}))
	assert.ErrorIs(t, err, runner.ErrInvalidUTF8)

	t.Setenv(runner.EnvMaxInputSize, "4")
	_, err = runner.SanitizeInput("too long")
	assert.ErrorIs(t, err, runner.ErrInputTooLarge)
}
