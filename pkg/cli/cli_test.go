package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContext(t *testing.T) {
	var got Input
	c := NewCLI("tool", "test tool")
	c.AddCommands(&cobra.Command{
		Use: "hello",
		RunE: WithContext(func(ctx context.Context, input Input) error {
			got = input
			input.Logger.Debug("debug line")
			_, err := input.Stdout.Write([]byte("hi"))
			return err
		}),
	})

	var stdout, stderr bytes.Buffer
	root := c.Root()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"hello", "--log-level", "debug", "--log-format", "json"})
	require.NoError(t, root.Execute())

	require.NotNil(t, got.Logger)
	assert.Equal(t, "hi", stdout.String())
	assert.Contains(t, stderr.String(), `"msg":"debug line"`)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "text", false},
		{"WARN", "json", false},
		{"", "", false},
		{"loud", "text", true},
		{"info", "xml", true},
	}
	for _, tc := range tests {
		_, err := NewLogger(&bytes.Buffer{}, tc.level, tc.format)
		if tc.wantErr {
			assert.Error(t, err, "%s/%s", tc.level, tc.format)
		} else {
			assert.NoError(t, err, "%s/%s", tc.level, tc.format)
		}
	}
}
