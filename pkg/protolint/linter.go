package protolint

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// Tool names an external proto linter.
type Tool string

const (
	Buf       Tool = "buf"
	Protolint Tool = "protolint"
)

// ParseTool accepts the --lint flag values.
func ParseTool(s string) (Tool, error) {
	switch Tool(strings.ToLower(s)) {
	case Buf:
		return Buf, nil
	case Protolint:
		return Protolint, nil
	default:
		return "", errors.Newf("unknown lint tool %q (want buf or protolint)", s)
	}
}

// Linter provides proto file linting functionality
type Linter struct {
	logger *slog.Logger
	// lookPath is replaced in tests.
	lookPath func(string) (string, error)
}

// NewLinter creates a new Linter instance
func NewLinter(logger *slog.Logger) *Linter {
	return &Linter{
		logger:   logger,
		lookPath: exec.LookPath,
	}
}

// LintResult contains the result of linting
type LintResult struct {
	Tool     Tool
	Success  bool
	Messages []string
	Errors   []string
}

// Lint runs the tool on a proto file or directory. Lint findings are
// reported in the result; only failures to run the tool return an error.
func (l *Linter) Lint(ctx context.Context, tool Tool, path string) (*LintResult, error) {
	l.logger.Info("Running proto lint", "tool", tool, "path", path)

	bin, err := l.lookPath(string(tool))
	if err != nil {
		return nil, errors.Wrapf(err, "%s is not installed", tool)
	}

	cmd := exec.CommandContext(ctx, bin, "lint", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	result := &LintResult{Tool: tool, Success: runErr == nil}
	result.Errors = append(splitLines(stdout.String()), splitLines(stderr.String())...)

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) || !lintExitCode(tool, exitErr.ExitCode()) {
			return result, errors.Wrapf(runErr, "failed to run %s lint", tool)
		}
		l.logger.Warn("Proto file has lint issues", "tool", tool, "issues", len(result.Errors))
		return result, nil
	}

	l.logger.Info("Proto file passed lint check", "tool", tool)
	result.Messages = append(result.Messages, fmt.Sprintf("Proto file passed all %s checks", tool))
	return result, nil
}

// lintExitCode reports whether code means "lint findings" rather than a crash.
// buf uses 100 for findings, protolint uses 1.
func lintExitCode(tool Tool, code int) bool {
	switch tool {
	case Buf:
		return code == 100 || code == 1
	default:
		return code == 1
	}
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// FormatResult formats the lint result for display
func (r *LintResult) FormatResult() string {
	var output strings.Builder

	if r.Success {
		output.WriteString("Lint check passed\n")
		for _, msg := range r.Messages {
			output.WriteString(fmt.Sprintf("  %s\n", msg))
		}
	} else {
		output.WriteString("Lint check found issues:\n")
		for _, err := range r.Errors {
			output.WriteString(fmt.Sprintf("  %s\n", err))
		}
	}

	return output.String()
}
