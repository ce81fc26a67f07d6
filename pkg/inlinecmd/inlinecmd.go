package inlinecmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTag     = "<cmd>"
	DefaultTimeout = 60 * time.Second
)

// Runner replaces tagged commands in template text with their output.
//
//	"Kernel: <cmd>uname -r<cmd>"
//
// Text is split at every Tag and every second piece is run directly, without
// a shell. Stdout and stderr are captured together. A command that exits
// non-zero still contributes its output.
type Runner struct {
	Tag     string
	Timeout time.Duration
}

func NewRunner() *Runner {
	return &Runner{Tag: DefaultTag, Timeout: DefaultTimeout}
}

func (r *Runner) Expand(ctx context.Context, text string) (string, error) {
	tag := r.Tag
	if tag == "" {
		tag = DefaultTag
	}
	parts := strings.Split(text, tag)
	if len(parts) == 1 {
		return text, nil
	}

	var b strings.Builder
	for i, part := range parts {
		if i%2 == 0 {
			b.WriteString(part)
			continue
		}
		out, err := r.run(ctx, part)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (r *Runner) run(ctx context.Context, command string) (string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return "", fmt.Errorf("split command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command between %s tags", r.Tag)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: commands come from the operator's own template
	cmd := exec.CommandContext(execCtx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err = cmd.Run()
	log.Debug().Str("command", command).Dur("took", time.Since(start)).Msg("Ran inline command")
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case execCtx.Err() == context.DeadlineExceeded:
			return "", fmt.Errorf("command %q timed out after %v", command, timeout)
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.As(err, &exitErr):
			log.Debug().Str("command", command).Int("exitCode", exitErr.ExitCode()).Msg("Inline command failed")
		default:
			return "", fmt.Errorf("run %q: %w", command, err)
		}
	}
	return out.String(), nil
}
