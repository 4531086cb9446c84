package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kbukum/shadowkit/logger"
)

var (
	// ErrBinaryNotFound is returned when the binary cannot be resolved on PATH.
	ErrBinaryNotFound = errors.New("process: binary not found")
	// ErrOutputTooLarge is returned when stdout exceeds Command.MaxStdout.
	ErrOutputTooLarge = errors.New("process: stdout limit exceeded")
)

// Run executes a subprocess and waits for it to complete.
// If the context is canceled, SIGTERM is sent to the process group first,
// then SIGKILL after GracePeriod.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}
	if _, err := exec.LookPath(cmd.Binary); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBinaryNotFound, cmd.Binary)
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = 5 * time.Second
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)

	var stdout, stderr bytes.Buffer
	out := &cappedWriter{buf: &stdout, limit: cmd.MaxStdout}
	c.Stdout = out
	c.Stderr = &stderr
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	log := logger.WithComponent("process").WithFields(map[string]interface{}{"binary": cmd.Binary})
	log.Debug("starting subprocess", map[string]interface{}{"args": cmd.Args})

	start := time.Now()
	err := c.Run()
	duration := time.Since(start)

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: duration,
	}
	log.Debug("subprocess exited", logger.DurationFields("run", duration), logger.Fields("exit_code", result.ExitCode))

	if out.exceeded {
		return result, fmt.Errorf("%w (%d bytes)", ErrOutputTooLarge, cmd.MaxStdout)
	}
	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("process: killed by context: %w", ctx.Err())
		}
		return result, fmt.Errorf("process: exit code %d: %w", result.ExitCode, err)
	}
	return result, nil
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	env := os.Environ()
	return append(env, extra...)
}

// cappedWriter stops buffering after limit bytes but keeps draining the pipe
// so the child never blocks on a full stdout.
type cappedWriter struct {
	buf      *bytes.Buffer
	limit    int
	exceeded bool
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	if w.limit > 0 && w.buf.Len()+len(p) > w.limit {
		w.exceeded = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
