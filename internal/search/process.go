package search

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// Launcher starts external processes. The session uses it to spawn rg.
type Launcher interface {
	Launch(ctx context.Context, program string, args []string) (Process, error)
}

// Process is a running child whose standard output carries the rg event
// stream.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Kill terminates the process without waiting for it to exit.
	Kill() error
	// Wait blocks until the process exits and its output pipes are closed.
	// exitCode is -1 when the process was terminated by a signal.
	Wait() (exitCode int, err error)
}

// ExecLauncher launches programs with os/exec.
type ExecLauncher struct {
	// Dir is the working directory of the child. Empty means the current one.
	Dir string
	// Env replaces the child environment when non-nil.
	Env []string
}

// Launch resolves program on PATH and starts it with piped output.
func (l ExecLauncher) Launch(ctx context.Context, program string, args []string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := exec.LookPath(program)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = l.Dir
	if l.Env != nil {
		cmd.Env = l.Env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
