package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds one automation run
const DefaultTimeout = 5 * time.Minute

// ErrTimeout is returned when the child outlives the runner timeout
var ErrTimeout = errors.New("automation timed out")

// SubprocessError reports a child that could not start or exited non-zero
type SubprocessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SubprocessError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("automation exited with code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("automation failed: %v", e.Err)
}

func (e *SubprocessError) Unwrap() error {
	return e.Err
}

// Output is what a finished child produced
type Output struct {
	Stdout   []byte
	Stderr   string
	Duration time.Duration
}

// Runner starts the analysis child process. The JSON config is always the
// last argument; Env entries are appended to the parent's environment.
type Runner struct {
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// NewRunner returns a Runner for command. An empty command re-executes the
// running binary with the "analyze" subcommand.
func NewRunner(command string, timeout time.Duration) (*Runner, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if command != "" {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return nil, fmt.Errorf("automation command %q is blank", command)
		}
		return &Runner{Command: fields[0], Args: fields[1:], Timeout: timeout}, nil
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &Runner{Command: self, Args: []string{"analyze"}, Timeout: timeout}, nil
}

// Run executes the child with config marshalled as JSON. The child is killed
// when the timeout elapses or ctx ends; Run never returns while it is alive.
func (r *Runner) Run(ctx context.Context, config interface{}, env ...string) (*Output, error) {
	payload, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode automation config: %w", err)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string(nil), r.Args...), string(payload))
	cmd := exec.CommandContext(runCtx, r.Command, args...)
	cmd.Env = append(append(os.Environ(), r.Env...), env...)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("[AUTOMATION] Starting %s %s", r.Command, strings.Join(r.Args, " "))
	start := time.Now()
	err = cmd.Run()
	out := &Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		log.Printf("[AUTOMATION] Killed after %s", timeout)
		return out, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if err != nil {
		perr := &SubprocessError{Stderr: out.Stderr, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			perr.ExitCode = exitErr.ExitCode()
		}
		log.Printf("[AUTOMATION] %v", perr)
		return out, perr
	}

	if out.Stderr != "" {
		log.Printf("[AUTOMATION] child stderr:\n%s", strings.TrimSpace(out.Stderr))
	}
	log.Printf("[AUTOMATION] Finished in %s (%d bytes of output)", out.Duration, len(out.Stdout))
	return out, nil
}
