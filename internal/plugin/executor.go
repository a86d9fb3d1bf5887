package plugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single plugin run.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when a plugin outlives its timeout.
var ErrTimeout = errors.New("plugin execution timeout")

// Executor runs plugins one request at a time.
type Executor struct {
	timeout time.Duration
}

// NewExecutor uses DefaultTimeout for non-positive timeouts.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{timeout: timeout}
}

// Execute writes req to the plugin's stdin as JSON and decodes its stdout as
// a Response. The event kind and plugin name are also set in the
// environment as PINCHBOARD_EVENT and PINCHBOARD_PLUGIN, for plugins that do
// not need the full request.
func (e *Executor) Execute(ctx context.Context, p *Plugin, req *Request) (*Response, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Executable)
	cmd.Dir = p.Path
	cmd.Env = append(os.Environ(),
		"PINCHBOARD_PLUGIN="+p.Manifest.Name,
		"PINCHBOARD_EVENT="+req.Event,
	)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// A killed plugin's children may keep stdout open.
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%s: %w after %s", p.Manifest.Name, ErrTimeout, e.timeout)
	case runErr != nil && stderr.Len() > 0:
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", p.Manifest.Name, runErr, strings.TrimSpace(stderr.String()))
	case runErr != nil:
		return nil, fmt.Errorf("%s failed: %w", p.Manifest.Name, runErr)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %q", err, stdout.String())
	}
	return &resp, nil
}
