package process

import (
	"fmt"
	"os/exec"
	"time"
)

// Config describes the external render command.
type Config struct {
	Command string
	Args    []string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env map[string]string
	// Dir is the working directory; empty means the current one.
	Dir string
	// WaitDelay bounds how long the process may linger after cancellation.
	WaitDelay time.Duration
}

// Validate checks that the command resolves on PATH or as a path.
func (c Config) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("render command is required")
	}
	if _, err := exec.LookPath(c.Command); err != nil {
		return fmt.Errorf("render command %q: %w", c.Command, err)
	}
	return nil
}
