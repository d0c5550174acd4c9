package buildcfg

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
)

// Command is a synchronous subprocess invocation.
type Command struct {
	Name string
	Args []string
	// Env entries are appended to the inherited environment.
	Env []string
	Dir string
}

func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

// Environment isolates process-wide state (environment variables and
// subprocess execution) from the decision logic.
type Environment interface {
	// LookupEnv behaves like [os.LookupEnv].
	LookupEnv(key string) (string, bool)
	// Run executes cmd to completion and returns its combined output.
	// A non-zero exit status is reported as an error.
	Run(cmd Command) ([]byte, error)
}

// OSEnvironment is the [Environment] of the running process.
type OSEnvironment struct{}

// LookupEnv implements [Environment].
func (OSEnvironment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Run implements [Environment]. No timeout is applied.
func (OSEnvironment) Run(cmd Command) ([]byte, error) {
	c := exec.Command(cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out
	err := c.Run()
	return out.Bytes(), err
}

// getenv returns the value of key, or def when unset or empty.
func getenv(env Environment, key, def string) string {
	if v, ok := env.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
