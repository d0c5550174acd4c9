package buildcfg

import (
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"testing"
)

var errExit = errors.New("exit status 1")

// fakeEnv is an [Environment] backed by a map and a scripted toolchain.
type fakeEnv struct {
	vars  map[string]string
	tc    fakeToolchain
	calls []Command
}

// fakeToolchain scripts the answers of go, cc and ar.
type fakeToolchain struct {
	version     string
	goos        string
	goarch      string
	goamd64     string
	experiments []string
	goMissing   bool
	ccFails     bool
}

func newFakeEnv(tc fakeToolchain, vars ...string) *fakeEnv {
	env := &fakeEnv{vars: map[string]string{}, tc: tc}
	for _, kv := range vars {
		k, v, _ := strings.Cut(kv, "=")
		env.vars[k] = v
	}
	return env
}

func (f *fakeEnv) LookupEnv(key string) (string, bool) {
	v, ok := f.vars[key]
	return v, ok
}

func (f *fakeEnv) Run(cmd Command) ([]byte, error) {
	f.calls = append(f.calls, cmd)
	switch cmd.Name {
	case "go":
		return f.tc.runGo(cmd)
	case "cc", "gcc":
		if f.tc.ccFails {
			return []byte("yyjson.c:1:10: fatal error: yyjson.h: No such file or directory\ncompilation terminated."), errExit
		}
		return nil, nil
	case "ar":
		return nil, nil
	}
	return nil, &exec.Error{Name: cmd.Name, Err: exec.ErrNotFound}
}

func (tc fakeToolchain) runGo(cmd Command) ([]byte, error) {
	if tc.goMissing {
		return nil, &exec.Error{Name: "go", Err: exec.ErrNotFound}
	}
	if len(cmd.Args) >= 2 && cmd.Args[0] == "env" && cmd.Args[1] == "-json" {
		goos := tc.goos
		if goos == "" {
			goos = "linux"
		}
		return []byte(fmt.Sprintf("{\n\t\"GOAMD64\": %q,\n\t\"GOARCH\": %q,\n\t\"GOOS\": %q,\n\t\"GOVERSION\": %q\n}\n",
			tc.goamd64, tc.goarch, goos, tc.version)), nil
	}
	if slices.Equal(cmd.Args, []string{"env", "GOEXPERIMENT"}) {
		var requested string
		for _, e := range cmd.Env {
			if v, ok := strings.CutPrefix(e, "GOEXPERIMENT="); ok {
				requested = v
			}
		}
		for _, name := range strings.Split(requested, ",") {
			if !slices.Contains(tc.experiments, name) {
				return []byte(fmt.Sprintf("go: unknown GOEXPERIMENT %s\n", name)), errExit
			}
		}
		return []byte(requested + "\n"), nil
	}
	return nil, fmt.Errorf("unexpected go invocation: %v", cmd.Args)
}

// experimentProbes returns the experiments probed through `go env GOEXPERIMENT`.
func (f *fakeEnv) experimentProbes() []string {
	var out []string
	for _, c := range f.calls {
		if c.Name != "go" || !slices.Equal(c.Args, []string{"env", "GOEXPERIMENT"}) {
			continue
		}
		for _, e := range c.Env {
			if v, ok := strings.CutPrefix(e, "GOEXPERIMENT="); ok {
				parts := strings.Split(v, ",")
				out = append(out, parts[len(parts)-1])
			}
		}
	}
	return out
}

func (f *fakeEnv) ran(name string) bool {
	for _, c := range f.calls {
		if c.Name == name {
			return true
		}
	}
	return false
}

func TestCommand_String(t *testing.T) {
	c := Command{Name: "go", Args: []string{"env", "-json", "GOARCH"}}
	if got, want := c.String(), "go env -json GOARCH"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGetenv(t *testing.T) {
	env := newFakeEnv(fakeToolchain{}, "CC=clang", "EMPTY=")

	if got := getenv(env, "CC", "cc"); got != "clang" {
		t.Errorf("getenv(CC) = %q, want clang", got)
	}
	if got := getenv(env, "EMPTY", "def"); got != "def" {
		t.Errorf("getenv(EMPTY) = %q, want def", got)
	}
	if got := getenv(env, "MISSING", "def"); got != "def" {
		t.Errorf("getenv(MISSING) = %q, want def", got)
	}
}

func TestOSEnvironment_RunMissingBinary(t *testing.T) {
	_, err := OSEnvironment{}.Run(Command{Name: "buildcfg-definitely-not-a-binary"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("error = %v, want exec.ErrNotFound", err)
	}
}
