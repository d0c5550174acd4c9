package buildcfg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// nativeDefines restrict the native backend to the reader half of the
// library with no extensions and no input validation.
var nativeDefines = []string{
	"YYJSON_DISABLE_NON_STANDARD=1",
	"YYJSON_DISABLE_UTF8_VALIDATION=1",
	"YYJSON_DISABLE_UTILS=1",
	"YYJSON_DISABLE_WRITER=1",
}

var errNoNativeSource = errors.New("no native source configured")

// NativeArtifact is the static library produced by a successful native build.
type NativeArtifact struct {
	Name    string `json:"name"`
	Dir     string `json:"dir"`
	Archive string `json:"archive"`
}

// buildNative decides the native backend capability. requested marks the
// caller's explicit opt-in, which turns a failed or forbidden build into
// a *[ConfigError].
func buildNative(env Environment, p *Project, ov Overrides, requested bool, log *slog.Logger) (Decision, *NativeArtifact, error) {
	d := Decision{Capability: CapabilityYYJSON, Required: requested}

	if ov.DisableYYJSON {
		if requested {
			return d, nil, &ConfigError{
				Capability: CapabilityYYJSON,
				Reason:     fmt.Sprintf("%s and an explicit request for %s are both set", EnvDisableYYJSON, CapabilityYYJSON),
			}
		}
		d.Provenance = ProvenanceForcedOff
		log.Debug("native backend disabled by override", "env", EnvDisableYYJSON)
		return d, nil, nil
	}

	art, err := compileNative(env, p)
	if err != nil {
		d.Probe = ProbeResult{Error: err}
		if requested {
			return d, nil, &ConfigError{
				Capability: CapabilityYYJSON,
				Reason:     fmt.Sprintf("%s was requested but its build failed; to build with a different backend do not request it", CapabilityYYJSON),
				Err:        err,
			}
		}
		log.Debug("native backend unavailable", "error", err)
		return d, nil, nil
	}

	d.Probe = ProbeResult{Supported: true}
	if requested {
		d.Outcome = OutcomeEnabledMandatory
		d.Provenance = ProvenanceForcedOn
	} else {
		d.Outcome = OutcomeEnabledOpportunistic
		d.Provenance = ProvenanceProbed
	}
	return d, art, nil
}

// compileNative compiles the native source into lib<name>.a under the
// project output directory using $CC, $CFLAGS and $AR.
func compileNative(env Environment, p *Project) (*NativeArtifact, error) {
	if p == nil || p.Native == nil || p.Native.Source == "" {
		return nil, errNoNativeSource
	}
	ns := p.Native

	outDir := p.Path(p.OutDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	obj := filepath.Join(outDir, ns.Name+".o")
	archive := filepath.Join(outDir, "lib"+ns.Name+".a")

	cc := toolCommand(env, "CC", "cc")
	args := append([]string(nil), cc[1:]...)
	args = append(args, "-c", "-O3", "-fPIC")
	args = append(args, strings.Fields(getenv(env, "CFLAGS", ""))...)
	for _, inc := range ns.Include {
		args = append(args, "-I"+p.Path(inc))
	}
	for _, def := range nativeDefines {
		args = append(args, "-D"+def)
	}
	args = append(args, "-o", obj, p.Path(ns.Source))

	if out, err := env.Run(Command{Name: cc[0], Args: args}); err != nil {
		return nil, commandError(cc[0], out, err)
	}

	ar := toolCommand(env, "AR", "ar")
	arArgs := append(append([]string(nil), ar[1:]...), "crs", archive, obj)
	if out, err := env.Run(Command{Name: ar[0], Args: arArgs}); err != nil {
		return nil, commandError(ar[0], out, err)
	}

	return &NativeArtifact{Name: ns.Name, Dir: outDir, Archive: archive}, nil
}

// toolCommand splits a tool variable such as CC="ccache gcc" into the
// program and its leading arguments.
func toolCommand(env Environment, key, def string) []string {
	fields := strings.Fields(getenv(env, key, def))
	if len(fields) == 0 {
		return []string{def}
	}
	return fields
}

func commandError(name string, out []byte, err error) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return fmt.Errorf("%s: %w", name, err)
	}
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return fmt.Errorf("%s: %w: %s", name, err, msg)
}
