package buildcfg

import (
	"fmt"
	"go/version"
	"log/slog"
	"runtime"
	"strings"

	"github.com/cybergodev/json"
)

// DefaultGoBinary is the toolchain queried when the project does not name one.
const DefaultGoBinary = "go"

// Toolchain describes the active Go toolchain as reported by `go env`.
type Toolchain struct {
	Binary    string `json:"binary"`
	GoVersion string `json:"goversion,omitempty"`
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
	GOAMD64   string `json:"goamd64,omitempty"`
	// Probe records whether `go env` itself could be queried.
	Probe ProbeResult `json:"-"`
}

type goEnvOutput struct {
	GOVERSION string
	GOOS      string
	GOARCH    string
	GOAMD64   string
}

// experiment binds a capability to the Go experiment that provides it.
type experiment struct {
	capability Capability
	name       string
	minVersion string
}

// Optional toolchain features, probed in this order.
var toolchainExperiments = []experiment{
	{capability: CapabilityJSONv2, name: "jsonv2", minVersion: "go1.25"},
	{capability: CapabilityArenas, name: "arenas", minVersion: "go1.20"},
	{capability: CapabilityGreenTeaGC, name: "greenteagc", minVersion: "go1.25"},
}

// simdExperiment is the portable vectorized-operations construct.
var simdExperiment = experiment{capability: CapabilitySIMD, name: "simd", minVersion: "go1.26"}

// Experiment returns the GOEXPERIMENT name the capability depends on.
func (c Capability) Experiment() (string, bool) {
	if c == simdExperiment.capability {
		return simdExperiment.name, true
	}
	for _, e := range toolchainExperiments {
		if e.capability == c {
			return e.name, true
		}
	}
	return "", false
}

// DetectToolchain reports the toolchain named by binary, as seen from
// the current process environment.
func DetectToolchain(binary string) Toolchain {
	return probeToolchain(OSEnvironment{}, binary)
}

// probeToolchain queries `go env -json` for the facts later probes need.
// A failure leaves the version unknown and falls back to GOOS/GOARCH from
// the environment, then to the host.
func probeToolchain(env Environment, binary string) Toolchain {
	tc := Toolchain{
		Binary: binary,
		GOOS:   getenv(env, "GOOS", runtime.GOOS),
		GOARCH: getenv(env, "GOARCH", runtime.GOARCH),
	}
	if tc.GOARCH == "amd64" {
		tc.GOAMD64 = getenv(env, "GOAMD64", "v1")
	}

	out, err := env.Run(Command{
		Name: binary,
		Args: []string{"env", "-json", "GOVERSION", "GOOS", "GOARCH", "GOAMD64"},
	})
	if err != nil {
		tc.Probe = ProbeResult{Error: fmt.Errorf("%s env: %w", binary, err)}
		return tc
	}

	var ge goEnvOutput
	if err := json.Unmarshal(out, &ge); err != nil {
		tc.Probe = ProbeResult{Error: fmt.Errorf("parse %s env output: %w", binary, err)}
		return tc
	}

	tc.GoVersion = ge.GOVERSION
	if ge.GOOS != "" {
		tc.GOOS = ge.GOOS
	}
	if ge.GOARCH != "" {
		tc.GOARCH = ge.GOARCH
	}
	tc.GOAMD64 = ""
	if tc.GOARCH == "amd64" {
		tc.GOAMD64 = ge.GOAMD64
	}
	tc.Probe = ProbeResult{Supported: true}
	return tc
}

// probeExperiment asks the toolchain whether GOEXPERIMENT=<name> is
// accepted. It never returns an error: anything short of a clean answer
// is reported as a failed probe.
func probeExperiment(env Environment, tc Toolchain, exp experiment) ProbeResult {
	if version.IsValid(tc.GoVersion) && version.Compare(tc.GoVersion, exp.minVersion) < 0 {
		return ProbeResult{}
	}

	experiments := exp.name
	if current := getenv(env, "GOEXPERIMENT", ""); current != "" {
		experiments = current + "," + exp.name
	}

	out, err := env.Run(Command{
		Name: tc.Binary,
		Args: []string{"env", "GOEXPERIMENT"},
		Env:  []string{"GOEXPERIMENT=" + experiments},
	})
	if err == nil {
		return ProbeResult{Supported: true}
	}
	if strings.Contains(string(out), "unknown GOEXPERIMENT") {
		return ProbeResult{}
	}
	return ProbeResult{Error: fmt.Errorf("probe GOEXPERIMENT=%s: %w", exp.name, err)}
}

// probeToolchainFeatures decides every toolchain-only capability.
func probeToolchainFeatures(env Environment, tc Toolchain, ov Overrides, log *slog.Logger) []Decision {
	decisions := make([]Decision, 0, len(toolchainExperiments))
	for _, exp := range toolchainExperiments {
		if ov.Disabled(exp.capability) {
			decisions = append(decisions, disabledBy(exp.capability, ProvenanceForcedOff, ProbeResult{}))
			continue
		}
		result := probeExperiment(env, tc, exp)
		log.Debug("toolchain probe", "capability", exp.capability, "experiment", exp.name, "status", result.Status(), "error", result.Error)
		if result.Supported {
			decisions = append(decisions, enabledBy(exp.capability, ProvenanceProbed, result))
		} else {
			decisions = append(decisions, disabledBy(exp.capability, ProvenanceAbsent, result))
		}
	}
	return decisions
}
