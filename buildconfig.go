package buildcfg

import (
	"github.com/cybergodev/json"
)

// Host describes the machine running the pipeline. It feeds diagnostics
// only; decisions are made for the target, which may differ.
type Host struct {
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Kernel   string `json:"kernel,omitempty"`
	AVX512VL bool   `json:"avx512vl"`
	ASIMD    bool   `json:"asimd"`
}

// BuildConfiguration is the resolved, immutable outcome of one run:
// the state of every capability plus the inputs that must trigger a
// fresh run when they change.
type BuildConfiguration struct {
	Toolchain Toolchain
	Host      Host
	// Native is set when the native backend was built.
	Native *NativeArtifact

	decisions map[Capability]Decision
	tagPrefix string
	paths     []string
	envVars   []string
}

// Decision returns the recorded decision for c.
func (bc *BuildConfiguration) Decision(c Capability) Decision {
	if d, ok := bc.decisions[c]; ok {
		return d
	}
	return Decision{Capability: c}
}

// Enabled reports whether c is on.
func (bc *BuildConfiguration) Enabled(c Capability) bool {
	return bc.Decision(c).Enabled()
}

// Decisions returns every decision in capability order.
func (bc *BuildConfiguration) Decisions() []Decision {
	out := make([]Decision, 0, len(CapabilityValues()))
	for _, c := range CapabilityValues() {
		out = append(out, bc.Decision(c))
	}
	return out
}

// EnabledCapabilities returns the enabled capabilities in capability order.
func (bc *BuildConfiguration) EnabledCapabilities() []Capability {
	var out []Capability
	for _, c := range CapabilityValues() {
		if bc.Enabled(c) {
			out = append(out, c)
		}
	}
	return out
}

// BuildTag returns the build tag that activates c downstream, such as
// xorjson_simd for the prefix xorjson.
func BuildTag(prefix string, c Capability) string {
	return prefix + "_" + c.String()
}

// Tag returns the build tag that activates c downstream.
func (bc *BuildConfiguration) Tag(c Capability) string {
	return BuildTag(bc.tagPrefix, c)
}

// Tags returns the build tags of the enabled capabilities.
func (bc *BuildConfiguration) Tags() []string {
	var tags []string
	for _, c := range bc.EnabledCapabilities() {
		tags = append(tags, bc.Tag(c))
	}
	return tags
}

// Experiments returns the GOEXPERIMENT names the enabled capabilities need.
func (bc *BuildConfiguration) Experiments() []string {
	var out []string
	for _, c := range bc.EnabledCapabilities() {
		if name, ok := c.Experiment(); ok {
			out = append(out, name)
		}
	}
	return out
}

// TrackedPaths returns the paths whose change requires a fresh run.
func (bc *BuildConfiguration) TrackedPaths() []string {
	return append([]string(nil), bc.paths...)
}

// TrackedEnv returns the variables whose change requires a fresh run.
func (bc *BuildConfiguration) TrackedEnv() []string {
	return append([]string(nil), bc.envVars...)
}

type capabilityReport struct {
	Capability Capability `json:"capability"`
	Enabled    bool       `json:"enabled"`
	Outcome    Outcome    `json:"outcome"`
	Provenance Provenance `json:"provenance"`
	Required   bool       `json:"required,omitempty"`
	Tag        string     `json:"tag"`
	Diagnosis  string     `json:"diagnosis"`
}

type configurationReport struct {
	Toolchain    Toolchain          `json:"toolchain"`
	Host         Host               `json:"host"`
	Capabilities []capabilityReport `json:"capabilities"`
	Tags         []string           `json:"tags"`
	Experiments  []string           `json:"experiments"`
	Native       *NativeArtifact    `json:"native,omitempty"`
	RerunPaths   []string           `json:"rerun_if_changed"`
	RerunEnv     []string           `json:"rerun_if_env_changed"`
}

// MarshalJSON renders the configuration as a report.
func (bc *BuildConfiguration) MarshalJSON() ([]byte, error) {
	r := configurationReport{
		Toolchain:   bc.Toolchain,
		Host:        bc.Host,
		Tags:        nonNil(bc.Tags()),
		Experiments: nonNil(bc.Experiments()),
		Native:      bc.Native,
		RerunPaths:  nonNil(bc.TrackedPaths()),
		RerunEnv:    nonNil(bc.TrackedEnv()),
	}
	for _, d := range bc.Decisions() {
		r.Capabilities = append(r.Capabilities, capabilityReport{
			Capability: d.Capability,
			Enabled:    d.Enabled(),
			Outcome:    d.Outcome,
			Provenance: d.Provenance,
			Required:   d.Required,
			Tag:        bc.Tag(d.Capability),
			Diagnosis:  bc.Diagnose(d.Capability),
		})
	}
	return json.Marshal(r)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
