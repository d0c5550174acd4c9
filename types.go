package buildcfg

import (
	"errors"
	"fmt"
	"strings"
)

// ProbeStatus is the tri-state outcome of a single probe.
type ProbeStatus int

const (
	// ProbeUnsupported means the probe completed and the answer is no.
	ProbeUnsupported ProbeStatus = iota
	// ProbeSupported means the probe completed and the answer is yes.
	ProbeSupported
	// ProbeFailed means the probe could not be completed.
	// It is treated exactly like ProbeUnsupported when deciding.
	ProbeFailed
)

func (s ProbeStatus) String() string {
	switch s {
	case ProbeUnsupported:
		return "unsupported"
	case ProbeSupported:
		return "supported"
	case ProbeFailed:
		return "probe failed"
	default:
		return fmt.Sprintf("ProbeStatus(%d)", s)
	}
}

// ProbeResult represents the outcome of a toolchain or compiler probe.
type ProbeResult struct {
	// Supported indicates whether the feature is usable.
	Supported bool
	// Error is non-nil if the probe itself failed (not just unsupported).
	Error error
}

// Status collapses the result into its tri-state form.
func (r ProbeResult) Status() ProbeStatus {
	switch {
	case r.Supported:
		return ProbeSupported
	case r.Error != nil:
		return ProbeFailed
	default:
		return ProbeUnsupported
	}
}

// ErrConfigConflict is matched by every fatal configuration error.
var ErrConfigConflict = errors.New("configuration conflict")

// ConfigError is the only fatal error of the pipeline: a contradiction
// between overrides, explicit requests and probe outcomes.
type ConfigError struct {
	Capability Capability
	Reason     string
	Err        error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capability %s: %s: %v", e.Capability, e.Reason, e.Err)
	}
	return fmt.Sprintf("capability %s: %s", e.Capability, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports ErrConfigConflict as a match so callers can test the category
// without caring about the wrapped cause.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigConflict
}

// Capability is a named optional feature whose state selects a
// conditional-compilation path in the downstream library build.
type Capability int

const (
	// CapabilityJSONv2 requires the jsonv2 Go experiment.
	CapabilityJSONv2 Capability = iota
	// CapabilityArenas requires the arenas Go experiment.
	CapabilityArenas
	// CapabilityGreenTeaGC requires the greenteagc Go experiment.
	CapabilityGreenTeaGC
	// CapabilitySIMD is the baseline SIMD tier (simd Go experiment on a supported architecture).
	CapabilitySIMD
	// CapabilityAVX512 is the highest SIMD tier (amd64 built for GOAMD64=v4).
	CapabilityAVX512
	// CapabilityYYJSON is the optional native yyjson backend.
	CapabilityYYJSON
)

var capabilityNames = map[Capability]string{
	CapabilityJSONv2:     "jsonv2",
	CapabilityArenas:     "arenas",
	CapabilityGreenTeaGC: "greenteagc",
	CapabilitySIMD:       "simd",
	CapabilityAVX512:     "avx512",
	CapabilityYYJSON:     "yyjson",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%d)", c)
}

// MarshalText implements encoding.TextMarshaler.
func (c Capability) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CapabilityValues returns every known capability in declaration order.
func CapabilityValues() []Capability {
	return []Capability{
		CapabilityJSONv2,
		CapabilityArenas,
		CapabilityGreenTeaGC,
		CapabilitySIMD,
		CapabilityAVX512,
		CapabilityYYJSON,
	}
}

// CapabilityNames returns the names of [CapabilityValues], in the same order.
func CapabilityNames() []string {
	values := CapabilityValues()
	names := make([]string, 0, len(values))
	for _, c := range values {
		names = append(names, c.String())
	}
	return names
}

// ParseCapability resolves a capability by name, ignoring case.
func ParseCapability(name string) (Capability, error) {
	name = strings.TrimSpace(name)
	for _, c := range CapabilityValues() {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown capability: %q (available: %s)", name, strings.Join(CapabilityNames(), ", "))
}

// Provenance records why a capability ended up in its state.
type Provenance int

const (
	// ProvenanceAbsent is the default: not proven available.
	ProvenanceAbsent Provenance = iota
	// ProvenanceProbed means a probe found the capability usable.
	ProvenanceProbed
	// ProvenanceForcedOff means an override disabled the capability.
	ProvenanceForcedOff
	// ProvenanceForcedOn means the caller explicitly required the capability.
	ProvenanceForcedOn
	// ProvenanceUnsupported means the target combination cannot have it.
	ProvenanceUnsupported
)

var provenanceNames = map[Provenance]string{
	ProvenanceAbsent:      "absent",
	ProvenanceProbed:      "probed-available",
	ProvenanceForcedOff:   "user-forced-off",
	ProvenanceForcedOn:    "user-forced-on",
	ProvenanceUnsupported: "unsupported-combination",
}

func (p Provenance) String() string {
	if name, ok := provenanceNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Provenance(%d)", p)
}

// MarshalText implements encoding.TextMarshaler.
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Outcome is the resolved state of a capability.
// Only a required capability that cannot be enabled is fatal.
type Outcome int

const (
	// OutcomeDisabled means no directive is emitted.
	OutcomeDisabled Outcome = iota
	// OutcomeEnabledOpportunistic means enabled because it happened to be available.
	OutcomeEnabledOpportunistic
	// OutcomeEnabledMandatory means enabled because the caller demanded it.
	OutcomeEnabledMandatory
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDisabled:
		return "disabled"
	case OutcomeEnabledOpportunistic:
		return "enabled"
	case OutcomeEnabledMandatory:
		return "enabled (required)"
	default:
		return fmt.Sprintf("Outcome(%d)", o)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Enabled reports whether the outcome emits a directive.
func (o Outcome) Enabled() bool {
	return o == OutcomeEnabledOpportunistic || o == OutcomeEnabledMandatory
}

// Decision is the per-capability fact produced by the probers and
// checked by [Resolve].
type Decision struct {
	Capability Capability  `json:"capability"`
	Outcome    Outcome     `json:"outcome"`
	Provenance Provenance  `json:"provenance"`
	Required   bool        `json:"required,omitempty"`
	Probe      ProbeResult `json:"-"`
}

// Enabled reports whether the capability is on.
func (d Decision) Enabled() bool {
	return d.Outcome.Enabled()
}

func enabledBy(c Capability, p Provenance, probe ProbeResult) Decision {
	return Decision{Capability: c, Outcome: OutcomeEnabledOpportunistic, Provenance: p, Probe: probe}
}

func disabledBy(c Capability, p Provenance, probe ProbeResult) Decision {
	return Decision{Capability: c, Outcome: OutcomeDisabled, Provenance: p, Probe: probe}
}
