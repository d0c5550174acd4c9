package buildcfg

import (
	"fmt"
	"strings"
)

// dependencies lists the capabilities each capability requires.
var dependencies = map[Capability][]Capability{
	CapabilityAVX512: {CapabilitySIMD},
}

// Dependencies returns the capabilities c cannot be enabled without.
func Dependencies(c Capability) []Capability {
	return append([]Capability(nil), dependencies[c]...)
}

// Resolve checks already-computed decisions for internal consistency and
// returns them indexed by capability. Capabilities without a decision are
// recorded as disabled. It probes nothing.
//
// The first violation found is returned as a *[ConfigError].
func Resolve(decisions []Decision, ov Overrides) (map[Capability]Decision, error) {
	byCap := make(map[Capability]Decision, len(CapabilityValues()))
	for _, c := range CapabilityValues() {
		byCap[c] = Decision{Capability: c}
	}
	for _, d := range decisions {
		if _, known := byCap[d.Capability]; !known {
			return nil, &ConfigError{Capability: d.Capability, Reason: "unknown capability"}
		}
		byCap[d.Capability] = d
	}

	for _, c := range CapabilityValues() {
		d := byCap[c]

		if d.Required && !d.Enabled() {
			return nil, &ConfigError{
				Capability: c,
				Reason:     "explicitly requested but not enabled",
				Err:        d.Probe.Error,
			}
		}
		if !d.Enabled() {
			continue
		}
		if ov.Disabled(c) {
			env, _ := OverrideVar(c)
			return nil, &ConfigError{
				Capability: c,
				Reason:     fmt.Sprintf("enabled although %s is set", env),
			}
		}
		for _, dep := range dependencies[c] {
			if !byCap[dep].Enabled() {
				return nil, &ConfigError{
					Capability: c,
					Reason:     fmt.Sprintf("enabled without its dependency %s", dep),
				}
			}
		}
	}
	return byCap, nil
}

// Diagnose explains why c ended up disabled and what the operator can
// change. For an enabled capability it says so.
func (bc *BuildConfiguration) Diagnose(c Capability) string {
	d := bc.Decision(c)
	if d.Enabled() {
		return d.Outcome.String()
	}

	switch d.Provenance {
	case ProvenanceForcedOff:
		if env, ok := OverrideVar(c); ok {
			return fmt.Sprintf("disabled by %s; unset it to allow %s", env, c)
		}
	case ProvenanceUnsupported:
		return fmt.Sprintf("GOARCH=%s is not one of %s", bc.Toolchain.GOARCH, strings.Join(SupportedArchitectures, ", "))
	}

	switch c {
	case CapabilityAVX512:
		if !bc.Enabled(CapabilitySIMD) {
			return "requires simd, which is disabled"
		}
		if bc.Toolchain.GOARCH != "amd64" {
			return "AVX-512 is only available on amd64"
		}
		reason := fmt.Sprintf("GOAMD64=%s does not guarantee AVX-512VL; build with GOAMD64=v4", bc.Toolchain.GOAMD64)
		if bc.Host.AVX512VL {
			reason += " (the host CPU supports it)"
		}
		return reason
	case CapabilityYYJSON:
		if d.Probe.Error != nil {
			return fmt.Sprintf("native build failed: %v", d.Probe.Error)
		}
	}

	if d.Probe.Error != nil {
		return d.Probe.Error.Error()
	}
	if name, ok := c.Experiment(); ok {
		v := bc.Toolchain.GoVersion
		if v == "" {
			v = "unknown version"
		}
		return fmt.Sprintf("toolchain (%s) does not accept GOEXPERIMENT=%s", v, name)
	}
	return "not available"
}
