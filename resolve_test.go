package buildcfg

import (
	"errors"
	"strings"
	"testing"
)

func enabled(c Capability) Decision {
	return Decision{Capability: c, Outcome: OutcomeEnabledOpportunistic, Provenance: ProvenanceProbed}
}

func TestResolve_FillsMissingAsDisabled(t *testing.T) {
	got, err := Resolve([]Decision{enabled(CapabilityJSONv2)}, Overrides{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got) != len(CapabilityValues()) {
		t.Fatalf("got %d decisions, want %d", len(got), len(CapabilityValues()))
	}
	for _, c := range CapabilityValues() {
		want := c == CapabilityJSONv2
		if got[c].Enabled() != want {
			t.Errorf("%s enabled = %v, want %v", c, got[c].Enabled(), want)
		}
		if got[c].Capability != c {
			t.Errorf("decision for %s carries capability %s", c, got[c].Capability)
		}
	}
}

func TestResolve_Violations(t *testing.T) {
	tests := []struct {
		name       string
		decisions  []Decision
		ov         Overrides
		capability Capability
		reason     string
	}{
		{
			name:       "highest tier without baseline",
			decisions:  []Decision{enabled(CapabilityAVX512)},
			capability: CapabilityAVX512,
			reason:     "without its dependency simd",
		},
		{
			name:       "override re-enabled by a probe",
			decisions:  []Decision{enabled(CapabilitySIMD)},
			ov:         Overrides{DisableSIMD: true},
			capability: CapabilitySIMD,
			reason:     EnvDisableSIMD,
		},
		{
			name:       "native enabled despite override",
			decisions:  []Decision{enabled(CapabilityYYJSON)},
			ov:         Overrides{DisableYYJSON: true},
			capability: CapabilityYYJSON,
			reason:     EnvDisableYYJSON,
		},
		{
			name:       "required but disabled",
			decisions:  []Decision{{Capability: CapabilityYYJSON, Required: true}},
			capability: CapabilityYYJSON,
			reason:     "explicitly requested",
		},
		{
			name:       "unknown capability",
			decisions:  []Decision{{Capability: Capability(42)}},
			capability: Capability(42),
			reason:     "unknown capability",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.decisions, tt.ov)
			if got != nil {
				t.Errorf("Resolve() returned a configuration on conflict")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *ConfigError", err)
			}
			if ce.Capability != tt.capability {
				t.Errorf("Capability = %v, want %v", ce.Capability, tt.capability)
			}
			if !strings.Contains(ce.Reason, tt.reason) {
				t.Errorf("Reason = %q, want it to contain %q", ce.Reason, tt.reason)
			}
		})
	}
}

func TestResolve_ValidTiers(t *testing.T) {
	_, err := Resolve([]Decision{enabled(CapabilitySIMD), enabled(CapabilityAVX512)}, Overrides{DisableYYJSON: true})
	if err != nil {
		t.Errorf("Resolve() error = %v", err)
	}
}

func TestDependencies(t *testing.T) {
	deps := Dependencies(CapabilityAVX512)
	if len(deps) != 1 || deps[0] != CapabilitySIMD {
		t.Errorf("Dependencies(avx512) = %v", deps)
	}
	if deps := Dependencies(CapabilitySIMD); len(deps) != 0 {
		t.Errorf("Dependencies(simd) = %v, want none", deps)
	}
}

func testConfig(tc Toolchain, decisions ...Decision) *BuildConfiguration {
	byCap := map[Capability]Decision{}
	for _, d := range decisions {
		byCap[d.Capability] = d
	}
	return &BuildConfiguration{Toolchain: tc, decisions: byCap, tagPrefix: "xorjson"}
}

func TestBuildConfiguration_Diagnose(t *testing.T) {
	amd64v3 := Toolchain{GoVersion: "go1.26.0", GOARCH: "amd64", GOAMD64: "v3"}

	t.Run("enabled", func(t *testing.T) {
		bc := testConfig(amd64v3, enabled(CapabilitySIMD))
		if got := bc.Diagnose(CapabilitySIMD); got != "enabled" {
			t.Errorf("Diagnose(simd) = %q", got)
		}
	})

	t.Run("forced off", func(t *testing.T) {
		bc := testConfig(amd64v3, Decision{Capability: CapabilitySIMD, Provenance: ProvenanceForcedOff})
		if got := bc.Diagnose(CapabilitySIMD); got != "disabled by XORJSON_DISABLE_SIMD; unset it to allow simd" {
			t.Errorf("Diagnose(simd) = %q", got)
		}
	})

	t.Run("unsupported architecture", func(t *testing.T) {
		bc := testConfig(Toolchain{GOARCH: "riscv64"}, Decision{Capability: CapabilityAVX512, Provenance: ProvenanceUnsupported})
		if got := bc.Diagnose(CapabilityAVX512); got != "GOARCH=riscv64 is not one of amd64, arm64" {
			t.Errorf("Diagnose(avx512) = %q", got)
		}
	})

	t.Run("avx512 without baseline", func(t *testing.T) {
		bc := testConfig(amd64v3)
		if got := bc.Diagnose(CapabilityAVX512); got != "requires simd, which is disabled" {
			t.Errorf("Diagnose(avx512) = %q", got)
		}
	})

	t.Run("avx512 on arm64", func(t *testing.T) {
		bc := testConfig(Toolchain{GOARCH: "arm64"}, enabled(CapabilitySIMD))
		if got := bc.Diagnose(CapabilityAVX512); got != "AVX-512 is only available on amd64" {
			t.Errorf("Diagnose(avx512) = %q", got)
		}
	})

	t.Run("avx512 below v4", func(t *testing.T) {
		bc := testConfig(amd64v3, enabled(CapabilitySIMD))
		bc.Host.AVX512VL = true
		want := "GOAMD64=v3 does not guarantee AVX-512VL; build with GOAMD64=v4 (the host CPU supports it)"
		if got := bc.Diagnose(CapabilityAVX512); got != want {
			t.Errorf("Diagnose(avx512) = %q, want %q", got, want)
		}
	})

	t.Run("native build failure", func(t *testing.T) {
		bc := testConfig(amd64v3, Decision{Capability: CapabilityYYJSON, Probe: ProbeResult{Error: errors.New("cc: exit status 1")}})
		if got := bc.Diagnose(CapabilityYYJSON); got != "native build failed: cc: exit status 1" {
			t.Errorf("Diagnose(yyjson) = %q", got)
		}
	})

	t.Run("experiment not accepted", func(t *testing.T) {
		bc := testConfig(amd64v3)
		if got := bc.Diagnose(CapabilityArenas); got != "toolchain (go1.26.0) does not accept GOEXPERIMENT=arenas" {
			t.Errorf("Diagnose(arenas) = %q", got)
		}
	})

	t.Run("experiment probe failed", func(t *testing.T) {
		bc := testConfig(Toolchain{}, Decision{Capability: CapabilityJSONv2, Probe: ProbeResult{Error: errors.New("go: not found")}})
		if got := bc.Diagnose(CapabilityJSONv2); got != "go: not found" {
			t.Errorf("Diagnose(jsonv2) = %q", got)
		}
	})
}
