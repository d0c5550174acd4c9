package buildcfg

import (
	"log/slog"
	"slices"
	"strings"
)

// SupportedArchitectures lists the GOARCH values SIMD probing runs on.
var SupportedArchitectures = []string{"amd64", "arm64"}

// avx512Level is the first GOAMD64 microarchitecture level that
// guarantees AVX-512 F/BW/CD/DQ/VL.
const avx512Level = 4

// probeArchitecture decides the SIMD tiers. On an unsupported
// architecture nothing is probed and both tiers are reported as an
// unsupported combination.
func probeArchitecture(env Environment, tc Toolchain, ov Overrides, log *slog.Logger) (simd, avx512 Decision) {
	if !slices.Contains(SupportedArchitectures, tc.GOARCH) {
		log.Debug("architecture not supported for SIMD", "goarch", tc.GOARCH)
		return disabledBy(CapabilitySIMD, ProvenanceUnsupported, ProbeResult{}),
			disabledBy(CapabilityAVX512, ProvenanceUnsupported, ProbeResult{})
	}

	avx512 = disabledBy(CapabilityAVX512, ProvenanceAbsent, ProbeResult{})
	if ov.DisableAVX512 {
		avx512.Provenance = ProvenanceForcedOff
	}

	if ov.DisableSIMD {
		return disabledBy(CapabilitySIMD, ProvenanceForcedOff, ProbeResult{}), avx512
	}

	result := probeExperiment(env, tc, simdExperiment)
	log.Debug("simd probe", "goarch", tc.GOARCH, "status", result.Status(), "error", result.Error)
	if !result.Supported {
		return disabledBy(CapabilitySIMD, ProvenanceAbsent, result), avx512
	}
	simd = enabledBy(CapabilitySIMD, ProvenanceProbed, result)

	if ov.DisableAVX512 {
		return simd, avx512
	}
	target := targetHasAVX512(tc)
	avx512.Probe = target
	if target.Supported {
		avx512 = enabledBy(CapabilityAVX512, ProvenanceProbed, target)
	}
	return simd, avx512
}

// targetHasAVX512 is the compile-time target-feature check: only an
// amd64 build at GOAMD64=v4 or above may assume AVX-512VL.
func targetHasAVX512(tc Toolchain) ProbeResult {
	if tc.GOARCH != "amd64" {
		return ProbeResult{}
	}
	return ProbeResult{Supported: amd64Level(tc.GOAMD64) >= avx512Level}
}

// amd64Level parses a GOAMD64 value such as "v3". Unknown values count as v1.
func amd64Level(s string) int {
	s = strings.TrimSpace(s)
	if len(s) != 2 || s[0] != 'v' || s[1] < '1' || s[1] > '9' {
		return 1
	}
	return int(s[1] - '0')
}
