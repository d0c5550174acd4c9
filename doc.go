// Package buildcfg decides which optional acceleration paths a JSON
// library may be built with, before the library itself is compiled.
//
// For the active toolchain, the target architecture and the user's
// overrides, it resolves a set of capabilities (Go experiments, SIMD
// tiers, an optional native yyjson backend) into one conflict-free
// [BuildConfiguration] and writes it as build directives.
//
// # Pipeline
//
// [Run] is strictly sequential and single-pass:
//   - overrides are read from XORJSON_DISABLE_SIMD, XORJSON_DISABLE_AVX512
//     and XORJSON_DISABLE_YYJSON (presence only)
//   - the Go toolchain is asked which experiments it accepts
//   - on amd64 and arm64 the simd experiment enables the baseline SIMD tier;
//     GOAMD64=v4 additionally enables the AVX-512 tier
//   - the native backend is compiled with $CC into a static library
//   - [Resolve] checks the result for consistency
//
// # Error model
//
// Probe failures degrade a single capability and are recorded in its
// [ProbeResult]; they never fail the run. The only fatal errors are
// configuration conflicts, reported as *[ConfigError]:
//
//	cfg, err := buildcfg.Run(buildcfg.WithRequested(buildcfg.CapabilityYYJSON))
//	if err != nil {
//	    var ce *buildcfg.ConfigError
//	    if errors.As(err, &ce) {
//	        log.Fatalf("invalid build configuration: %s: %s", ce.Capability, ce.Reason)
//	    }
//	    log.Fatal(err)
//	}
//	buildcfg.Emit(os.Stdout, cfg, buildcfg.FormatGo)
//
// # Testing
//
// Process state is reached only through [Environment]. Pass a fake with
// [WithEnvironment] to exercise decisions without running subprocesses.
package buildcfg
