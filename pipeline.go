package buildcfg

import (
	"fmt"
	"log/slog"
)

// runConfig holds the configuration for a pipeline run.
type runConfig struct {
	env       Environment
	project   *Project
	requested []Capability
	log       *slog.Logger
}

// Option configures [Run].
type Option func(*runConfig)

// WithEnvironment replaces the process environment, mainly for tests.
func WithEnvironment(env Environment) Option {
	return func(c *runConfig) {
		c.env = env
	}
}

// WithProject sets the project layout. Defaults to [DefaultProject] in
// the working directory; fields left empty take their defaults.
func WithProject(p *Project) Option {
	return func(c *runConfig) {
		c.project = p
	}
}

// WithRequested marks capabilities as explicitly requested by the caller.
// A requested capability that cannot be enabled fails the run instead of
// being left out. Only [CapabilityYYJSON] can be requested.
func WithRequested(caps ...Capability) Option {
	return func(c *runConfig) {
		c.requested = append(c.requested, caps...)
	}
}

// Requestable reports whether c can be passed to [WithRequested].
func Requestable(c Capability) bool {
	return c == CapabilityYYJSON
}

// WithLogger sets the logger. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.log = l
	}
}

// Run executes the pipeline once: overrides, toolchain probes,
// architecture probes, the native build, then resolution.
//
// Degraded probes never fail the run. A *[ConfigError] is returned for
// the first configuration conflict found, and no configuration is
// produced in that case.
func Run(opts ...Option) (*BuildConfiguration, error) {
	cfg := &runConfig{
		env: OSEnvironment{},
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.project == nil {
		cfg.project = DefaultProject(".")
	}
	p, err := cfg.project.normalized()
	if err != nil {
		return nil, err
	}

	var requestNative bool
	for _, c := range cfg.requested {
		if !Requestable(c) {
			return nil, fmt.Errorf("capability %s cannot be requested (only %s)", c, CapabilityYYJSON)
		}
		requestNative = true
	}

	tracker := NewTracker()
	if p.File != "" {
		tracker.Path(p.File)
	}
	for _, w := range p.Native.Watch {
		tracker.Path(p.Path(w))
	}
	tracker.Env(ToolchainVars...)
	ov := ReadOverrides(cfg.env, tracker)

	tc := probeToolchain(cfg.env, p.GoBinary)
	cfg.log.Debug("toolchain", "binary", tc.Binary, "version", tc.GoVersion, "goarch", tc.GOARCH, "goamd64", tc.GOAMD64, "error", tc.Probe.Error)

	decisions := probeToolchainFeatures(cfg.env, tc, ov, cfg.log)

	simd, avx512 := probeArchitecture(cfg.env, tc, ov, cfg.log)
	decisions = append(decisions, simd, avx512)

	native, artifact, err := buildNative(cfg.env, p, ov, requestNative, cfg.log)
	if err != nil {
		cfg.log.Error("native backend", "error", err)
		return nil, err
	}
	decisions = append(decisions, native)

	resolved, err := Resolve(decisions, ov)
	if err != nil {
		cfg.log.Error("resolve", "error", err)
		return nil, err
	}

	return &BuildConfiguration{
		Toolchain: tc,
		Host:      probeHost(),
		Native:    artifact,
		decisions: resolved,
		tagPrefix: p.TagPrefix,
		paths:     tracker.Paths(),
		envVars:   tracker.EnvVars(),
	}, nil
}
