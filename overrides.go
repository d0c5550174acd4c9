package buildcfg

// Recognized override variables. Presence alone activates an override;
// the value is never inspected.
const (
	EnvDisableSIMD   = "XORJSON_DISABLE_SIMD"
	EnvDisableAVX512 = "XORJSON_DISABLE_AVX512"
	EnvDisableYYJSON = "XORJSON_DISABLE_YYJSON"
)

// ToolchainVars are read-only toolchain selection inputs. They influence
// probing and the native compile, so they are tracked for re-runs.
var ToolchainVars = []string{
	"CC",
	"AR",
	"CFLAGS",
	"LDFLAGS",
	"GOFLAGS",
	"GOARCH",
	"GOAMD64",
	"GOEXPERIMENT",
	"GOTOOLCHAIN",
}

var overrideVars = map[Capability]string{
	CapabilitySIMD:   EnvDisableSIMD,
	CapabilityAVX512: EnvDisableAVX512,
	CapabilityYYJSON: EnvDisableYYJSON,
}

// OverrideVar returns the force-disable variable for c, if it has one.
func OverrideVar(c Capability) (string, bool) {
	v, ok := overrideVars[c]
	return v, ok
}

// Overrides holds the user directives for one build. It is immutable
// once read.
type Overrides struct {
	DisableSIMD   bool
	DisableAVX512 bool
	DisableYYJSON bool
}

// Disabled reports whether c has been force-disabled.
func (o Overrides) Disabled(c Capability) bool {
	switch c {
	case CapabilitySIMD:
		return o.DisableSIMD
	case CapabilityAVX512:
		return o.DisableAVX512
	case CapabilityYYJSON:
		return o.DisableYYJSON
	default:
		return false
	}
}

// ReadOverrides checks every recognized override variable and declares
// each one on t, whether present or not.
func ReadOverrides(env Environment, t *Tracker) Overrides {
	present := func(key string) bool {
		t.Env(key)
		_, ok := env.LookupEnv(key)
		return ok
	}
	return Overrides{
		DisableSIMD:   present(EnvDisableSIMD),
		DisableAVX512: present(EnvDisableAVX512),
		DisableYYJSON: present(EnvDisableYYJSON),
	}
}
