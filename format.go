package buildcfg

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
)

// String returns a human-readable summary of the configuration.
func (bc *BuildConfiguration) String() string {
	var b strings.Builder

	tc := bc.Toolchain
	version := tc.GoVersion
	if version == "" {
		version = "unknown"
	}
	fmt.Fprintf(&b, "Toolchain: %s (%s)\n", version, tc.Binary)
	fmt.Fprintf(&b, "Target: %s/%s", tc.GOOS, tc.GOARCH)
	if tc.GOAMD64 != "" {
		fmt.Fprintf(&b, " GOAMD64=%s", tc.GOAMD64)
	}
	b.WriteString("\n")
	if tc.Probe.Error != nil {
		fmt.Fprintf(&b, "  (error: %v)\n", tc.Probe.Error)
	}
	fmt.Fprintf(&b, "Host: %s/%s", bc.Host.OS, bc.Host.Arch)
	if bc.Host.Kernel != "" {
		fmt.Fprintf(&b, " kernel %s", bc.Host.Kernel)
	}
	b.WriteString("\n\n")

	b.WriteString("Toolchain Features:\n")
	writeDecision(&b, bc, CapabilityJSONv2)
	writeDecision(&b, bc, CapabilityArenas)
	writeDecision(&b, bc, CapabilityGreenTeaGC)
	b.WriteString("\n")

	b.WriteString("SIMD:\n")
	writeDecision(&b, bc, CapabilitySIMD)
	writeDecision(&b, bc, CapabilityAVX512)
	b.WriteString("\n")

	b.WriteString("Native Backend:\n")
	writeDecision(&b, bc, CapabilityYYJSON)
	if bc.Native != nil {
		fmt.Fprintf(&b, "  archive: %s\n", bc.Native.Archive)
	}
	b.WriteString("\n")

	tags := bc.Tags()
	if len(tags) == 0 {
		b.WriteString("Tags: (none)\n")
	} else {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(tags, ","))
	}
	if exps := bc.Experiments(); len(exps) > 0 {
		fmt.Fprintf(&b, "GOEXPERIMENT: %s\n", strings.Join(exps, ","))
	}

	return b.String()
}

func writeDecision(b *strings.Builder, bc *BuildConfiguration, c Capability) {
	d := bc.Decision(c)
	if d.Enabled() {
		status := color.Green.Sprint("yes")
		if d.Outcome == OutcomeEnabledMandatory {
			status += " (required)"
		}
		fmt.Fprintf(b, "  %s: %s\n", c, status)
		return
	}
	fmt.Fprintf(b, "  %s: %s [%s] %s\n", c, color.Red.Sprint("no"), d.Provenance, bc.Diagnose(c))
}
