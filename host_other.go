//go:build !linux

package buildcfg

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// probeHost collects host diagnostics. The kernel release is only
// reported on Linux.
func probeHost() Host {
	return Host{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		AVX512VL: cpu.X86.HasAVX512VL,
		ASIMD:    cpu.ARM64.HasASIMD,
	}
}
