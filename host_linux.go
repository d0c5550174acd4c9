//go:build linux

package buildcfg

import (
	"runtime"

	"golang.org/x/sys/cpu"
	"golang.org/x/sys/unix"
)

// probeHost collects host diagnostics. The kernel release is read with
// uname(2); failures leave it empty.
func probeHost() Host {
	h := Host{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		AVX512VL: cpu.X86.HasAVX512VL,
		ASIMD:    cpu.ARM64.HasASIMD,
	}
	var uname unix.Utsname
	if err := unix.Uname(&uname); err == nil {
		h.Kernel = unix.ByteSliceToString(uname.Release[:])
	}
	return h
}
