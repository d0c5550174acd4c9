package buildcfg

import (
	"fmt"
	"io"
	"strings"
)

// Format selects the directive dialect written by [Emit].
type Format int

const (
	// FormatGo writes "buildcfg:" directives for Go build drivers.
	FormatGo Format = iota
	// FormatCargo writes the cargo build-script protocol.
	FormatCargo
	// FormatTags writes a single comma-separated list for `go build -tags`.
	FormatTags
)

var formatNames = map[Format]string{
	FormatGo:    "go",
	FormatCargo: "cargo",
	FormatTags:  "tags",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", f)
}

// FormatValues returns every output format.
func FormatValues() []Format {
	return []Format{FormatGo, FormatCargo, FormatTags}
}

// Emit writes the directives for bc. Enabled capabilities produce one
// directive each and disabled ones produce nothing. The output depends
// only on bc, so identical configurations give identical bytes.
// Nothing is written if f is unknown.
func Emit(w io.Writer, bc *BuildConfiguration, f Format) error {
	var b strings.Builder
	switch f {
	case FormatGo:
		emitGo(&b, bc)
	case FormatCargo:
		emitCargo(&b, bc)
	case FormatTags:
		b.WriteString(strings.Join(bc.Tags(), ","))
		b.WriteString("\n")
	default:
		return fmt.Errorf("unknown output format %s", f)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func emitGo(b *strings.Builder, bc *BuildConfiguration) {
	for _, p := range bc.TrackedPaths() {
		fmt.Fprintf(b, "buildcfg:rerun-if-changed=%s\n", p)
	}
	for _, v := range bc.TrackedEnv() {
		fmt.Fprintf(b, "buildcfg:rerun-if-env-changed=%s\n", v)
	}
	for _, c := range CapabilityValues() {
		fmt.Fprintf(b, "buildcfg:known-tag=%s\n", bc.Tag(c))
	}
	for _, tag := range bc.Tags() {
		fmt.Fprintf(b, "buildcfg:tag=%s\n", tag)
	}
	if exps := bc.Experiments(); len(exps) > 0 {
		fmt.Fprintf(b, "buildcfg:goexperiment=%s\n", strings.Join(exps, ","))
	}
	if bc.Native != nil {
		fmt.Fprintf(b, "buildcfg:link-search=%s\n", bc.Native.Dir)
		fmt.Fprintf(b, "buildcfg:link-lib=static=%s\n", bc.Native.Name)
	}
}

func emitCargo(b *strings.Builder, bc *BuildConfiguration) {
	for _, p := range bc.TrackedPaths() {
		fmt.Fprintf(b, "cargo:rerun-if-changed=%s\n", p)
	}
	for _, v := range bc.TrackedEnv() {
		fmt.Fprintf(b, "cargo:rerun-if-env-changed=%s\n", v)
	}
	quoted := make([]string, 0, len(CapabilityValues()))
	for _, name := range CapabilityNames() {
		quoted = append(quoted, fmt.Sprintf("%q", name))
	}
	fmt.Fprintf(b, "cargo:rustc-check-cfg=cfg(feature, values(%s))\n", strings.Join(quoted, ", "))
	for _, c := range bc.EnabledCapabilities() {
		fmt.Fprintf(b, "cargo:rustc-cfg=feature=%q\n", c.String())
	}
	if bc.Native != nil {
		fmt.Fprintf(b, "cargo:rustc-link-search=native=%s\n", bc.Native.Dir)
		fmt.Fprintf(b, "cargo:rustc-link-lib=static=%s\n", bc.Native.Name)
	}
}
