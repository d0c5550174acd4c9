package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/cybergodev/json"
	"github.com/leodido/structcli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"

	"github.com/xorjson/buildcfg"
)

// Build metadata injected via ldflags.
// When built without ldflags (e.g., plain `go build`), these remain
// at their zero values and the version command omits them gracefully.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	root := &cobra.Command{
		Use:   "buildcfg",
		Short: "Capability-aware build configuration for xorjson",
		Long: `buildcfg decides which optional capabilities a build of the JSON library
gets: Go experiments, SIMD tiers and the native yyjson backend.

It probes the active toolchain and target, honors the XORJSON_DISABLE_*
overrides, compiles the native backend when possible and emits the
resulting build tags and link directives. Probes that fail only turn a
capability off; contradictory directives fail the build.`,
		SilenceUsage: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(probeCmd())
	root.AddCommand(capabilitiesCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// RunOptions defines flags for the run subcommand.
type RunOptions struct {
	Project  string             `flag:"project" flagshort:"p" flagdescr:"Project file (defaults to buildcfg.hcl if present)"`
	Features capabilityRequests `flag:"features" flagshort:"f" flagdescr:"Capabilities that must be enabled (only yyjson can be requested)" flagcustom:"true"`
	Format   buildcfg.Format    `flag:"format" flagdescr:"Directive format: go, cargo or tags" flagcustom:"true"`
	Verbose  bool               `flag:"verbose" flagshort:"v" flagdescr:"Log probe details to stderr"`
	JSON     bool               `flag:"json" flagshort:"j" flagdescr:"Report failures in JSON format"`
}

func (o *RunOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *RunOptions) DefineFeatures(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*capabilityRequests)
	*fieldPtr = nil
	return fieldPtr, descr
}

func (o *RunOptions) DecodeFeatures(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}

	return parseCapabilityRequests(s)
}

func (o *RunOptions) DefineFormat(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*buildcfg.Format)
	*fieldPtr = buildcfg.FormatGo
	return enumflag.New(fieldPtr, "format", formatIdentifierMap, enumflag.EnumCaseInsensitive), descr
}

func (o *RunOptions) DecodeFormat(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}

	return parseFormat(s)
}

// CompleteFeatures offers the requestable capabilities, keeping what was
// already typed before the last comma.
func (o *RunOptions) CompleteFeatures(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	directive := cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace

	prefix := ""
	current := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		current = toComplete[i+1:]
	}

	selected := map[string]bool{}
	for _, part := range strings.Split(prefix, ",") {
		if name := strings.ToLower(strings.TrimSpace(part)); name != "" {
			selected[name] = true
		}
	}

	var out []string
	for _, name := range requestableNames() {
		if selected[name] || !strings.HasPrefix(name, strings.ToLower(current)) {
			continue
		}
		out = append(out, prefix+name)
	}
	return out, directive
}

func (o *RunOptions) logger() *slog.Logger {
	if !o.Verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (o *RunOptions) pipelineOptions(projectSet bool) ([]buildcfg.Option, error) {
	p, err := loadProject(o.Project, projectSet)
	if err != nil {
		return nil, err
	}
	return []buildcfg.Option{
		buildcfg.WithProject(p),
		buildcfg.WithRequested(o.Features...),
		buildcfg.WithLogger(o.logger()),
	}, nil
}

func runCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve the build configuration and emit directives",
		Long:  runLongDescription(),
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			pipelineOpts, err := opts.pipelineOptions(c.Flags().Changed("project"))
			if err != nil {
				return err
			}

			bc, err := buildcfg.Run(pipelineOpts...)
			if err != nil {
				return reportFailure(err, opts.JSON)
			}
			return buildcfg.Emit(os.Stdout, bc, opts.Format)
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	if err := cmd.RegisterFlagCompletionFunc("features", opts.CompleteFeatures); err != nil {
		panic(err)
	}
	return cmd
}

// ProbeOptions defines flags for the probe subcommand.
type ProbeOptions struct {
	Project string `flag:"project" flagshort:"p" flagdescr:"Project file (defaults to buildcfg.hcl if present)"`
	Verbose bool   `flag:"verbose" flagshort:"v" flagdescr:"Log probe details to stderr"`
	JSON    bool   `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *ProbeOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func probeCmd() *cobra.Command {
	opts := &ProbeOptions{}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe every capability and explain each decision",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			run := &RunOptions{Project: opts.Project, Verbose: opts.Verbose}
			pipelineOpts, err := run.pipelineOptions(c.Flags().Changed("project"))
			if err != nil {
				return err
			}

			bc, err := buildcfg.Run(pipelineOpts...)
			if err != nil {
				return reportFailure(err, opts.JSON)
			}

			if opts.JSON {
				return printJSON(os.Stdout, bc)
			}

			fmt.Print(bc)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// CapabilitiesOptions defines flags for the capabilities subcommand.
type CapabilitiesOptions struct {
	JSON    bool   `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
	Project string `flag:"project" flagshort:"p" flagdescr:"Project file (defaults to buildcfg.hcl if present)"`
}

func (o *CapabilitiesOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

type capabilityInfo struct {
	Name        string   `json:"name"`
	Tag         string   `json:"tag"`
	Experiment  string   `json:"goexperiment,omitempty"`
	Override    string   `json:"override,omitempty"`
	Requires    []string `json:"requires,omitempty"`
	Requestable bool     `json:"requestable"`
}

func describeCapabilities(p *buildcfg.Project) []capabilityInfo {
	infos := make([]capabilityInfo, 0, len(buildcfg.CapabilityValues()))
	for _, c := range buildcfg.CapabilityValues() {
		info := capabilityInfo{
			Name:        c.String(),
			Tag:         buildcfg.BuildTag(p.TagPrefix, c),
			Requestable: buildcfg.Requestable(c),
		}
		info.Experiment, _ = c.Experiment()
		info.Override, _ = buildcfg.OverrideVar(c)
		for _, dep := range buildcfg.Dependencies(c) {
			info.Requires = append(info.Requires, dep.String())
		}
		infos = append(infos, info)
	}
	return infos
}

func writeCapabilities(w io.Writer, infos []capabilityInfo) {
	for _, info := range infos {
		fmt.Fprintf(w, "%-11s tag=%s", info.Name, info.Tag)
		if info.Experiment != "" {
			fmt.Fprintf(w, " goexperiment=%s", info.Experiment)
		}
		if info.Override != "" {
			fmt.Fprintf(w, " override=%s", info.Override)
		}
		if len(info.Requires) > 0 {
			fmt.Fprintf(w, " requires=%s", strings.Join(info.Requires, ","))
		}
		if info.Requestable {
			fmt.Fprint(w, " requestable")
		}
		fmt.Fprintln(w)
	}
}

func capabilitiesCmd() *cobra.Command {
	opts := &CapabilitiesOptions{}

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "List the capabilities buildcfg can decide",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			p, err := loadProject(opts.Project, c.Flags().Changed("project"))
			if err != nil {
				return err
			}
			infos := describeCapabilities(p)
			if opts.JSON {
				return printJSON(os.Stdout, infos)
			}
			writeCapabilities(os.Stdout, infos)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tool and toolchain version",
		RunE: func(c *cobra.Command, args []string) error {
			if version != "" {
				fmt.Printf("buildcfg %s", version)
				if commit != "" {
					fmt.Printf(" (%s)", commit)
				}
				if date != "" {
					fmt.Printf(" built %s", date)
				}
				fmt.Println()
			} else {
				fmt.Println("buildcfg (dev)")
			}

			tc := buildcfg.DetectToolchain(buildcfg.DefaultGoBinary)
			if tc.Probe.Error != nil {
				return tc.Probe.Error
			}
			fmt.Printf("Toolchain: %s %s/%s\n", tc.GoVersion, tc.GOOS, tc.GOARCH)
			return nil
		},
	}
}

// loadProject reads the project file. A missing default file means the
// conventional layout; a missing explicit file is an error.
func loadProject(path string, explicit bool) (*buildcfg.Project, error) {
	if path == "" {
		path = buildcfg.DefaultProjectFile
	}
	p, err := buildcfg.LoadProject(path)
	if errors.Is(err, buildcfg.ErrNoProjectFile) && !explicit {
		return buildcfg.DefaultProject("."), nil
	}
	return p, err
}

// reportFailure prints configuration conflicts and exits non-zero.
// Other errors are returned to cobra.
func reportFailure(err error, asJSON bool) error {
	var ce *buildcfg.ConfigError
	if !errors.As(err, &ce) {
		return err
	}
	if asJSON {
		if err := printJSON(os.Stdout, failureReport(ce)); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(os.Stderr, "FAIL: %s: %s\n", ce.Capability, ce.Reason)
	}
	os.Exit(1)
	return nil
}

func failureReport(ce *buildcfg.ConfigError) map[string]any {
	report := map[string]any{
		"ok":         false,
		"capability": ce.Capability.String(),
		"reason":     ce.Reason,
	}
	if ce.Err != nil {
		report["cause"] = ce.Err.Error()
	}
	return report
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func runLongDescription() string {
	return fmt.Sprintf(`Resolve the build configuration and write directives to stdout.
Exits with code 1 if the overrides, requests and probe outcomes conflict.

Available capabilities:
%s

Overrides (presence disables the capability):
  %s, %s, %s`,
		formatWrappedList(buildcfg.CapabilityNames(), "  ", 80),
		buildcfg.EnvDisableSIMD, buildcfg.EnvDisableAVX512, buildcfg.EnvDisableYYJSON)
}

func formatWrappedList(items []string, indent string, maxWidth int) string {
	if len(items) == 0 {
		return indent + "(none)"
	}

	lines := make([]string, 0, len(items))
	line := indent
	for i, item := range items {
		token := item
		if i < len(items)-1 {
			token += ", "
		}

		if len(line)+len(token) > maxWidth && line != indent {
			lines = append(lines, strings.TrimRight(line, " "))
			line = indent + token
			continue
		}

		line += token
	}

	lines = append(lines, strings.TrimRight(line, " "))
	return strings.Join(lines, "\n")
}

var formatIdentifierMap = func() map[buildcfg.Format][]string {
	ids := make(map[buildcfg.Format][]string, len(buildcfg.FormatValues()))
	for _, f := range buildcfg.FormatValues() {
		ids[f] = []string{f.String()}
	}
	return ids
}()

func parseFormat(input string) (buildcfg.Format, error) {
	var f buildcfg.Format
	enumValue := enumflag.New(&f, "format", formatIdentifierMap, enumflag.EnumCaseInsensitive)
	if err := enumValue.Set(strings.TrimSpace(input)); err != nil {
		return 0, fmt.Errorf("unknown format: %q (available: go, cargo, tags)", input)
	}
	return f, nil
}

type capabilityRequests []buildcfg.Capability

var capabilityIdentifierMap = func() map[buildcfg.Capability][]string {
	ids := make(map[buildcfg.Capability][]string, len(buildcfg.CapabilityValues()))
	for _, c := range buildcfg.CapabilityValues() {
		ids[c] = []string{c.String()}
	}
	return ids
}()

func requestableNames() []string {
	var names []string
	for _, c := range buildcfg.CapabilityValues() {
		if buildcfg.Requestable(c) {
			names = append(names, c.String())
		}
	}
	return names
}

func (r *capabilityRequests) String() string {
	names := make([]string, 0, len(*r))
	for _, c := range *r {
		names = append(names, c.String())
	}

	return strings.Join(names, ",")
}

func (r *capabilityRequests) Set(input string) error {
	caps, err := parseCapabilityRequests(input)
	if err != nil {
		return err
	}

	*r = append(*r, caps...)
	return nil
}

func (r *capabilityRequests) Type() string {
	return "capability"
}

func parseCapabilityRequests(input string) (capabilityRequests, error) {
	if strings.TrimSpace(input) == "" {
		return capabilityRequests{}, nil
	}

	parts := strings.Split(input, ",")
	caps := make(capabilityRequests, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		var c buildcfg.Capability
		enumValue := enumflag.New(&c, "buildcfg.Capability", capabilityIdentifierMap, enumflag.EnumCaseInsensitive)
		if err := enumValue.Set(name); err != nil {
			return nil, fmt.Errorf("unknown capability: %q (available: %s)", name, strings.Join(buildcfg.CapabilityNames(), ", "))
		}
		if !buildcfg.Requestable(c) {
			return nil, fmt.Errorf("capability %q cannot be requested (requestable: %s)", name, strings.Join(requestableNames(), ", "))
		}

		caps = append(caps, c)
	}

	return caps, nil
}
