package buildcfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// DefaultProjectFile is the project file looked up in the working directory.
const DefaultProjectFile = "buildcfg.hcl"

// ErrNoProjectFile is returned when the project file does not exist.
var ErrNoProjectFile = errors.New("no project file found")

// Project describes the layout of the library being configured.
//
//	tag_prefix = "xorjson"
//	out_dir    = "build"
//	go         = "go"
//
//	native "yyjson" {
//	  source  = "include/yyjson/yyjson.c"
//	  include = ["include/yyjson"]
//	  watch   = ["include/yyjson"]
//	}
type Project struct {
	// Root is the directory relative paths are resolved against.
	Root string
	// File is the project file this was loaded from, empty for defaults.
	File string

	TagPrefix string        `hcl:"tag_prefix,optional"`
	OutDir    string        `hcl:"out_dir,optional"`
	GoBinary  string        `hcl:"go,optional"`
	Native    *NativeSource `hcl:"native,block"`
}

// NativeSource locates the native backend sources.
type NativeSource struct {
	Name    string   `hcl:"name,label"`
	Source  string   `hcl:"source"`
	Include []string `hcl:"include,optional"`
	Watch   []string `hcl:"watch,optional"`
}

// DefaultProject returns the conventional layout rooted at root.
func DefaultProject(root string) *Project {
	p := &Project{Root: root}
	p.applyDefaults()
	return p
}

// LoadProject parses an HCL project file. Fields left out take their
// defaults; relative paths resolve against the file's directory, which
// expressions can also reach as the root variable.
func LoadProject(path string) (*Project, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoProjectFile, path)
		}
		return nil, err
	}

	f, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse project %s: %w", path, diags)
	}

	root := filepath.Dir(path)
	p := &Project{}
	if diags := gohcl.DecodeBody(f.Body, projectEvalContext(root), p); diags.HasErrors() {
		return nil, fmt.Errorf("decode project %s: %w", path, diags)
	}
	p.Root = root
	p.File = path
	p.applyDefaults()

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("project %s: %w", path, err)
	}
	return p, nil
}

// normalized returns a copy of p with defaults applied and validated, so
// a Project built by hand behaves like one from [LoadProject].
func (p *Project) normalized() (*Project, error) {
	cp := *p
	if p.Native != nil {
		ns := *p.Native
		ns.Include = append([]string(nil), p.Native.Include...)
		ns.Watch = append([]string(nil), p.Native.Watch...)
		cp.Native = &ns
	}
	cp.applyDefaults()
	if err := cp.validate(); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return &cp, nil
}

func projectEvalContext(root string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"root": cty.StringVal(root),
		},
	}
}

func (p *Project) applyDefaults() {
	if p.Root == "" {
		p.Root = "."
	}
	if p.TagPrefix == "" {
		p.TagPrefix = "xorjson"
	}
	if p.OutDir == "" {
		p.OutDir = "build"
	}
	if p.GoBinary == "" {
		p.GoBinary = DefaultGoBinary
	}
	if p.Native == nil {
		p.Native = &NativeSource{
			Name:    "yyjson",
			Source:  "include/yyjson/yyjson.c",
			Include: []string{"include/yyjson"},
		}
	}
	if len(p.Native.Watch) == 0 {
		p.Native.Watch = []string{filepath.Dir(p.Native.Source)}
	}
}

func (p *Project) validate() error {
	if !isTagWord(p.TagPrefix) {
		return fmt.Errorf("tag_prefix %q: only letters, digits, '_' and '.' are allowed", p.TagPrefix)
	}
	if !isTagWord(p.Native.Name) {
		return fmt.Errorf("native %q: name must be usable as a library name", p.Native.Name)
	}
	return nil
}

// Path resolves rel against the project root.
func (p *Project) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, rel)
}

func isTagWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
