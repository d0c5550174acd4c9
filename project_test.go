package buildcfg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultProjectFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProject(t *testing.T) {
	path := writeProject(t, `
tag_prefix = "fastjson"
out_dir    = "target/native"
go         = "go1.26.0"

native "yyjson" {
  source  = "third_party/yyjson/src/yyjson.c"
  include = ["third_party/yyjson/src"]
  watch   = ["third_party/yyjson/src", "build.hcl"]
}
`)

	p, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject() error = %v", err)
	}

	if p.Root != filepath.Dir(path) {
		t.Errorf("Root = %q, want %q", p.Root, filepath.Dir(path))
	}
	if p.File != path {
		t.Errorf("File = %q, want %q", p.File, path)
	}
	if p.TagPrefix != "fastjson" || p.OutDir != "target/native" || p.GoBinary != "go1.26.0" {
		t.Errorf("project = %+v", p)
	}

	want := &NativeSource{
		Name:    "yyjson",
		Source:  "third_party/yyjson/src/yyjson.c",
		Include: []string{"third_party/yyjson/src"},
		Watch:   []string{"third_party/yyjson/src", "build.hcl"},
	}
	if diff := cmp.Diff(want, p.Native); diff != "" {
		t.Errorf("native mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProject_Defaults(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		p, err := LoadProject(writeProject(t, ""))
		if err != nil {
			t.Fatalf("LoadProject() error = %v", err)
		}
		def := DefaultProject(p.Root)
		def.File = p.File
		if diff := cmp.Diff(def, p); diff != "" {
			t.Errorf("project mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("watch defaults to the source directory", func(t *testing.T) {
		p, err := LoadProject(writeProject(t, `
native "simdjson" {
  source = "vendor/simdjson/simdjson.c"
}
`))
		if err != nil {
			t.Fatalf("LoadProject() error = %v", err)
		}
		if diff := cmp.Diff([]string{"vendor/simdjson"}, p.Native.Watch); diff != "" {
			t.Errorf("watch mismatch (-want +got):\n%s", diff)
		}
		if p.TagPrefix != "xorjson" {
			t.Errorf("TagPrefix = %q, want xorjson", p.TagPrefix)
		}
	})
}

func TestLoadProject_RootVariable(t *testing.T) {
	path := writeProject(t, `
native "yyjson" {
  source = "${root}/vendor/yyjson.c"
}
`)

	p, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject() error = %v", err)
	}
	want := filepath.Dir(path) + "/vendor/yyjson.c"
	if p.Native.Source != want {
		t.Errorf("Source = %q, want %q", p.Native.Source, want)
	}
	if p.Path(p.Native.Source) != want {
		t.Errorf("Path(Source) = %q, want it unchanged", p.Path(p.Native.Source))
	}
}

func TestLoadProject_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProject(filepath.Join(t.TempDir(), "nope.hcl"))
		if !errors.Is(err, ErrNoProjectFile) {
			t.Errorf("error = %v, want ErrNoProjectFile", err)
		}
	})

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "syntax error",
			content: `tag_prefix = `,
			wantErr: "parse project",
		},
		{
			name:    "unknown attribute",
			content: `prefix = "x"`,
			wantErr: "decode project",
		},
		{
			name: "native without source",
			content: `native "yyjson" {
}`,
			wantErr: "decode project",
		},
		{
			name:    "undefined variable",
			content: `out_dir = "${workspace}/build"`,
			wantErr: "decode project",
		},
		{
			name:    "invalid tag prefix",
			content: `tag_prefix = "xor-json"`,
			wantErr: "tag_prefix",
		},
		{
			name: "invalid native name",
			content: `native "yy json" {
  source = "a.c"
}`,
			wantErr: "native",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProject(writeProject(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrNoProjectFile) {
				t.Errorf("error %v must not match ErrNoProjectFile", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestProject_Path(t *testing.T) {
	p := DefaultProject("/src/xorjson")

	if got, want := p.Path("include/yyjson"), filepath.Join("/src/xorjson", "include/yyjson"); got != want {
		t.Errorf("Path(relative) = %q, want %q", got, want)
	}
	if got := p.Path("/opt/yyjson"); got != "/opt/yyjson" {
		t.Errorf("Path(absolute) = %q", got)
	}
}

func TestBuildTag(t *testing.T) {
	p := DefaultProject(".")
	if got := BuildTag(p.TagPrefix, CapabilityAVX512); got != "xorjson_avx512" {
		t.Errorf("BuildTag(avx512) = %q", got)
	}
	bc := testConfig(Toolchain{})
	for _, c := range CapabilityValues() {
		if bc.Tag(c) != BuildTag("xorjson", c) {
			t.Errorf("Tag(%s) = %q, want %q", c, bc.Tag(c), BuildTag("xorjson", c))
		}
	}
}

func TestDefaultProject(t *testing.T) {
	p := DefaultProject("")
	if p.Root != "." {
		t.Errorf("Root = %q, want .", p.Root)
	}
	if p.File != "" {
		t.Errorf("File = %q, want empty", p.File)
	}
	if p.Native.Name != "yyjson" || p.Native.Source != "include/yyjson/yyjson.c" {
		t.Errorf("native = %+v", p.Native)
	}
	if err := p.validate(); err != nil {
		t.Errorf("default project invalid: %v", err)
	}
}

func TestIsTagWord(t *testing.T) {
	for _, s := range []string{"xorjson", "x_2", "go1.26"} {
		if !isTagWord(s) {
			t.Errorf("isTagWord(%q) = false", s)
		}
	}
	for _, s := range []string{"", "a-b", "a b", "ä"} {
		if isTagWord(s) {
			t.Errorf("isTagWord(%q) = true", s)
		}
	}
}
