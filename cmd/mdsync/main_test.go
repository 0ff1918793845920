package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const titleDoc = "# Title\n\nBody text."

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(newApp(&stdout, &stderr))
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return stdout.String(), err
}

func TestRenderCmd(t *testing.T) {
	path := writeDoc(t, titleDoc)

	out, err := execute(t, "render", path)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "Title\nBody text.\n" {
		t.Errorf("render output = %q", out)
	}
}

func TestRenderCmd_Anchors(t *testing.T) {
	path := writeDoc(t, titleDoc)

	out, err := execute(t, "render", "--anchors", path)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	for _, want := range []string{"KIND", "heading", "[0,7)", "[0,5)", "paragraph", "[9,19)", "[6,16)", "Body text."} {
		if !strings.Contains(out, want) {
			t.Errorf("anchor table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCmd_JSON(t *testing.T) {
	path := writeDoc(t, titleDoc)

	out, err := execute(t, "render", "--json", path)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	var got renderJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Text != "Title\nBody text." {
		t.Errorf("text = %q", got.Text)
	}
	if len(got.Anchors) != 2 {
		t.Fatalf("anchors = %d, want 2", len(got.Anchors))
	}
	if a := got.Anchors[1]; a.SourceStart != 9 || a.RenderedStart != 6 || a.RenderedLength != 10 {
		t.Errorf("second anchor = %+v", a)
	}
}

func TestMapCmd(t *testing.T) {
	path := writeDoc(t, titleDoc)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"source boundary", []string{"--source", "9"}, "source 9 -> rendered 6\n"},
		{"inside heading", []string{"--source", "4"}, "source 4 -> rendered 3\n"},
		{"blank line", []string{"--source", "8"}, "source 8 -> rendered 5\n"},
		{"rendered to source", []string{"--rendered", "6"}, "rendered 6 -> source 9\n"},
		{"ratio", []string{"--source", "19", "--mode", "ratio"}, "source 19 -> rendered 16\n"},
		{"content prefix", []string{"--source", "0", "--mode", "content"}, "source 0 -> rendered 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"map", path}, tt.args...)...)
			if err != nil {
				t.Fatalf("map error: %v", err)
			}
			if out != tt.want {
				t.Errorf("map output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestMapCmd_SnapsToGrapheme(t *testing.T) {
	path := writeDoc(t, "Cafe\u0301")

	// Rendered offset 4 sits between the e and its combining accent.
	out, err := execute(t, "map", path, "--rendered", "4")
	if err != nil {
		t.Fatalf("map error: %v", err)
	}
	if want := "rendered 4 -> source 3\n"; out != want {
		t.Errorf("map output = %q, want %q", out, want)
	}
}

func TestMapCmd_Errors(t *testing.T) {
	path := writeDoc(t, titleDoc)

	if _, err := execute(t, "map", path); err == nil {
		t.Error("map without an offset succeeded")
	}
	if _, err := execute(t, "map", path, "--source", "1", "--rendered", "1"); err == nil {
		t.Error("map with both offsets succeeded")
	}
	if _, err := execute(t, "map", path, "--source", "1", "--mode", "nearest"); err == nil {
		t.Error("map with an unknown mode succeeded")
	}
}

func TestToggleCmd(t *testing.T) {
	path := writeDoc(t, "make bold here")

	out, err := execute(t, "toggle", path, "--start", "5", "--end", "9")
	if err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if out != "make **bold** here" {
		t.Errorf("toggle output = %q", out)
	}

	out, err = execute(t, "toggle", path, "--start", "5", "--end", "9", "--marker", "_", "--write")
	if err != nil {
		t.Fatalf("toggle --write error: %v", err)
	}
	if out != "selection 6 10\n" {
		t.Errorf("toggle --write output = %q", out)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "make _bold_ here" {
		t.Errorf("file after --write = %q", data)
	}
}

func TestToggleCmd_OutOfRange(t *testing.T) {
	path := writeDoc(t, "abc")
	if _, err := execute(t, "toggle", path, "--start", "2", "--end", "9"); err == nil {
		t.Error("toggle with an out-of-range selection succeeded")
	}
}

func TestHighlightCmd(t *testing.T) {
	path := writeDoc(t, "# Title\n\nsome `code`\n")

	out, err := execute(t, "highlight", path)
	if err != nil {
		t.Fatalf("highlight error: %v", err)
	}
	for _, want := range []string{"heading", "code"} {
		if !strings.Contains(out, want) {
			t.Errorf("highlight output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mdsync.toml")
	if err := os.WriteFile(cfgPath, []byte("[render]\nmath = \"disabled\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := writeDoc(t, "cost $x$")

	out, err := execute(t, "--config", cfgPath, "render", path)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "cost $x$\n" {
		t.Errorf("render with math disabled = %q", out)
	}

	if _, err := execute(t, "--config", filepath.Join(dir, "missing.toml"), "render", path); err == nil {
		t.Error("render with a missing config file succeeded")
	}
	if _, err := execute(t, "--log-level", "loud", "render", path); err == nil {
		t.Error("render with an invalid log level succeeded")
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "mdsync dev\n") {
		t.Errorf("version output = %q", out)
	}
}
