package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/revdeps/pkg/compat"
	"github.com/matzehuels/revdeps/pkg/depgraph"
	"github.com/matzehuels/revdeps/pkg/errors"
)

// isolate runs the test in an empty working directory with private config
// and cache homes, so no user settings leak in.
func isolate(t *testing.T) (cacheHome string) {
	t.Helper()
	t.Chdir(t.TempDir())
	cacheHome = t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{
		"REVDEPS_DIR", "REVDEPS_MONGO_URI", "REVDEPS_MONGO_DATABASE", "REVDEPS_MONGO_COLLECTION",
		"REVDEPS_REDIS_ADDR", "REVDEPS_ADDR", "REVDEPS_CACHE_TTL", "REVDEPS_NO_CACHE",
	} {
		t.Setenv(name, "")
	}
	return cacheHome
}

func writeManifests(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"lib.json":    `{"name": "lib", "version": "1.2.0"}`,
		"app.json":    `{"name": "app", "version": "1.0.0", "dependencies": {"lib": "^1.0.0"}}`,
		"cli.json":    `{"name": "cli", "version": "0.3.0", "devDependencies": {"lib": "~1.1.0"}}`,
		"broken.json": `{"name": `,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errw bytes.Buffer
	c := New(&out, &errw, LogInfo)
	err := c.Execute(context.Background(), args)
	return out.String(), err
}

func TestTreeJSON(t *testing.T) {
	isolate(t)
	dir := writeManifests(t)

	out, err := run(t, "tree", "lib", "--dir", dir, "--format", "json")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	var tree depgraph.Tree
	if err := json.Unmarshal([]byte(out), &tree); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(tree) != 2 || tree["app"] == nil || tree["cli"] == nil {
		t.Errorf("tree = %v, want app and cli", tree)
	}
	if tree["cli"].VersionRange != "~1.1.0" {
		t.Errorf("cli range = %q", tree["cli"].VersionRange)
	}
}

func TestTreeTextCaching(t *testing.T) {
	isolate(t)
	dir := writeManifests(t)

	out, err := run(t, "tree", "lib", "--dir", dir)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	for _, want := range []string{"lib@1.2.0", "app (dependencies ^1.0.0)", "2 dependents", iconFresh} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "tree", "lib", "--dir", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, iconCached) {
		t.Errorf("second run not cached:\n%s", out)
	}

	out, err = run(t, "tree", "lib", "--dir", dir, "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, iconFresh) {
		t.Errorf("--no-cache served from cache:\n%s", out)
	}
}

func TestTreeOutputFile(t *testing.T) {
	isolate(t)
	dir := writeManifests(t)
	path := filepath.Join(t.TempDir(), "lib.dot")

	out, err := run(t, "tree", "lib", "--dir", dir, "--format", "dot", "-o", path)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("digraph")) {
		t.Errorf("file does not hold a DOT graph:\n%s", data)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output does not name the file:\n%s", out)
	}
}

func TestTreeErrors(t *testing.T) {
	isolate(t)
	dir := writeManifests(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"unknown package", []string{"tree", "nope", "--dir", dir}, errors.ErrCodePackageNotFound},
		{"bad format", []string{"tree", "lib", "--dir", dir, "--format", "pdf"}, errors.ErrCodeInvalidFormat},
		{"bad depth", []string{"tree", "lib", "--dir", dir, "--depth=-2"}, errors.ErrCodeInvalidInput},
		{"no terminal for picker", []string{"tree", "--dir", dir}, errors.ErrCodeInvalidInput},
		{"missing dir", []string{"tree", "lib", "--dir", filepath.Join(dir, "nope")}, errors.ErrCodeNotFound},
		{"missing config", []string{"tree", "lib", "--config", "nope.toml"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	isolate(t)
	dir := writeManifests(t)
	cfg := "[source]\ndir = " + strconv.Quote(dir) + "\n"
	if err := os.WriteFile("revdeps.toml", []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "tree", "lib", "--format", "json")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if !strings.Contains(out, `"app"`) {
		t.Errorf("config dir not used:\n%s", out)
	}
}

func TestList(t *testing.T) {
	isolate(t)
	dir := writeManifests(t)

	out, err := run(t, "list", "--dir", dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Package", "app", "cli", "lib", "1.2.0", "3 packages"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "list", "--dir", dir, "--orphans")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "1.2.0") {
		t.Errorf("--orphans listed lib:\n%s", out)
	}
}

func TestCheck(t *testing.T) {
	isolate(t)
	dir := writeManifests(t)

	out, err := run(t, "check", "lib", "--dir", dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "1 satisfied, 1 unsatisfied, 0 unparseable") {
		t.Errorf("summary missing:\n%s", out)
	}
	if strings.Contains(out, "app →") {
		t.Errorf("satisfied range listed without --all:\n%s", out)
	}

	out, err = run(t, "check", "--dir", dir, "--all")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "app →") {
		t.Errorf("--all omitted satisfied range:\n%s", out)
	}

	if _, err := run(t, "check", "--dir", dir, "--strict"); err == nil {
		t.Error("--strict with an unsatisfied range returned nil")
	}

	out, err = run(t, "check", "lib", "--dir", dir, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var report compat.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.Unsatisfied != 1 || report.Findings[0].Dependent != "app" {
		t.Errorf("report = %+v", report)
	}
}

func TestCacheCommands(t *testing.T) {
	cacheHome := isolate(t)
	dir := writeManifests(t)
	want := filepath.Join(cacheHome, appName)

	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}

	out, err = run(t, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("clear on missing dir:\n%s", out)
	}

	if _, err := run(t, "tree", "lib", "--dir", dir); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(want); len(entries) == 0 {
		t.Fatal("tree run left no cache entries")
	}
	if _, err := run(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(want); len(entries) != 0 {
		t.Errorf("cache holds %d entries after clear", len(entries))
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)
	out, err := run(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, appName) {
		t.Error("bash completion does not mention the command")
	}
}
