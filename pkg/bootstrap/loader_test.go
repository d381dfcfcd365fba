package bootstrap

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bridge.json")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("bootstrap:loader_test - write: %v", err)
	}
	return p
}

func TestGetDefaultManifest(t *testing.T) {
	m := GetDefaultManifest()

	if m.Version != "1.0.0" {
		t.Errorf("bootstrap:loader_test - expected version 1.0.0, got %s", m.Version)
	}
	if len(m.Aliases) != 0 || len(m.ExpectedPlugins) != 0 {
		t.Errorf("bootstrap:loader_test - default manifest not empty: %+v", m)
	}
}

func TestLoadManifest_ExplicitPath(t *testing.T) {
	p := writeManifest(t, `{
		"name": "shell",
		"version": "2.1.0",
		"bridgeVersion": "^1.0.0",
		"aliases": {"cam": "camera"},
		"expectedPlugins": ["camera", "geo"],
		"strict": true
	}`)

	m, err := LoadManifest(p)
	if err != nil {
		t.Fatalf("bootstrap:loader_test - LoadManifest: %v", err)
	}
	if m.Name != "shell" || m.BridgeVersion != "^1.0.0" {
		t.Errorf("bootstrap:loader_test - manifest = %+v", m)
	}
	if m.Aliases["cam"] != "camera" {
		t.Errorf("bootstrap:loader_test - aliases = %v", m.Aliases)
	}
	if m.Strict == nil || !*m.Strict {
		t.Errorf("bootstrap:loader_test - strict = %v", m.Strict)
	}
}

func TestLoadManifest_EnvPath(t *testing.T) {
	p := writeManifest(t, `{"name": "from-env", "version": "1.0.0"}`)
	t.Setenv("BRIDGE_MANIFEST_FILE", p)

	m, err := LoadManifest()
	if err != nil {
		t.Fatalf("bootstrap:loader_test - LoadManifest: %v", err)
	}
	if m.Name != "from-env" {
		t.Errorf("bootstrap:loader_test - name = %s, want from-env", m.Name)
	}
	if m.Aliases == nil {
		t.Error("bootstrap:loader_test - aliases should default to an empty map")
	}
}

func TestLoadManifest_SkipsMalformed(t *testing.T) {
	bad := writeManifest(t, `{not json`)
	good := writeManifest(t, `{"name": "good", "version": "1.0.0"}`)

	m, err := LoadManifest("/does/not/exist.json", bad, good)
	if err != nil {
		t.Fatalf("bootstrap:loader_test - LoadManifest: %v", err)
	}
	if m.Name != "good" {
		t.Errorf("bootstrap:loader_test - name = %s, want good", m.Name)
	}
}

func TestLoadManifest_FallsBackToDefault(t *testing.T) {
	t.Setenv("BRIDGE_MANIFEST_FILE", "")
	t.Chdir(t.TempDir())

	m, err := LoadManifest("/does/not/exist.json")
	if err != nil {
		t.Fatalf("bootstrap:loader_test - LoadManifest: %v", err)
	}
	if m.Name != "webview-bridge" {
		t.Errorf("bootstrap:loader_test - name = %s, want default", m.Name)
	}
}

func TestManifest_AliasPairs(t *testing.T) {
	m := &Manifest{Aliases: map[string]string{
		"cam":     "camera",
		"camera2": "camera",
		"loc":     "geo",
	}}

	got := m.AliasPairs()
	want := []map[string]string{
		{"camera": "cam", "geo": "loc"},
		{"camera": "camera2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bootstrap:loader_test - AliasPairs = %v, want %v", got, want)
	}
}

func TestManifest_MissingPlugins(t *testing.T) {
	m := &Manifest{ExpectedPlugins: []string{"camera", "geo", "file"}}
	registered := map[string]bool{"geo": true}

	got := m.MissingPlugins(func(name string) bool { return registered[name] })
	if !reflect.DeepEqual(got, []string{"camera", "file"}) {
		t.Errorf("bootstrap:loader_test - missing = %v", got)
	}
}

func TestMergeManifests(t *testing.T) {
	strict := true
	base := &Manifest{
		Name:            "base",
		Aliases:         map[string]string{"cam": "camera"},
		ExpectedPlugins: []string{"camera"},
	}
	override := &Manifest{
		BridgeVersion:   "^1.2.0",
		Aliases:         map[string]string{"loc": "geo"},
		ExpectedPlugins: []string{"camera", "geo"},
		Strict:          &strict,
	}

	merged := MergeManifests(base, override)

	if merged.Name != "base" || merged.BridgeVersion != "^1.2.0" {
		t.Errorf("bootstrap:loader_test - merged = %+v", merged)
	}
	if len(merged.Aliases) != 2 {
		t.Errorf("bootstrap:loader_test - aliases = %v", merged.Aliases)
	}
	if !reflect.DeepEqual(merged.ExpectedPlugins, []string{"camera", "geo"}) {
		t.Errorf("bootstrap:loader_test - expected = %v", merged.ExpectedPlugins)
	}
	if merged.Strict == nil || !*merged.Strict {
		t.Error("bootstrap:loader_test - strict not merged")
	}
	if len(base.Aliases) != 1 {
		t.Error("bootstrap:loader_test - base manifest was mutated")
	}
}
