package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

const logPrefix = "bootstrap:loader"

// LoadManifest loads the manifest from file paths or environment.
// It tries paths in order: first any paths passed in, then BRIDGE_MANIFEST_FILE env, then defaults.
// Unreadable or malformed files are skipped.
func LoadManifest(paths ...string) (*Manifest, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("BRIDGE_MANIFEST_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/bridge.json", "bridge.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse manifest file %s: %v", logPrefix, p, err))
			continue
		}
		if m.Aliases == nil {
			m.Aliases = make(map[string]string)
		}

		slog.Info(fmt.Sprintf("%s - Loaded manifest from %s", logPrefix, p))
		return &m, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default manifest", logPrefix))
	return GetDefaultManifest(), nil
}

// GetDefaultManifest returns the fallback manifest: no aliases, no expectations.
func GetDefaultManifest() *Manifest {
	return &Manifest{
		Name:    "webview-bridge",
		Version: "1.0.0",
		Aliases: map[string]string{},
	}
}

// MergeManifests merges an override manifest into a base manifest.
func MergeManifests(base, override *Manifest) *Manifest {
	merged := *base

	merged.Aliases = make(map[string]string, len(base.Aliases)+len(override.Aliases))
	for alias, target := range base.Aliases {
		merged.Aliases[alias] = target
	}
	for alias, target := range override.Aliases {
		merged.Aliases[alias] = target
	}

	seen := make(map[string]bool, len(base.ExpectedPlugins))
	merged.ExpectedPlugins = nil
	for _, name := range append(append([]string(nil), base.ExpectedPlugins...), override.ExpectedPlugins...) {
		if !seen[name] {
			seen[name] = true
			merged.ExpectedPlugins = append(merged.ExpectedPlugins, name)
		}
	}

	if override.BridgeVersion != "" {
		merged.BridgeVersion = override.BridgeVersion
	}
	if override.Strict != nil {
		merged.Strict = override.Strict
	}

	return &merged
}
