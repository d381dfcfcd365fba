// Package bootstrap loads the startup manifest: aliases to declare, plugins
// the host is expected to register, and the bridge version it requires.
package bootstrap

import "sort"

// Manifest is the root startup configuration.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	// BridgeVersion is a SemVer range the running bridge must satisfy.
	BridgeVersion string `json:"bridgeVersion,omitempty"`
	// Aliases maps alias name to canonical plugin name.
	Aliases map[string]string `json:"aliases"`
	// ExpectedPlugins are reported as missing if the host does not register them.
	ExpectedPlugins []string `json:"expectedPlugins,omitempty"`
	// Strict overrides BRIDGE_STRICT when set.
	Strict *bool `json:"strict,omitempty"`
}

// AliasPairs groups the aliases into canonical -> alias maps, one alias per
// canonical name per map, in a stable order. Each map can be passed to
// DeclareAlias directly.
func (m *Manifest) AliasPairs() []map[string]string {
	aliases := make([]string, 0, len(m.Aliases))
	for alias := range m.Aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	var out []map[string]string
	for _, alias := range aliases {
		canonical := m.Aliases[alias]
		placed := false
		for _, batch := range out {
			if _, taken := batch[canonical]; !taken {
				batch[canonical] = alias
				placed = true
				break
			}
		}
		if !placed {
			out = append(out, map[string]string{canonical: alias})
		}
	}
	return out
}

// MissingPlugins returns the expected plugins for which registered reports false.
func (m *Manifest) MissingPlugins(registered func(name string) bool) []string {
	var missing []string
	for _, name := range m.ExpectedPlugins {
		if !registered(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
