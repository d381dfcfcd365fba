package bridge

import (
	"fmt"
	"log/slog"
	"sort"
)

const pluginsLogPrefix = "bridge:plugins"

// Method invokes one host-backed plugin method. Its arguments are packaged as
// a list and queued as the command's args.
type Method func(args ...any) (*Promise, error)

// Plugin is a namespace of host-backed methods. Aliases of a plugin refer to
// the same *Plugin.
type Plugin struct {
	bridge   *Bridge
	name     string
	methods  []string
	invokers map[string]Method
}

func newPlugin(b *Bridge, name string, methods []string) *Plugin {
	p := &Plugin{
		bridge:   b,
		name:     name,
		methods:  append([]string(nil), methods...),
		invokers: make(map[string]Method, len(methods)),
	}
	for _, m := range p.methods {
		action := m
		p.invokers[action] = func(args ...any) (*Promise, error) {
			return b.ExecPromise(name, action, packArgs(args))
		}
	}
	return p
}

// packArgs turns variadic method arguments into the command's args list.
// No arguments yields an empty list, never null.
func packArgs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)
	return out
}

// Name returns the canonical plugin name.
func (p *Plugin) Name() string {
	return p.name
}

// Methods returns the method names in declaration order.
func (p *Plugin) Methods() []string {
	return append([]string(nil), p.methods...)
}

// Method returns the bound invoker for name.
func (p *Plugin) Method(name string) (Method, bool) {
	m, ok := p.invokers[name]
	return m, ok
}

// Call invokes a method promise-style.
func (p *Plugin) Call(method string, args ...any) (*Promise, error) {
	m, ok := p.invokers[method]
	if !ok {
		return nil, p.unknownMethod(method)
	}
	return m(args...)
}

// CallWithCallbacks invokes a method callback-style.
func (p *Plugin) CallWithCallbacks(method string, cb Callbacks, args ...any) error {
	if _, ok := p.invokers[method]; !ok {
		return p.unknownMethod(method)
	}
	return p.bridge.Exec(p.name, method, packArgs(args), cb)
}

func (p *Plugin) unknownMethod(method string) error {
	return &BridgeError{
		Code:    CodeUnknownMethod,
		Message: fmt.Sprintf("plugin %s has no method %s", p.name, method),
	}
}

// pluginTable holds registered plugins and the alias table.
type pluginTable struct {
	byName map[string]*Plugin
	// claimed maps every declared alias to its canonical plugin name.
	claimed map[string]string
	// bound maps aliases whose target is registered to the plugin object.
	bound map[string]*Plugin
}

func newPluginTable() pluginTable {
	return pluginTable{
		byName:  make(map[string]*Plugin),
		claimed: make(map[string]string),
		bound:   make(map[string]*Plugin),
	}
}

// register replaces any plugin of the same name and binds its pending aliases.
func (t *pluginTable) register(p *Plugin) {
	t.byName[p.name] = p
	for alias, canonical := range t.claimed {
		if canonical == p.name {
			t.bound[alias] = p
		}
	}
}

// unregister removes the plugin. Its aliases stay claimed and go back to pending.
func (t *pluginTable) unregister(name string) bool {
	if _, ok := t.byName[name]; !ok {
		return false
	}
	delete(t.byName, name)
	for alias, canonical := range t.claimed {
		if canonical == name {
			delete(t.bound, alias)
		}
	}
	return true
}

func (t *pluginTable) clear() int {
	n := len(t.byName)
	t.byName = make(map[string]*Plugin)
	t.bound = make(map[string]*Plugin)
	return n
}

// declare validates every canonical->alias pair before applying any of them.
func (t *pluginTable) declare(pairs map[string]string) error {
	canonicals := make([]string, 0, len(pairs))
	for canonical := range pairs {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	batch := make(map[string]string, len(pairs))
	for _, canonical := range canonicals {
		alias := pairs[canonical]
		if t.isCanonical(alias) || pairs[alias] != "" {
			return aliasShadows(alias, canonical)
		}
		if existing, ok := t.claimed[alias]; ok && existing != canonical {
			return aliasConflict(alias, existing, canonical)
		}
		if existing, ok := batch[alias]; ok && existing != canonical {
			return aliasConflict(alias, existing, canonical)
		}
		batch[alias] = canonical
	}

	for _, canonical := range canonicals {
		alias := pairs[canonical]
		if _, ok := t.claimed[alias]; ok {
			continue
		}
		t.claimed[alias] = canonical
		if p, ok := t.byName[canonical]; ok {
			t.bound[alias] = p
			slog.Debug(fmt.Sprintf("%s - alias %s bound to %s", pluginsLogPrefix, alias, canonical))
		} else {
			slog.Debug(fmt.Sprintf("%s - alias %s deferred until %s registers", pluginsLogPrefix, alias, canonical))
		}
	}
	return nil
}

func aliasConflict(alias, existing, requested string) error {
	return &BridgeError{
		Code:    CodeAliasConflict,
		Message: fmt.Sprintf("alias %s is already claimed by %s (requested for %s)", alias, existing, requested),
		Details: map[string]string{"alias": alias, "claimedBy": existing, "requested": requested},
	}
}

// isCanonical reports whether name is a registered plugin or the target of a claim.
func (t *pluginTable) isCanonical(name string) bool {
	if _, ok := t.byName[name]; ok {
		return true
	}
	for _, canonical := range t.claimed {
		if canonical == name {
			return true
		}
	}
	return false
}

// aliasShadows rejects an alias that names a plugin; lookup would never reach it.
func aliasShadows(alias, requested string) error {
	return &BridgeError{
		Code:    CodeAliasConflict,
		Message: fmt.Sprintf("alias %s for %s is already a plugin name", alias, requested),
		Details: map[string]string{"alias": alias, "claimedBy": alias, "requested": requested},
	}
}

// lookup resolves canonical names first, then aliases.
func (t *pluginTable) lookup(name string) (*Plugin, bool) {
	if p, ok := t.byName[name]; ok {
		return p, true
	}
	p, ok := t.bound[name]
	return p, ok
}

func (t *pluginTable) snapshot() map[string]*Plugin {
	out := make(map[string]*Plugin, len(t.byName)+len(t.bound))
	for alias, p := range t.bound {
		out[alias] = p
	}
	for name, p := range t.byName {
		out[name] = p
	}
	return out
}

// aliases returns a copy of the alias table (alias -> canonical).
func (t *pluginTable) aliases() map[string]string {
	out := make(map[string]string, len(t.claimed))
	for alias, canonical := range t.claimed {
		out[alias] = canonical
	}
	return out
}
