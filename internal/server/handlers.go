package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/morezero/webview-bridge/pkg/bridge"
)

// HealthOutput is the /health response.
type HealthOutput struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Mode     string `json:"mode"`
	Version  string `json:"version"`
	Instance string `json:"instance"`
	Queued   int    `json:"queued"`
	Awaiting int    `json:"awaiting"`
	Comms    bool   `json:"comms"`
}

// PluginEntry is one row of /plugins and the home page.
type PluginEntry struct {
	Name    string   `json:"name"`
	Methods []string `json:"methods"`
	Aliases []string `json:"aliases,omitempty"`
}

func (s *Server) health() HealthOutput {
	queued, awaiting := s.bridge.Pending()
	h := HealthOutput{
		Status:   "healthy",
		Ready:    s.bridge.IsReady(),
		Mode:     s.bridge.Mode(),
		Version:  bridge.Version,
		Instance: s.cfg.Instance,
		Queued:   queued,
		Awaiting: awaiting,
		Comms:    s.commsConnected(),
	}
	if !h.Comms {
		h.Status = "unhealthy"
	}
	return h
}

func (s *Server) commsConnected() bool {
	if s.nc == nil {
		return true
	}
	return s.nc.IsConnected()
}

// pluginEntries lists canonical plugins with their aliases, sorted by name.
func (s *Server) pluginEntries() []PluginEntry {
	aliasesOf := make(map[string][]string)
	for alias, canonical := range s.bridge.Aliases() {
		aliasesOf[canonical] = append(aliasesOf[canonical], alias)
	}

	var out []PluginEntry
	for name, p := range s.bridge.Plugins() {
		if p.Name() != name {
			continue
		}
		aliases := aliasesOf[name]
		sort.Strings(aliases)
		out = append(out, PluginEntry{Name: name, Methods: p.Methods(), Aliases: aliases})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Server) newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", s.handleReady())
	mux.HandleFunc("/plugins", s.handlePlugins())
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := s.health()
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	}
}

// handleReady reports 503 until the host has completed the handshake.
func (s *Server) handleReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !s.bridge.IsReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "waiting for host"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}

func (s *Server) handlePlugins() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"plugins": s.pluginEntries(),
			"aliases": s.bridge.Aliases(),
		})
	}
}

var homeTmpl = template.Must(template.New("home").Parse(homePageTemplate))

type homePageData struct {
	Health  HealthOutput
	Plugins []PluginEntry
}

func (s *Server) handleHome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data := homePageData{Health: s.health(), Plugins: s.pluginEntries()}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := homeTmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template: %v", logPrefix, err))
		}
	}
}

// homePageTemplate is the HTML for the bridge status page.
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Webview Bridge</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>Webview Bridge</h1>
  <p class="meta">Instance {{.Health.Instance}}, bridge version {{.Health.Version}}.</p>

  <section>
    <h2>Health</h2>
    <p>Status: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    <p>Host ready: {{if .Health.Ready}}<span class="stat">yes</span>{{else}}<span class="status-unhealthy">no</span>{{end}}</p>
    <p>Transport: <span class="stat">{{.Health.Mode}}</span></p>
    <p>Queued commands: <span class="stat">{{.Health.Queued}}</span>, awaiting response: <span class="stat">{{.Health.Awaiting}}</span></p>
  </section>

  <section>
    <h2>Plugins</h2>
    {{if not .Plugins}}
    <p>No plugins registered.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Plugin</th><th>Methods</th><th>Aliases</th></tr>
      </thead>
      <tbody>
        {{range .Plugins}}
        <tr>
          <td>{{.Name}}</td>
          <td>{{range .Methods}}{{.}} {{end}}</td>
          <td>{{range .Aliases}}{{.}} {{end}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>
</body>
</html>
`
