// Package server orchestrates all components: COMMS connection, id seed store,
// bridge, host request subscription, HTTP health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/webview-bridge/internal/config"
	"github.com/morezero/webview-bridge/pkg/bootstrap"
	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/commsutil"
	"github.com/morezero/webview-bridge/pkg/hostlink"
	"github.com/morezero/webview-bridge/pkg/seedstore"
	"github.com/morezero/webview-bridge/pkg/transport"
)

const logPrefix = "server:server"

// Server is the webview-bridge orchestrator.
type Server struct {
	cfg        *config.Config
	manifest   *bootstrap.Manifest
	embedded   *commsutil.EmbeddedServer
	nc         *comms.Conn
	pool       *pgxpool.Pool
	bridge     *bridge.Bridge
	metrics    *Metrics
	hostSub    *comms.Subscription
	listener   net.Listener
	httpServer *http.Server
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLogLevel(cfg.LogLevel)})))

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting webview-bridge %s", logPrefix, bridge.Version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Start(ctx, cfg)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()
	s.Shutdown(shutdownCtx)

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level. Unknown values mean info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Start wires every component and begins serving. On error, everything
// started so far is shut down.
func Start(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg, metrics: NewMetrics()}
	if err := s.start(ctx); err != nil {
		s.Shutdown(ctx)
		return nil, err
	}
	slog.Info(fmt.Sprintf("%s - Webview bridge is ready for the host", logPrefix))
	return s, nil
}

func (s *Server) start(ctx context.Context) error {
	cfg := s.cfg

	// Step 1: Load manifest and check it against this build
	manifest, err := bootstrap.LoadManifest(cfg.ManifestFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load manifest: %w", logPrefix, err)
	}
	if err := bridge.CheckHostConstraint(manifest.BridgeVersion); err != nil {
		return fmt.Errorf("%s - manifest %s: %w", logPrefix, manifest.Name, err)
	}
	s.manifest = manifest

	strict := cfg.Strict
	if manifest.Strict != nil {
		strict = *manifest.Strict
	}

	// Step 2: Connect to COMMS, starting an in-process server if requested
	commsURL := cfg.COMMSURL
	if cfg.COMMSEmbedded {
		host, port := embeddedListenAddr(cfg.COMMSURL)
		embedded, err := commsutil.StartEmbedded(host, port)
		if err != nil {
			return fmt.Errorf("%s - failed to start embedded COMMS: %w", logPrefix, err)
		}
		s.embedded = embedded
		commsURL = embedded.ClientURL()
	}
	nc, err := commsutil.Connect(commsURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	s.nc = nc

	// Step 3: Correlation id seeding (persistent when a database is configured)
	var seed bridge.SeedSource = bridge.RandomSeed{}
	if cfg.DatabaseURL != "" {
		pool, err := seedstore.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		s.pool = pool
		if cfg.RunMigrations {
			if err := seedstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}
		seed = seedstore.Source{
			Store:    seedstore.NewStore(pool, nil),
			Instance: cfg.Instance,
			Block:    cfg.IDBlock,
		}
	}

	// Step 4: Create the bridge with the configured transport
	mode, err := cfg.Mode()
	if err != nil {
		return fmt.Errorf("%s - %w", logPrefix, err)
	}
	opts := bridge.Options{
		Window:       cfg.DebounceWindow,
		Seed:         seed,
		Strict:       strict,
		FlushTimeout: cfg.FlushTimeout,
		Observer:     s.metrics,
		OnReady:      s.onReady,
	}
	switch mode {
	case transport.ModePush:
		subject := instanceSubject(cfg.PushSubject, commsutil.SubjectPush, cfg.Instance)
		opts.Pusher = transport.NewCommsPusher(nc, &transport.CommsOpts{Subject: subject})
		slog.Info(fmt.Sprintf("%s - Pushing batches to %s", logPrefix, subject))
	case transport.ModeSignal:
		subject := instanceSubject(cfg.SignalSubject, commsutil.SubjectSignal, cfg.Instance)
		opts.Signaler = transport.NewCommsSignaler(nc, &transport.CommsOpts{Subject: subject})
		slog.Info(fmt.Sprintf("%s - Signalling on %s", logPrefix, subject))
	default:
		slog.Info(fmt.Sprintf("%s - Pull-only transport; host must call %s", logPrefix, hostlink.MethodFetchMessages))
	}

	b, err := bridge.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("%s - failed to create bridge: %w", logPrefix, err)
	}
	s.bridge = b

	// Step 5: Declare manifest aliases (deferred until the host registers plugins)
	for _, pairs := range manifest.AliasPairs() {
		if err := b.DeclareAlias(pairs); err != nil {
			return fmt.Errorf("%s - manifest alias: %w", logPrefix, err)
		}
	}

	// Step 6: Serve host requests
	hostSubject := instanceSubject(cfg.HostSubject, commsutil.SubjectHost, cfg.Instance)
	sub, err := hostlink.Subscribe(ctx, nc, hostlink.NewDispatcher(b), hostlink.SubscribeOpts{
		Subject:        hostSubject,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}
	s.hostSub = sub

	// Step 7: Start HTTP health server
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("%s - failed to listen on %s: %w", logPrefix, httpAddr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.newMux(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, listener.Addr()))
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	return nil
}

// onReady runs once the host completes the handshake.
func (s *Server) onReady(_ any) {
	missing := s.manifest.MissingPlugins(func(name string) bool {
		_, ok := s.bridge.Plugin(name)
		return ok
	})
	if len(missing) > 0 {
		slog.Warn(fmt.Sprintf("%s - Host did not register expected plugins: %s", logPrefix, strings.Join(missing, ", ")))
	}
	slog.Info(fmt.Sprintf("%s - Host ready with %d plugins", logPrefix, len(s.pluginEntries())))
}

// Bridge returns the running bridge.
func (s *Server) Bridge() *bridge.Bridge {
	return s.bridge
}

// HTTPAddr returns the address the HTTP server listens on.
func (s *Server) HTTPAddr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// CommsURL returns the URL of the COMMS server in use.
func (s *Server) CommsURL() string {
	if s.nc == nil {
		return ""
	}
	return s.nc.ConnectedUrl()
}

// Shutdown stops every started component in reverse order.
func (s *Server) Shutdown(ctx context.Context) {
	if s.hostSub != nil {
		s.hostSub.Unsubscribe()
	}
	if s.httpServer != nil {
		s.httpServer.Shutdown(ctx)
	} else if s.listener != nil {
		s.listener.Close()
	}
	if s.bridge != nil {
		s.bridge.Close()
	}
	if s.nc != nil {
		s.nc.Drain()
		s.nc.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.embedded != nil {
		s.embedded.Shutdown()
	}
}

// instanceSubject returns override if set, else base scoped to the instance.
func instanceSubject(override, base, instance string) string {
	if override != "" {
		return override
	}
	return commsutil.BuildInstanceSubject(base, instance)
}

// embeddedListenAddr derives the embedded server address from COMMS_URL.
// Without a usable URL it listens on a random local port.
func embeddedListenAddr(raw string) (string, int) {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "127.0.0.1", -1
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return u.Hostname(), -1
	}
	return u.Hostname(), port
}
