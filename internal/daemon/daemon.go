package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cpupd-dev/cpupd/internal/api"
	"github.com/cpupd-dev/cpupd/internal/app/power"
	"github.com/cpupd-dev/cpupd/internal/health"
	"github.com/cpupd-dev/cpupd/internal/infra/sqlite"
	"github.com/cpupd-dev/cpupd/internal/pd"
	"github.com/cpupd-dev/cpupd/internal/platform"
	"github.com/cpupd-dev/cpupd/internal/topology"
)

// Daemon is the core cpupd runtime. It wires together all services.
type Daemon struct {
	Config  Config
	DB      *sqlite.DB // nil when the journal is disabled
	Service *power.Service
	Server  *api.Server
	Health  *health.Checker
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	desc, err := loadDescription(cfg.Topology)
	if err != nil {
		return nil, fmt.Errorf("load topology: %w", err)
	}

	ops, err := loadOps(cfg.Platform)
	if err != nil {
		return nil, err
	}

	var db *sqlite.DB
	if cfg.Journal.Enabled {
		db, err = sqlite.Open(cfg.Journal.Dir)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
	}

	svc := power.NewService(power.Config{
		Description: desc,
		Ops:         ops,
		DB:          db,
		Tolerance:   time.Duration(cfg.Admission.ToleranceUs) * time.Microsecond,
	})
	if err := svc.Build(); err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}
	if err := svc.AttachAll(); err != nil {
		return nil, fmt.Errorf("attach cpus: %w", err)
	}

	srv := api.NewServer(svc)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	checker := health.NewChecker(db, svc.Registry(), cfg.Journal.Dir)
	srv.SetHealth(checker)

	return &Daemon{
		Config:  cfg,
		DB:      db,
		Service: svc,
		Server:  srv,
		Health:  checker,
	}, nil
}

func loadDescription(cfg TopologyConfig) (*topology.Description, error) {
	if cfg.File != "" {
		return topology.Load(cfg.File)
	}
	preset := cfg.Preset
	if preset == "" {
		preset = "juno"
	}
	return topology.Preset(preset)
}

func loadOps(cfg PlatformConfig) (pd.Ops, error) {
	switch cfg.Backend {
	case "", "noop":
		return platform.Noop(), nil
	case "log":
		return platform.Logging("platform", platform.Noop()), nil
	default:
		return pd.Ops{}, fmt.Errorf("unknown platform backend %q", cfg.Backend)
	}
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)
	if d.DB != nil && d.Config.Journal.RetentionDays > 0 {
		go d.pruneLoop(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		if d.DB != nil {
			_ = d.DB.Close()
		}
	}()

	fmt.Printf("cpupd serving on http://%s\n", addr)
	fmt.Printf("  Domains: %d registered\n", d.Service.Registry().Len())
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// pruneLoop trims journal entries past the retention window.
func (d *Daemon) pruneLoop(ctx context.Context) {
	retention := time.Duration(d.Config.Journal.RetentionDays) * 24 * time.Hour
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.DB.PruneTransitions(time.Now().Add(-retention))
			if err != nil {
				log.Printf("[daemon] WARNING: journal prune failed: %v", err)
			} else if n > 0 {
				log.Printf("[daemon] pruned %d journal entries", n)
			}
		}
	}
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
