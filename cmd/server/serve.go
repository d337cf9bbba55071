package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"juventud/internal/adapters/api"
	"juventud/internal/adapters/email"
	web "juventud/internal/adapters/http"
	"juventud/internal/adapters/http/perf"
	"juventud/internal/adapters/storage"
	auditStore "juventud/internal/adapters/storage/audit"
	outboxStore "juventud/internal/adapters/storage/outbox"
	"juventud/internal/application/orchestrators"
	"juventud/internal/config"
	"juventud/internal/domain/outbox"
)

const (
	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 10 * time.Second
	// auditRetention is how long admin audit events are kept.
	auditRetention = 180 * 24 * time.Hour
)

func serveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g)
		},
	}
}

// newClient builds the backend client shared by the server and the admin commands.
func newClient(cfg *config.Config, collector *perf.Collector, reg prometheus.Registerer) *api.Client {
	opts := []api.Option{
		api.WithTimeout(cfg.API.Timeout),
		api.WithResponseValidation(true),
	}
	if collector != nil {
		opts = append(opts, api.WithCollector(collector))
	}
	if reg != nil {
		opts = append(opts, api.WithMetrics(api.NewMetrics(reg)))
	}
	return api.New(cfg.API.BaseURL, opts...)
}

// newSender picks Resend when a key is configured and the noop sender otherwise.
func newSender(cfg *config.Config) email.Sender {
	if cfg.Email.ResendKey != "" {
		slog.Info("email sender configured", "provider", "resend")
		return email.NewResendSender(cfg.Email.ResendKey, cfg.Email.From, cfg.Email.ReplyTo)
	}
	if cfg.IsProduction() {
		slog.Warn("email.resend_key is not set; welcome emails are not delivered")
	} else {
		slog.Info("email sender configured", "provider", "noop")
	}
	return email.NewNoopSender()
}

func runServe(ctx context.Context, g *globalFlags) error {
	cfg, err := setup(g)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	day, err := cfg.CheckIn.Day()
	if err != nil {
		return err
	}
	csrfKey, generated, err := cfg.CSRFSecret()
	if err != nil {
		return err
	}
	if generated {
		slog.Warn("server.csrf_key not set; using an ephemeral key, forms break on restart")
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.MigrateDB(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)
	store := outboxStore.NewSQLiteStore(timedDB)
	trail := auditStore.NewSQLiteStore(timedDB)
	if n, err := trail.PruneBefore(ctx, time.Now().Add(-auditRetention)); err != nil {
		slog.Warn("audit_prune_failed", "error", err)
	} else if n > 0 {
		slog.Info("audit_pruned", "count", n)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := newClient(cfg, collector, reg)
	resolver := orchestrators.NewDayResolver(orchestrators.ResolveTodayDeps{Actividades: client}, time.Now, time.Local)

	processor := orchestrators.NewOutboxProcessor(store, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeWelcomeEmail: &orchestrators.WelcomeEmailExecutor{
			Sender:  newSender(cfg),
			ReplyTo: cfg.Email.ReplyTo,
		},
	})
	stopCh := make(chan struct{})
	workerDone := orchestrators.StartBackgroundWorker(processor, cfg.Outbox.Interval, stopCh)

	srv, err := web.New(web.Options{
		Backend:             client,
		Today:               resolver,
		CheckInDay:          day,
		AdminPath:           cfg.Admin.Path,
		AdminPassphraseHash: cfg.Admin.PassphraseHash,
		CSRFKey:             csrfKey,
		Secure:              cfg.IsProduction(),
		Outbox:              store,
		Processor:           processor,
		Audit:               trail,
		Collector:           collector,
		Gatherer:            reg,
		Stop:                stopCh,
	})
	if err != nil {
		close(stopCh)
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("juventud starting",
			"version", version,
			"addr", cfg.Server.Addr,
			"env", cfg.Server.Env,
			"api", client.BaseURL(),
			"checkin_day", day,
			"schema", storage.LatestSchemaVersion())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = httpSrv.Shutdown(shutdownCtx)
		cancel()
	}
	close(stopCh)
	<-workerDone

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
