package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"payments_admin/internal/adapters/dialog"
	"payments_admin/internal/adapters/opener"
	"payments_admin/internal/adapters/records"
	"payments_admin/internal/config"
	"payments_admin/internal/console"
	"payments_admin/internal/handlers"
	"payments_admin/internal/metrics"
	"payments_admin/internal/ports"
	"payments_admin/internal/server"
	"payments_admin/internal/services/export"
	"payments_admin/internal/services/table"
	"payments_admin/pkg/logging"
)

func main() {
	logger := logging.Setup()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Init(setupCtx)
	if err != nil {
		logger.Error("[MAIN][ERR] config", "error", err)
		os.Exit(1)
	}
	defer cfg.Close(context.Background())

	if err := cfg.CheckConnections(setupCtx); err != nil {
		logger.Error("[MAIN][ERR] connection check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("[MAIN] connections OK", "backend", cfg.Backend, "s3", cfg.S3 != nil)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	svc := recordService(cfg, httpClient, logger)

	var (
		s3Op     *opener.S3Opener
		bucket   string
		uploader console.Uploader
	)
	if cfg.S3 != nil {
		s3Op = opener.NewS3Opener(cfg.S3.Client, logger)
		bucket = cfg.S3.Bucket
		uploader = export.NewUploader(cfg.S3.Client, bucket, logger)
	}
	evidence := opener.NewCompoundOpener(opener.NewHTTPOpener(httpClient, logger), s3Op, bucket)

	in := bufio.NewReader(os.Stdin)
	m := metrics.New()
	ctl := table.New(svc, dialog.NewTerminal(in, os.Stdout, evidence),
		table.WithNotifier(console.NewNotifier(os.Stdout)),
		table.WithLogger(logger),
		table.WithRecorder(m),
		table.WithPageSize(cfg.PageSize),
	)

	// a failed first load leaves an empty table that can be reloaded
	_ = ctl.Load(runCtx)

	g, ctx := errgroup.WithContext(runCtx)

	if cfg.Port != "" {
		srv := server.NewServer(cfg.Port, handlers.New(ctl, svc, cfg.S3, m.Handler(), logger))
		logger.Info("[MAIN] http admin listening", "port", cfg.Port)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if !cfg.Headless {
		g.Go(func() error {
			defer stop()
			opts := []console.Option{console.WithEvidence(evidence), console.WithLogger(logger)}
			if uploader != nil {
				opts = append(opts, console.WithUploader(uploader))
			}
			return console.New(ctl, in, os.Stdout, opts...).Run(ctx)
		})
	} else if cfg.Port == "" {
		logger.Error("[MAIN][ERR] headless mode needs ADMIN_HTTP_PORT")
		os.Exit(1)
	}

	if err := g.Wait(); err != nil {
		logger.Error("[MAIN][ERR]", "error", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, "bye")
}

func recordService(cfg *config.Config, cli *http.Client, logger *slog.Logger) ports.RecordService {
	switch cfg.Backend {
	case config.BackendMongo:
		return records.NewMongoService(cfg.Mongo, cfg.MongoCollection, logger)
	case config.BackendPostgres:
		return records.NewPostgresService(cfg.Postgres, cfg.PGTable, logger)
	default:
		return records.NewHTTPService(cli, cfg.RecordsURL, logger)
	}
}
