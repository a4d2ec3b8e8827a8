package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voicerag/app/server"
	"voicerag/config"
	"voicerag/loader"
	"voicerag/logger"
	"voicerag/telemetry"
)

type stack struct {
	cfg    *config.Config
	logger *zap.Logger
	deps   *server.Deps
	close  func()
}

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "voicerag",
		Short:         "Voice-enabled retrieval-augmented question answering",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), ingestCmd(), askCmd(), watchCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			s, err := server.NewServer(rt.cfg, rt.deps, rt.logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- s.Run() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			rt.logger.Info("received shutdown signal, shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return s.Stop(shutdownCtx)
		},
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Index PDF, DOCX or TXT files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			var failed error
			for _, path := range args {
				n, err := rt.deps.Loader.IngestFile(cmd.Context(), path)
				if err != nil {
					rt.logger.Error("ingest failed", zap.String("file", path), zap.Error(err))
					failed = errors.Join(failed, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks indexed\n", path, n)
			}
			return failed
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			answer, err := rt.deps.Agent.Answer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Index files dropped into the loader source directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			w, err := loader.NewWatcher(rt.cfg.Loader, rt.deps.Loader, rt.logger.Named("watcher"))
			if err != nil {
				return err
			}
			rt.logger.Info("watching", zap.String("dir", rt.cfg.Loader.SourceDir))
			w.Run(ctx)
			return nil
		},
	}
}

func setup(ctx context.Context) (*stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	shutdownMeter, err := telemetry.InitMeter(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.MetricInterval)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return nil, fmt.Errorf("init meter: %w", err)
	}

	deps, err := server.NewDeps(ctx, cfg, log)
	if err != nil {
		_ = shutdownMeter(context.Background())
		_ = shutdownTracer(context.Background())
		return nil, err
	}

	return &stack{
		cfg:    cfg,
		logger: log,
		deps:   deps,
		close: func() {
			deps.Close()
			if err := shutdownMeter(context.Background()); err != nil {
				log.Warn("meter shutdown", zap.Error(err))
			}
			if err := shutdownTracer(context.Background()); err != nil {
				log.Warn("tracer shutdown", zap.Error(err))
			}
			_ = log.Sync()
		},
	}, nil
}
