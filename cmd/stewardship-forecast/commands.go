package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/stewardship-forecast/internal/config"
	"github.com/iwvelando/stewardship-forecast/internal/export"
	"github.com/iwvelando/stewardship-forecast/internal/metrics"
	"github.com/iwvelando/stewardship-forecast/internal/monitor"
	"github.com/iwvelando/stewardship-forecast/internal/projection"
	"github.com/iwvelando/stewardship-forecast/internal/server"
	"github.com/iwvelando/stewardship-forecast/internal/sonify"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"github.com/iwvelando/stewardship-forecast/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newProjectCmd(a *app) *cobra.Command {
	var (
		horizon int
		preset  string
	)
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project the three value domains across generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("horizon") {
				a.conf.Projection.Horizon = horizon
			}
			if cmd.Flags().Changed("preset") {
				a.conf.Projection.Preset = preset
			}

			domains := a.conf.ProjectionDomains(a.catalog)
			points := projection.Project(domains, a.conf.Projection.Horizon)

			title := "(configured rates)"
			if a.conf.Projection.Preset != "" {
				p, _ := a.catalog.Preset(a.conf.Projection.Preset)
				title = p.ID
			}

			a.logger.Info("projection computed",
				zap.String("op", "main.project"),
				zap.Int("horizon", a.conf.Projection.Horizon),
				zap.String("preset", title),
			)

			w := cmd.OutOrStdout()
			switch a.outputFormat {
			case constants.OutputFormatCSV:
				output.CsvProjection(w, domains, points)
			case constants.OutputFormatJSON:
				return output.JSON(w, points)
			default:
				output.PrettyProjection(w, title, domains, points)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", constants.DefaultHorizon, "number of generations to project")
	cmd.Flags().StringVar(&preset, "preset", "", "preset id whose rates replace the configured domain rates")
	return cmd
}

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		quality float64
		returns []float64
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a quality score and return vector against the thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("quality") {
				a.conf.Monitor.QualityScore = quality
			}
			if cmd.Flags().Changed("returns") {
				a.conf.Monitor.Returns = returns
			}

			mon := monitor.NewMonitor(a.logger, a.conf.Monitor.Thresholds)
			alert := mon.Observe(a.conf.Monitor.Returns, a.conf.Monitor.QualityScore)

			w := cmd.OutOrStdout()
			switch a.outputFormat {
			case constants.OutputFormatJSON:
				return output.JSON(w, map[string]interface{}{
					"state": monitor.State(alert),
					"alert": alert,
				})
			case constants.OutputFormatCSV:
				reference := ""
				if alert != nil {
					reference = alert.Reference
				}
				_, _ = fmt.Fprintf(w, "\"state\",\"reference\"\n\"%s\",\"%s\"\n", monitor.State(alert), reference)
			default:
				output.AlertBanner(w, alert)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&quality, "quality", 0, "quality score override")
	cmd.Flags().Float64SliceVar(&returns, "returns", nil, "comma-separated return vector override")
	return cmd
}

func newAssessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assess",
		Short: "Assess every configured project",
		RunE: func(cmd *cobra.Command, args []string) error {
			assessments := a.catalog.AssessAll(a.conf.Monitor.Thresholds, time.Now())

			w := cmd.OutOrStdout()
			switch a.outputFormat {
			case constants.OutputFormatCSV:
				output.CsvAssessments(w, assessments)
			case constants.OutputFormatJSON:
				return output.JSON(w, assessments)
			default:
				output.PrettyAssessments(w, assessments)
			}
			return nil
		},
	}
}

func newSonifyCmd(a *app) *cobra.Command {
	var (
		metric string
		delta  float64
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "sonify",
		Short: "Map a score change to a musical cue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			note := sonify.Metric(metric, delta, sonify.NewSource(seed))

			w := cmd.OutOrStdout()
			if a.outputFormat == constants.OutputFormatJSON {
				return output.JSON(w, note)
			}
			_, _ = fmt.Fprintf(w, "%s %s %s\n", note.Pitch(), note.Duration, note.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "L-Score", "name of the metric that changed")
	cmd.Flags().Float64Var(&delta, "delta", 0, "change in the metric")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for repeatable note choice")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		steward   string
		alignment float64
		outPath   string
		mandates  []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a sealed YAML stewardship snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, _ := a.catalog.Preset(a.conf.Projection.Preset)
			in := export.Input{
				StewardID:    steward,
				QualityScore: a.conf.Monitor.QualityScore,
				Returns:      a.conf.Monitor.Returns,
				Preset:       preset,
				Alignment:    alignment,
			}
			for _, id := range mandates {
				m, ok := a.catalog.Mandate(id)
				if !ok {
					return fmt.Errorf("mandate %s not found", id)
				}
				in.Mandates = append(in.Mandates, m.Title)
			}
			if alert, ok := monitor.EvaluateWith(a.conf.Monitor.Thresholds, in.Returns, in.QualityScore); ok {
				alert.Timestamp = time.Now()
				in.Alert = &alert
			}

			snapshot := export.Build(in)
			body, err := snapshot.YAML()
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(outPath, body, 0644); err != nil {
				return fmt.Errorf("failed to write snapshot to %s: %w", outPath, err)
			}
			a.logger.Info("snapshot exported",
				zap.String("op", "main.export"),
				zap.String("exportId", snapshot.ID),
				zap.String("path", outPath),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&steward, "steward", constants.DefaultStewardID, "steward id recorded in the snapshot")
	cmd.Flags().Float64Var(&alignment, "alignment", 0, "covenant alignment against the community in percent")
	cmd.Flags().StringSliceVar(&mandates, "mandate", nil, "id of a mandate the steward has taken up (repeatable)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the snapshot to this file instead of stdout")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var (
		serverConfig string
		address      string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig(serverConfig)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Address = address
			}

			logger := a.logger
			if cfg.Logging != (config.LoggingConfig{}) {
				if logger, err = initializeLogger(cfg.Logging, a.logLevel); err != nil {
					return fmt.Errorf("failed to initialize server logger: %w", err)
				}
				defer func() { _ = logger.Sync() }()
			}

			handler, err := a.serverHandler(cfg, logger)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.Address,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting HTTP server",
					zap.String("op", "main.serve"),
					zap.String("address", cfg.Address),
				)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down HTTP server", zap.String("op", "main.serve"))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&serverConfig, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "address", "", "listen address override")
	return cmd
}

// serverHandler builds the API handler with the same projection inputs the
// project command uses, configured preset included.
func (a *app) serverHandler(cfg *server.Config, logger *zap.Logger) (http.Handler, error) {
	return server.NewHandler(server.Options{
		Logger:         logger,
		Catalog:        a.catalog,
		Metrics:        metrics.NewRegistry(cfg.RuntimeMetrics),
		Thresholds:     a.conf.Monitor.Thresholds,
		Domains:        a.conf.ProjectionDomains(a.catalog),
		MaxBodySize:    cfg.BodySizeBytes(),
		AllowedOrigins: cfg.AllowedOrigins,
		Version:        version,
	})
}
