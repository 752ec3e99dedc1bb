package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"npay-compare/internal/cache"
	"npay-compare/internal/compare/handler"
	"npay-compare/internal/compare/model"
	"npay-compare/internal/compare/service"
	"npay-compare/internal/config"
	"npay-compare/internal/export"
	"npay-compare/internal/fileio"
	"npay-compare/internal/publicdata"
	serverhttp "npay-compare/server/http"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "npay-compare",
		Short: "Non-covered item price comparison across hospitals",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(compareCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	store, closeStore := openCache(cfg, logger)
	defer closeStore()

	client := publicdata.NewClient(cfg.PublicData(), logger)
	var items service.ItemFeed = cache.NewItemFeed(client, store, cfg.ItemsCacheTTL, logger)
	if cfg.SampleFallback {
		// outside the cache: sample items must not be stored as real prices
		items = publicdata.NewSampleFallback(items, logger)
	}
	hospitals := cache.NewHospitalDirectory(client, store, cfg.HospitalsCacheTTL, logger)
	for _, msg := range startupWarnings(cfg) {
		logger.Warn().Msg(msg)
	}

	h := handler.New(items, hospitals, cfg.MaxUploadMB, logger)
	r := serverhttp.NewRouter(cfg, logger, h)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r, ReadHeaderTimeout: 10 * time.Second}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		logger.Error().Err(err).Msg("listen")
		return err
	case <-quit:
	}
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
	return nil
}

// startupWarnings lists configuration that will degrade portal answers.
// The relay forwards serviceKey as given, so a proxy does not replace the key.
func startupWarnings(cfg config.Config) []string {
	var out []string
	if cfg.APIKey == "" {
		out = append(out, "PUBLIC_DATA_API_KEY is not set; portal calls will fail")
	}
	if cfg.SampleFallback {
		out = append(out, "SAMPLE_FALLBACK is on; failed hospitals are answered with sample items")
	}
	return out
}

// openCache prefers Redis and falls back to process memory when it is not
// configured or not reachable.
func openCache(cfg config.Config, logger zerolog.Logger) (cache.Cache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(), func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-memory cache")
		return cache.NewMemory(), func() {}
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("redis cache enabled")
	return rc, func() { _ = rc.Close() }
}

func compareCmd() *cobra.Command {
	var (
		file      string
		hospitals []string
		format    string
		out       string
		headerRow int
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare hospitals using a downloaded dataset file (csv, xls, xlsx)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, names, err := parseHospitals(hospitals)
			if err != nil {
				return err
			}
			cfg := config.Load()
			cfg.LogFile = ""
			// stdout may carry the report
			logger := config.SetupLogger(cfg).Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

			feed, err := fileio.LoadFeed(file, headerRow, fileio.DefaultItemMapping)
			if err != nil {
				return err
			}
			logger.Debug().Str("file", file).Int("items", feed.Len()).Msg("dataset loaded")

			m := service.DefaultMatcher
			m.Threshold = threshold
			res, err := service.NewService(feed, logger).WithMatcher(m).Compare(cmd.Context(), ids, names)
			if err != nil {
				return err
			}

			if err := writeOutput(cmd.OutOrStdout(), out, format, res); err != nil {
				return err
			}
			logger.Info().Int("rows", res.TotalResults).Str("format", format).Msg("comparison written")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "dataset file (.csv, .xls, .xlsx)")
	cmd.Flags().StringArrayVar(&hospitals, "hospital", nil, "hospital as ID or ID=NAME, repeat for each; the first one is the reference")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv, xlsx or json")
	cmd.Flags().StringVar(&out, "out", "", "output path (stdout when empty)")
	cmd.Flags().IntVar(&headerRow, "header-row", 1, "1-based header row of the dataset")
	cmd.Flags().Float64Var(&threshold, "threshold", service.DefaultThreshold, "minimum similarity for a name match")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// parseHospitals splits ID=NAME pairs; names stay index-aligned with IDs.
func parseHospitals(specs []string) (ids, names []string, err error) {
	for _, s := range specs {
		id, name, _ := strings.Cut(s, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, nil, fmt.Errorf("invalid --hospital %q", s)
		}
		ids = append(ids, id)
		names = append(names, strings.TrimSpace(name))
	}
	if len(ids) < 2 {
		return nil, nil, service.ErrTooFewHospitals
	}
	return ids, names, nil
}

// writeOutput writes to path, or to stdout when path is empty or "-".
func writeOutput(stdout io.Writer, path, format string, res model.Result) (err error) {
	if path == "" || path == "-" {
		return writeResult(stdout, format, res)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return writeResult(f, format, res)
}

func writeResult(w io.Writer, format string, res model.Result) error {
	switch strings.ToLower(format) {
	case "csv":
		return export.WriteCSV(w, res)
	case "xlsx":
		return export.WriteXLSX(w, res)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
