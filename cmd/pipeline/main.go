package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"factlake/internal/config"
	apperrors "factlake/internal/errors"
	"factlake/internal/exporter"
	"factlake/internal/infrastructure"
	"factlake/internal/marketsource"
	"factlake/internal/services"
	"factlake/pkg/contracts"
	"factlake/pkg/contracts/domain"
)

func main() {
	inDir := flag.String("in", "", "input directory containing facts record JSON files")
	marketFile := flag.String("market", "", "market quote file (.xlsx or .json), optional")
	outDir := flag.String("out", "", "dataset output directory (defaults to configured dataset dir)")
	concurrency := flag.Int("concurrency", 4, "number of records processed in parallel")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}

	if *inDir == "" {
		fmt.Fprintln(os.Stderr, "usage: pipeline -in <facts-dir> [-market <quotes.xlsx|quotes.json>] [-out <dataset-dir>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	datasetDir := cfg.Dataset.Dir
	if *outDir != "" {
		datasetDir = *outDir
	}
	paths, err := config.NewPaths(datasetDir)
	if err != nil {
		logger.Error("Failed to resolve dataset paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	var quotes marketsource.QuoteBook
	if *marketFile != "" {
		quotes, err = marketsource.Load(*marketFile)
		if err != nil {
			logger.Error("Failed to load market quotes", "path", *marketFile, "error", err)
			os.Exit(1)
		}
		logger.Info("Market quotes loaded", "path", *marketFile, "securities", len(quotes))
	}

	exp := exporter.NewDatasetExporter(logger, exporter.DatasetExporterConfig{
		Paths:         paths,
		EngineVersion: cfg.Dataset.EngineVersion,
		Manifest:      exporter.NewManifestGenerator(logger, paths),
	})
	pipeline := services.NewPipelineService(logger, exp, nil, nil)

	files, err := listRecordFiles(*inDir)
	if err != nil {
		logger.Error("Failed to list input files", "dir", *inDir, "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		logger.Warn("No facts record files found", "dir", *inDir)
		return
	}

	ctx := infrastructure.EnsureTraceID(context.Background())
	logger.InfoContext(ctx, "Pipeline run starting",
		"records", len(files),
		"concurrency", *concurrency,
		"dataset_dir", paths.DatasetDir)

	var exported, rejected, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)
	for _, file := range files {
		g.Go(func() error {
			if err := processFile(gctx, logger, pipeline, quotes, file); err != nil {
				if apperrors.IsValidation(err) {
					rejected.Add(1)
					return nil
				}
				failed.Add(1)
				return err
			}
			exported.Add(1)
			return nil
		})
	}

	runErr := g.Wait()

	logger.InfoContext(ctx, "Pipeline run finished",
		"exported", exported.Load(),
		"rejected", rejected.Load(),
		"failed", failed.Load())

	if runErr != nil {
		logger.ErrorContext(ctx, "Pipeline run failed", "error", runErr)
		os.Exit(1)
	}
}

// processFile runs one facts record through the full pipeline. Validation
// rejections are logged and reported by the caller; they do not abort the
// batch the way storage failures do.
func processFile(ctx context.Context, logger *slog.Logger, pipeline *services.PipelineService, quotes marketsource.QuoteBook, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	record, err := domain.DecodeFactsRecord(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	var quote domain.MarketInput
	if quotes != nil {
		quote, _ = quotes.Lookup(record.SecurityCode)
	}

	result, err := pipeline.Run(ctx, record, quote)
	if err != nil {
		if apperrors.IsValidation(err) {
			logger.WarnContext(ctx, "Record rejected by export validation",
				"file", filepath.Base(path),
				"doc_id", record.DocID,
				"error", err)
		}
		return err
	}

	logger.InfoContext(ctx, "Record exported",
		"file", filepath.Base(path),
		"doc_id", record.DocID,
		"data_version", result.DataVersion,
		"path", result.Path)
	return nil
}

// listRecordFiles returns the .json files in dir in name order.
func listRecordFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
