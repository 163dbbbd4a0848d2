package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kpauljoseph/pipespec/internal/batch"
	"github.com/kpauljoseph/pipespec/internal/config"
	"github.com/kpauljoseph/pipespec/internal/extractor"
	"github.com/kpauljoseph/pipespec/internal/pdf"
	"github.com/kpauljoseph/pipespec/internal/report"
	"github.com/kpauljoseph/pipespec/internal/scanner"
	"github.com/kpauljoseph/pipespec/pkg/logger"
	"github.com/kpauljoseph/pipespec/pkg/version"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to config file")
	inputDir := flag.String("input-dir", "", "directory containing PDF specifications (overrides config)")
	outputFile := flag.String("output", "", "path of the XLSX report (overrides config)")
	density := flag.Float64("density", 0, "pipe material density in g/cm³ (overrides config)")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	debug := flag.Bool("debug", false, "enable debug mode with trace logging")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Print(version.GetDetailedVersionInfo())
		return
	}

	log := logger.New(logger.WithPrefix("[pipespec] "))
	log.SetVerbose(*verbose)

	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	if *verbose {
		log.Debug("Verbose logging enabled")
	}
	log.Debug("Running %s", version.GetVersionInfo())

	configSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configSet = true
		}
	})

	cfg, err := config.Load(*configPath, configSet)
	if err != nil {
		log.Fatal("Error loading config: %v", err)
	}

	if *inputDir != "" {
		cfg.InputDir = *inputDir
	}
	if *outputFile != "" {
		cfg.OutputFile = *outputFile
	}
	if *density != 0 {
		cfg.Material.Density = *density
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("Error in config: %v", err)
	}

	log.Debug("Material: %s, density %.3f g/cm³", cfg.Material.Name, cfg.Material.Density)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received interrupt signal, stopping after the current document...")
		cancel()
	}()

	settings := cfg.ExtractorSettings()
	source := pdf.NewDocumentSource(pdf.DefaultGridOptions(), log)
	driver := batch.New(
		scanner.New(log),
		extractor.New(source, settings, log),
		settings.Classifier,
		log,
	)

	result, err := driver.Run(ctx, cfg.InputDir)
	if err != nil {
		log.Fatal("Error processing %s: %v", cfg.InputDir, err)
	}

	result.Summary.Print(log)

	writer := report.NewWriter(cfg.ReportLayout(), log)
	if err := writer.Write(result.Records, cfg.OutputFile); err != nil {
		if errors.Is(err, report.ErrNoRecords) {
			return
		}
		log.Fatal("Error writing report: %v", err)
	}
}
