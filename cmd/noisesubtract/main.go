package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"noisesubtract/internal/logger"
	"noisesubtract/pkg/config"
	"noisesubtract/pkg/stack"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Image file or directory containing the slices of a stack")
	outputDir := flag.String("output", "", "Output directory (default: <input>_background-subtracted)")
	configPath := flag.String("config", "noisesubtract.yaml", "YAML configuration file")
	numCores := flag.Int("cores", 0, "Number of slices processed in parallel (default: from config, all CPUs)")
	useClose := flag.Bool("close", true, "Use the 3x3 boundary region test")
	useFar := flag.Bool("far", true, "Use the 5x5 boundary region test")
	cutoff := flag.Float64("cutoff", 3.0, "N * sigma cutoff")
	suffix := flag.String("suffix", config.DefaultSuffix, "Suffix appended to output file names")
	saveMasks := flag.Bool("save-masks", false, "Save the background mask of each slice as PNG")
	verbose := flag.Bool("verbose", false, "Log per-slice statistics")
	jsonLog := flag.Bool("json-log", false, "Log JSON lines instead of console output")
	writeConfig := flag.Bool("write-config", false, "Write the effective configuration to -config and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given explicitly override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "close":
			cfg.Background.Close = *useClose
		case "far":
			cfg.Background.Far = *useFar
		case "cutoff":
			cfg.Background.Cutoff = *cutoff
		case "suffix":
			cfg.Output.Suffix = *suffix
		case "save-masks":
			cfg.Output.SaveMasks = *saveMasks
		case "verbose":
			cfg.Output.Verbose = *verbose
		case "json-log":
			cfg.Output.JSONLog = *jsonLog
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *writeConfig {
		if err := config.SaveConfig(cfg, *configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	out := *outputDir
	if out == "" {
		out = defaultOutputDir(*inputPath, cfg.Output.Suffix)
	}

	level := zerolog.InfoLevel
	if cfg.Output.Verbose {
		level = zerolog.DebugLevel
	}
	var lg *logger.ZerologAdapter
	if cfg.Output.JSONLog {
		lg = logger.New(os.Stderr, level)
	} else {
		lg = logger.NewConsole(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := &stack.Params{
		InputPath: *inputPath,
		OutputDir: out,
		NumCores:  cfg.Processing.NumCores,
		Options:   cfg.Options(),
		Suffix:    cfg.Output.Suffix,
		SaveMasks: cfg.Output.SaveMasks,
		Logger:    lg,
	}

	processor := stack.NewProcessor(params)
	processor.SetProgressCallback(func(completed, total int, message string) {
		if cfg.Output.JSONLog {
			return
		}
		fmt.Fprintf(os.Stderr, "\rProcessing slices: %.1f%% complete", float64(completed)/float64(total)*100)
		if completed == total {
			fmt.Fprintln(os.Stderr)
		}
	})

	startTime := time.Now()
	if err := processor.Process(ctx); err != nil {
		fmt.Fprintln(os.Stderr)
		log.Fatalf("Noise subtraction failed: %v", err)
	}

	summary := processor.Summary()
	fmt.Printf("\nProcessed %d slices in %.2f seconds\n", len(summary.Slices), time.Since(startTime).Seconds())
	fmt.Printf("Output saved to: %s\n", out)
	fmt.Printf("Mean border sigma: %.3f\n", summary.MeanBorderStdDev)
	fmt.Printf("Mean signal fraction: %.2f%%\n", summary.MeanSignalFraction*100)
}

// defaultOutputDir places the output next to the input. A file input loses
// its extension; a directory keeps its full name, dots included.
func defaultOutputDir(input, suffix string) string {
	base := filepath.Clean(input)
	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base + suffix
}
