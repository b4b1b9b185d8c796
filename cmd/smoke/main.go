package main

import (
	"context"
	"flag"
	"io"
	"os"
	"runtime"
	"time"

	service "github.com/okian/relocator/internal/app"
	"github.com/okian/relocator/internal/config"
	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/internal/domain/matching"
	"github.com/okian/relocator/internal/smoke"
	"github.com/okian/relocator/pkg/logger"
)

// Default configuration constants.
const (
	defaultScenarios   = 300
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultRetries     = 5
	defaultBackoff     = 500 * time.Millisecond
	defaultTestTimeout = 10 * time.Minute
	logFilePermission  = 0o600
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the service")
		scenarios = flag.Int("scenarios", defaultScenarios, "Number of visitor journeys to run")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent journeys")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed      = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Scenario generator seed")
		retries   = flag.Int("retries", defaultRetries, "Retries of a rate limited request")
		output    = flag.String("output", "", "Write the JSON report to this file")
		logFile   = flag.String("log", "", "Also write logs to this file")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	out := io.Writer(os.Stdout)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			os.Stderr.WriteString("failed to open log file: " + err.Error() + "\n")
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		out = io.MultiWriter(os.Stdout, f)
	}
	level := "info"
	if *verbose {
		level = "debug"
	}
	log, err := logger.New(logger.WithLevel(level), logger.WithWriter(out))
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// The server reads the same RELOCATOR_* settings, so local estimates
	// match released ones.
	cfg, err := config.Load(context.Background())
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	_, err = smoke.Run(ctx, &smoke.Config{
		BaseURL:    *baseURL,
		Scenarios:  *scenarios,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		MaxRetries: *retries,
		Backoff:    defaultBackoff,
		OutputFile: *output,
		Estimator:  estimate.New(service.EstimatorOptions(cfg)...),
		Matcher:    matching.New(),
		Logger:     log,
	})
	if err != nil {
		log.Error(ctx, "smoke run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
