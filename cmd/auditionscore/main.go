package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joshuadwray/audition-scoring/internal/app"
	"github.com/joshuadwray/audition-scoring/internal/config"
	"github.com/joshuadwray/audition-scoring/internal/logger"
)

var (
	version = "dev"
)

// showBanner prints the product name and the addresses judges and admins use
func showBanner(baseURL string) {
	width := 62
	border := strings.Repeat("═", width)
	lines := []string{
		"",
		"   Audition Scoring",
		"",
		"   Judges join at  " + baseURL + "/judge/<code>",
		"   Health          " + baseURL + "/healthz",
		"",
	}

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range lines {
		if pad := width - len([]rune(line)); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		fmt.Printf("  %s║%s%s%s║%s\n", cyan, yellow, line, cyan, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
}

// applyFlags overrides environment configuration with explicitly set flags
func applyFlags(cfg *config.Config, fs *flag.FlagSet, port int, dbPath, logLevel, logFormat string) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.HTTPAddr = fmt.Sprintf(":%d", port)
		case "db":
			cfg.DBPath = dbPath
		case "loglevel":
			cfg.LogLevel = logLevel
		case "logformat":
			cfg.LogFormat = logFormat
		}
	})
}

func main() {
	port := flag.Int("port", 8081, "HTTP server port")
	dbPath := flag.String("db", "auditions.db", "SQLite database path")
	logLevel := flag.String("loglevel", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("logformat", "text", "Log format (text, json)")
	noBanner := flag.Bool("nobanner", false, "Skip the startup banner")
	noKeyboard := flag.Bool("nokeyboard", false, "Disable keyboard shortcuts")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Audition Scoring - live dance audition scoring server

Usage:
  auditionscore [options]

Options:
  -port int        HTTP server port (default 8081, env HTTP_ADDR)
  -db string       SQLite database path (default "auditions.db", env DB_PATH)
  -loglevel str    Log level: debug, info, warn, error (default "info", env LOG_LEVEL)
  -logformat str   Log format: text, json (default "text", env LOG_FORMAT)
  -nobanner        Skip the startup banner
  -nokeyboard      Disable keyboard shortcuts
  -version         Show version and exit
  -help            Show this help message

Environment:
  TOKEN_TTL        Session token lifetime (default 24h)
  PIN_RATE         Login attempts per second per client (default 1)
  PIN_BURST        Login attempt burst per client (default 5)
  BASE_URL         Address printed in judge join links (default: LAN address)
  METRICS_ENABLED  Serve Prometheus metrics at /metrics (default true)

Keyboard Shortcuts (when enabled):
  h                Toggle HTTP request logging
  l                Cycle log level (debug → info → warn → error)
  q                Quit server
  ?                Show keyboard help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("auditionscore %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, flag.CommandLine, *port, *dbPath, *logLevel, *logFormat)

	appLog := logger.NewWithOptions(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
	})

	a, err := app.New(appLog, cfg)
	if err != nil {
		appLog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if !*noBanner {
		showBanner(a.BaseURL())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*noKeyboard {
		printKeyboardHelp(os.Stdout)
		go listenForKeyboard(ctx, &keyHandler{out: os.Stdout, log: appLog, quit: stop})
	}

	if err := a.Run(ctx); err != nil {
		appLog.Error("Server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
	appLog.Info("Server stopped")
}
