package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/wenqian/autobill/internal/bill"
	"github.com/wenqian/autobill/internal/extract"
	"github.com/wenqian/autobill/internal/fallback"
	"github.com/wenqian/autobill/internal/ocr"
	"github.com/wenqian/autobill/internal/queue"
	"github.com/wenqian/autobill/internal/watch"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("autobill")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "autobill.db", "Database file path")
		watchDir     = fs.StringLong("watch-dir", "", "Screenshot directory to watch (empty disables watching)")
		rulesPath    = fs.StringLong("rules", "", "JSON file overriding the built-in extraction rules")
		workers      = fs.IntLong("workers", 2, "Concurrent scan workers")
		fallbackType = fs.StringLong("fallback", "gemini", "AI fallback: 'gemini', 'chat' or 'none'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		chatURL      = fs.StringLong("chat-url", "https://api.deepseek.com/v1", "OpenAI-compatible chat API base URL")
		chatKey      = fs.StringLong("chat-key", "", "Chat API key (or set CHAT_API_KEY env var)")
		chatModel    = fs.StringLong("chat-model", "deepseek-chat", "Chat model name")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("AUTOBILL"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Extraction rules
	rules := extract.DefaultRules()
	if *rulesPath != "" {
		var err error
		rules, err = extract.LoadRules(*rulesPath)
		if err != nil {
			slog.Error("Failed to load rules", "path", *rulesPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded extraction rules", "path", *rulesPath)
	}
	engine, err := extract.New(rules)
	if err != nil {
		slog.Error("Failed to compile extraction rules", "error", err)
		os.Exit(1)
	}

	// Database
	slog.Info("Initializing database...")
	db, err := bill.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// OCR
	slog.Info("Initializing OCR...")
	recognizer, err := ocr.NewVision(ctx)
	if err != nil {
		slog.Error("Failed to initialize Vision OCR", "error", err)
		os.Exit(1)
	}
	defer recognizer.Close()

	// AI fallback
	var guesser fallback.Guesser
	switch *fallbackType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini fallback...", "model", *geminiModel)
		guesser, err = fallback.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "chat":
		apiKey := *chatKey
		if apiKey == "" {
			apiKey = os.Getenv("CHAT_API_KEY")
		}
		slog.Info("Initializing chat fallback...", "url", *chatURL, "model", *chatModel)
		guesser, err = fallback.NewChatClient(*chatURL, apiKey, *chatModel)
		if err != nil {
			slog.Error("Failed to initialize chat client", "error", err)
			os.Exit(1)
		}
	case "none":
		slog.Info("AI fallback disabled")
	default:
		slog.Error("Invalid fallback type", "type", *fallbackType, "valid", "gemini, chat or none")
		os.Exit(1)
	}
	if guesser != nil {
		defer guesser.Close()
	}

	// Service
	service := bill.NewService(db, recognizer, engine, guesser)

	// Work queue: one job per detected screenshot
	q := queue.New(64, *workers)
	if err := q.Start(ctx, func(ctx context.Context, job *queue.ScanJob) error {
		data, err := os.ReadFile(job.Path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", job.Path, err)
		}
		contentType := bill.ContentTypeForExt(filepath.Ext(job.Path))
		bills, err := service.CaptureImage(ctx, data, contentType)
		if err != nil {
			return err
		}
		slog.Info("Scan job finished", "job_id", job.ID, "path", job.Path, "bills", len(bills))
		return nil
	}); err != nil {
		slog.Error("Failed to start work queue", "error", err)
		os.Exit(1)
	}

	// Screenshot watcher
	if *watchDir != "" {
		watcher, err := watch.New(*watchDir, q)
		if err != nil {
			slog.Error("Failed to create watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Watcher stopped", "error", err)
			}
		}()
	}

	// HTTP server
	basicAuth := bill.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := bill.NewServer(service, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := q.Stop(stopCtx); err != nil {
		slog.Warn("Queue did not drain in time", "error", err)
	}
}
