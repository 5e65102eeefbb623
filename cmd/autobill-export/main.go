package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/wenqian/autobill/internal/bill"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// autobill-export works directly against the capture daemon's database
// file, so exports and summaries are available without a running server.
func main() {
	fs := ff.NewFlagSet("autobill-export")
	var (
		dbPath      = fs.StringLong("db", "autobill.db", "Database file path")
		outPath     = fs.StringLong("out", "bills.xlsx", "Output XLSX file path")
		summaryDays = fs.IntLong("summary", 0, "Print a per-day spending summary for the last N days instead of exporting")
		showVersion = fs.BoolLong("version", "Show version information")
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

	db, err := bill.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Offline tool: no OCR, no rule engine, no fallback
	service := bill.NewService(db, nil, nil, nil)

	if *summaryDays > 0 {
		summary, err := service.Summarize(*summaryDays)
		if err != nil {
			slog.Error("Failed to summarize bills", "error", err)
			os.Exit(1)
		}
		for _, day := range summary {
			fmt.Printf("%s  %8.2f  (%d bills)\n", day.Date, float64(day.Total)/100, day.Count)
		}
		return
	}

	data, err := service.ExportXLSX()
	if err != nil {
		slog.Error("Failed to export bills", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		slog.Error("Failed to write export file", "path", *outPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Bills exported", "path", *outPath)
}
