package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"inventorypro/internal/config"
	"inventorypro/internal/exporter"
	"inventorypro/internal/infrastructure"
	"inventorypro/internal/notify"
	"inventorypro/internal/page"
	"inventorypro/internal/validation"
)

const busyMessage = "Preparing export..."

type options struct {
	configFile string
	htmlFile   string
	tableID    string
	records    string
	headers    string
	outDir     string
	name       string
	format     string
	lineEnding string
	quoteAll   bool
	noBOM      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// run executes one export and returns the process exit code
func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "csvexport: %v\n", err)
		return 1
	}
	applyOverrides(cfg, opts)

	ctx = infrastructure.EnsureTraceID(ctx)
	logger := infrastructure.NewLogger(stderr, cfg.Logging.Level)
	logger.InfoContext(ctx, "Starting export",
		slog.String("html", opts.htmlFile),
		slog.String("table", opts.tableID),
		slog.String("records", opts.records),
		slog.String("output_dir", cfg.Export.OutputDir),
		slog.String("format", opts.format))

	files := validation.NewFileValidator(logger)
	if err := files.ValidateOutputDirectory(cfg.Export.OutputDir); err != nil {
		return 1
	}

	notifier := notify.NewLogNotifier(logger)
	expOpts := exporter.OptionsFromConfig(cfg.Export)
	expOpts.Logger = logger
	expOpts.Sink = exporter.NewFileSink(cfg.Export.OutputDir)
	exp := exporter.New(notifier, expOpts)

	var outcome exporter.Outcome
	err = notifier.WithBusyIndicator(ctx, busyMessage, func(ctx context.Context) error {
		var err error
		outcome, err = export(ctx, exp, files, opts, logger)
		return err
	})
	if err != nil {
		logger.Error("Export aborted", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("Export finished",
		slog.String("outcome", string(outcome)),
		slog.Int64("problems", notifier.Problems()))
	if outcome != exporter.OutcomeSuccess || notifier.Problems() > 0 {
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("csvexport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "config file (defaults to config.yaml lookup)")
	fs.StringVar(&opts.htmlFile, "html", "", "HTML file containing the table to export")
	fs.StringVar(&opts.tableID, "table", "", "id of the table element inside -html")
	fs.StringVar(&opts.records, "records", "", "JSON file holding an array of records")
	fs.StringVar(&opts.headers, "headers", "", "comma separated header row for -records")
	fs.StringVar(&opts.outDir, "out", "", "output directory (defaults to export.output_dir)")
	fs.StringVar(&opts.name, "name", "", "output filename; {timestamp} becomes today's date")
	fs.StringVar(&opts.format, "format", "csv", "csv | xlsx (xlsx only with -records)")
	fs.StringVar(&opts.lineEnding, "line-ending", "", "lf | crlf (defaults to export.line_terminator)")
	fs.BoolVar(&opts.quoteAll, "quote-all", false, "quote every field")
	fs.BoolVar(&opts.noBOM, "no-bom", false, "omit the UTF-8 byte order mark")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	switch {
	case opts.htmlFile != "" && opts.records != "":
		err := errors.New("-html and -records are mutually exclusive")
		fmt.Fprintf(stderr, "csvexport: %v\n", err)
		return opts, err
	case opts.htmlFile == "" && opts.records == "":
		err := errors.New("one of -html or -records is required")
		fmt.Fprintf(stderr, "csvexport: %v\n", err)
		fs.Usage()
		return opts, err
	case opts.htmlFile != "" && opts.tableID == "":
		err := errors.New("-table is required with -html")
		fmt.Fprintf(stderr, "csvexport: %v\n", err)
		return opts, err
	case opts.format != "csv" && opts.format != "xlsx":
		err := fmt.Errorf("unsupported format %q", opts.format)
		fmt.Fprintf(stderr, "csvexport: %v\n", err)
		return opts, err
	case opts.format == "xlsx" && opts.records == "":
		err := errors.New("-format xlsx needs -records")
		fmt.Fprintf(stderr, "csvexport: %v\n", err)
		return opts, err
	}

	opts.lineEnding = strings.ToLower(strings.TrimSpace(opts.lineEnding))
	switch opts.lineEnding {
	case "", "lf", "crlf":
	default:
		err := fmt.Errorf("unsupported line ending %q, want lf or crlf", opts.lineEnding)
		fmt.Fprintf(stderr, "csvexport: %v\n", err)
		return opts, err
	}
	return opts, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func applyOverrides(cfg *config.Config, opts options) {
	if opts.outDir != "" {
		cfg.Export.OutputDir = opts.outDir
	}
	if opts.lineEnding != "" {
		cfg.Export.LineTerminator = opts.lineEnding
	}
	if opts.quoteAll {
		cfg.Export.QuoteAll = true
	}
	if opts.noBOM {
		cfg.Export.BOM = false
	}
	if opts.name != "" {
		return
	}
	if opts.format == "xlsx" {
		cfg.Export.DefaultFilename = strings.TrimSuffix(cfg.Export.DefaultFilename, ".csv") + ".xlsx"
	}
}

func export(ctx context.Context, exp *exporter.TabularExporter, files *validation.FileValidator, opts options, logger *slog.Logger) (exporter.Outcome, error) {
	if opts.htmlFile != "" {
		if err := files.ValidateInputFile(opts.htmlFile, ".html", ".htm"); err != nil {
			return "", err
		}
		f, err := os.Open(opts.htmlFile)
		if err != nil {
			return "", err
		}
		defer f.Close()

		doc, err := page.Parse(f)
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", opts.htmlFile, err)
		}
		outcome := exp.WithSource(doc).ExportFromElement(ctx, opts.tableID, opts.name)
		if outcome == exporter.OutcomeNotFound {
			logger.WarnContext(ctx, "No table with that id",
				slog.String("table", opts.tableID),
				slog.Any("available_tables", doc.TableIDs()))
		}
		return outcome, nil
	}

	if err := files.ValidateInputFile(opts.records, ".json"); err != nil {
		return "", err
	}
	records, err := readRecords(opts.records)
	if err != nil {
		return "", err
	}
	headers := splitHeaders(opts.headers)
	if opts.format == "xlsx" {
		return exp.ExportRecordsXLSX(ctx, records, opts.name, headers...), nil
	}
	return exp.ExportFromRecords(ctx, records, opts.name, headers...), nil
}

func readRecords(path string) ([]exporter.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []exporter.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records from %s: %w", path, err)
	}
	return records, nil
}

func splitHeaders(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
