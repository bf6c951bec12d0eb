// Command acai-report computes a dashboard or an export from a sales file
// without starting the server.
//
//	acai-report -in vendas.csv -store "Loja Centro" -date-from 2024-01-01
//	acai-report -in vendas.xlsx -view top_products
//	acai-report -in vendas.csv -format xlsx -out relatorio.xlsx
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"acaipulse/internal/analytics"
	"acaipulse/internal/config"
	"acaipulse/internal/dataset"
	"acaipulse/internal/exporter"
	"acaipulse/internal/filters"
	"acaipulse/internal/infrastructure"
	"acaipulse/internal/middleware"
	"acaipulse/internal/services"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "acai-report:", err)
		}
		os.Exit(1)
	}
}

type options struct {
	configFile string
	in         string
	out        string
	format     string
	view       string
	logLevel   string
	query      url.Values
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("acai-report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{query: url.Values{}}
	fs.StringVar(&opts.configFile, "config", "", "config file (defaults to ACAI_CONFIG_FILE or ./config.yaml)")
	fs.StringVar(&opts.in, "in", "", "sales file (.csv or .xlsx); defaults to the configured dataset")
	fs.StringVar(&opts.out, "out", "", "output file; stdout when empty")
	fs.StringVar(&opts.format, "format", "json", "json, csv or xlsx")
	fs.StringVar(&opts.view, "view", "", "print a single view instead of the whole dashboard (json only)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	// selection flags mirror the HTTP query parameters
	for _, name := range []string{
		filters.StageStore, filters.StageNeighborhood, filters.StageWeekday,
		filters.StageProduct, filters.StageCategory, filters.StageChannel,
		filters.StagePayment, filters.StageCustomerType, filters.StageWeather,
	} {
		fs.Func(flagName(name), name+" value, repeat the flag for more", func(v string) error {
			opts.query.Add(name, v)
			return nil
		})
	}
	for _, name := range []string{"date_from", "date_to", "hour_from", "hour_to"} {
		fs.Func(flagName(name), name+" bound", func(v string) error {
			opts.query.Set(name, v)
			return nil
		})
	}
	fs.BoolFunc("promotion-only", "only sales with a promotion", func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		opts.query.Set("promotion_only", strconv.FormatBool(b))
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.view != "" && opts.format != "json" {
		return nil, fmt.Errorf("-view only works with -format json")
	}
	return opts, nil
}

func flagName(param string) string {
	return strings.ReplaceAll(param, "_", "-")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	var cfg *config.Config
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	path := cfg.Dataset.Path
	if opts.in != "" {
		path = opts.in
	}

	logger := infrastructure.NewLogger(stderr, opts.logLevel)

	req := filters.ParseQuery(opts.query)
	if err := middleware.NewValidationMiddleware(logger, nil).ValidateStruct(req); err != nil {
		return err
	}
	sel, err := req.Selection()
	if err != nil {
		return err
	}

	svc := services.NewDashboardService(path, services.DashboardDeps{
		Loader: dataset.NewLoader(dataset.Options{
			Delimiter: cfg.DelimiterRune(),
			Locale:    cfg.FormatLocale(),
			Sheet:     cfg.Dataset.Sheet,
		}, logger, nil),
		Aggregator: analytics.NewAggregator(logger, analytics.Config{Locale: cfg.FormatLocale()}),
		Exporter: exporter.New(exporter.Options{
			Locale:    cfg.FormatLocale(),
			Delimiter: cfg.DelimiterRune(),
		}, logger, nil),
		Logger: logger,
	})

	render := func(w io.Writer) error {
		if opts.format == "json" {
			var result interface{}
			if opts.view != "" {
				result, err = svc.View(ctx, opts.view, sel)
			} else {
				result, err = svc.Dashboard(ctx, sel)
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		f, err := exporter.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		n, err := svc.Export(ctx, w, f, sel)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "export written", slog.String("format", f), slog.Int("rows", n))
		return nil
	}

	if opts.out == "" {
		return render(stdout)
	}
	return writeFile(opts.out, render)
}

// writeFile renders into a temporary file next to path and renames it into
// place only on success, so a failed run leaves no partial output.
func writeFile(path string, render func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriter(tmp)
	if err := render(buf); err != nil {
		tmp.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
