package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"invoiceprobe/internal/config"
	"invoiceprobe/internal/diagnostic"
	"invoiceprobe/internal/fixtures"
	"invoiceprobe/internal/gemini"
	"invoiceprobe/internal/models"
	"invoiceprobe/internal/prompts"
)

const command = "gemini-confidence"

type options struct {
	style   string
	emlPath string
	notify  bool
	history int
}

func main() {
	var opts options
	flag.StringVar(&opts.style, "style", "all", "Prompt style: metadata, content, keywords or all")
	flag.StringVar(&opts.emlPath, "eml", "", "Also classify an EML file or every EML file in a directory")
	flag.BoolVar(&opts.notify, "notify", false, "E-mail the summary via SendGrid")
	flag.IntVar(&opts.history, "history", 0, "Print the last N persisted runs and exit (requires DATABASE_URL)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, config.Load(), opts, os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer) int {
	r := diagnostic.Start(command, cfg)
	defer r.Close()

	if opts.history > 0 {
		r.EnableAnalytics(cfg)
		if err := r.PrintHistory(stdout, opts.history); err != nil {
			r.Logger.Error().Err(err).Msg("Failed to load history")
			return 1
		}
		return 0
	}

	if err := cfg.RequireGeminiKey(); err != nil {
		r.Logger.Error().Err(err).Msg("Set GEMINI_API_KEY in the environment or a .env file")
		return 1
	}

	styles, err := selectStyles(opts.style)
	if err != nil {
		r.Logger.Error().Err(err).Msg("Invalid -style")
		return 2
	}

	client, err := gemini.NewClient(cfg.GeminiKey, cfg.GeminiModel,
		gemini.WithBaseURL(cfg.GeminiBaseURL),
		gemini.WithTimeout(cfg.Timeout()),
		gemini.WithLogger(r.Logger),
	)
	if err != nil {
		r.Logger.Error().Err(err).Msg("Failed to create Gemini client")
		return 1
	}

	r.EnableAnalytics(cfg)
	r.Logger.Info().Str("model", client.Model()).Int("styles", len(styles)).Msg("Classifying fixtures")

	for _, c := range fixtures.Cases() {
		expect := c.Expect
		for _, style := range styles {
			if ctx.Err() != nil {
				r.Logger.Warn().Msg("Interrupted")
				return r.Finish(stdout, nil)
			}
			r.Record(client.ClassifyConfidence(ctx, c.Sample, style), &expect)
		}
	}

	if opts.emlPath != "" {
		samples, err := diagnostic.LoadSamples(opts.emlPath)
		if err != nil {
			r.RecordLoadError(models.ProviderGemini, client.Model(), opts.emlPath, err)
		}
		for _, sample := range samples {
			for _, style := range styles {
				r.Record(client.ClassifyConfidence(ctx, sample, style), nil)
			}
		}
	}

	var notifier diagnostic.Notifier
	if opts.notify {
		notifier = r.Notifier(cfg)
	}
	return r.Finish(stdout, notifier)
}

func selectStyles(value string) ([]prompts.Style, error) {
	if value == "" || value == "all" {
		return prompts.Styles, nil
	}
	style, err := prompts.ParseStyle(value)
	if err != nil {
		return nil, fmt.Errorf("-style: %w", err)
	}
	return []prompts.Style{style}, nil
}
