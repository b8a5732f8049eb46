package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"

	"invoiceprobe/internal/config"
	"invoiceprobe/internal/diagnostic"
	"invoiceprobe/internal/fixtures"
	"invoiceprobe/internal/models"
	"invoiceprobe/internal/openai"
)

const command = "openai-classify"

type options struct {
	emlPath string
	ping    bool
	notify  bool
	history int
}

func main() {
	var opts options
	flag.StringVar(&opts.emlPath, "eml", "", "Also classify an EML file or every EML file in a directory")
	flag.BoolVar(&opts.ping, "ping", false, "Verify the API key by listing models before classifying")
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

	client, err := openai.NewClient(cfg, r.Logger)
	if err != nil {
		r.Logger.Error().Err(err).Msg("Set OPENAI_API_KEY in the environment or a .env file")
		return 1
	}

	if opts.ping {
		if err := client.TestConnection(ctx); err != nil {
			r.Logger.Error().Err(err).Msg("OpenAI connection test failed")
			return 1
		}
	}

	r.EnableAnalytics(cfg)
	r.Logger.Info().Str("model", client.Model()).Msg("Classifying fixtures")

	for _, c := range fixtures.Cases() {
		if ctx.Err() != nil {
			r.Logger.Warn().Msg("Interrupted")
			return r.Finish(stdout, nil)
		}
		expect := c.Expect
		r.Record(client.ClassifyInvoice(ctx, c.Sample), &expect)
	}

	if opts.emlPath != "" {
		samples, err := diagnostic.LoadSamples(opts.emlPath)
		if err != nil {
			r.RecordLoadError(models.ProviderOpenAI, client.Model(), opts.emlPath, err)
		}
		for _, sample := range samples {
			r.Record(client.ClassifyInvoice(ctx, sample), nil)
		}
	}

	var notifier diagnostic.Notifier
	if opts.notify {
		notifier = r.Notifier(cfg)
	}
	return r.Finish(stdout, notifier)
}
