package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"invoiceprobe/internal/config"
	"invoiceprobe/internal/diagnostic"
	"invoiceprobe/internal/gemini"
)

const command = "gemini-models"

func main() {
	all := flag.Bool("all", false, "Also list models that do not support generateContent")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, config.Load(), *all, os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, all bool, stdout io.Writer) int {
	r := diagnostic.Start(command, cfg)
	defer r.Close()

	if err := cfg.RequireGeminiKey(); err != nil {
		r.Logger.Error().Err(err).Msg("Set GEMINI_API_KEY in the environment or a .env file")
		return 1
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

	list, version, err := client.ListModels(ctx)
	if err != nil {
		r.Logger.Error().Err(err).Msg("Failed to list models")
		return 1
	}

	r.Logger.Info().Str("api_version", version).Int("models", len(list)).Msg("Models listed")

	configured := false
	fmt.Fprintf(stdout, "Models available via %s:\n", version)
	for _, m := range list {
		name := strings.TrimPrefix(m.Name, "models/")
		if name == client.Model() {
			configured = true
		}
		if !all && !m.SupportsGenerateContent() {
			continue
		}
		marker := " "
		if m.SupportsGenerateContent() {
			marker = "*"
		}
		fmt.Fprintf(stdout, "  %s %-40s %s\n", marker, name, m.DisplayName)
	}
	fmt.Fprintln(stdout, "\n* supports generateContent")

	if !configured {
		r.Logger.Warn().Str("model", client.Model()).Str("api_version", version).Msg("Configured GEMINI_MODEL is not listed")
		return 1
	}
	return 0
}
