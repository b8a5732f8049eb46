package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"invoiceprobe/internal/config"
	"invoiceprobe/internal/diagnostic"
	"invoiceprobe/internal/secrets"
)

func main() {
	var opts secrets.Options
	flag.StringVar(&opts.RepoDir, "repo", "", "Repository to configure (defaults to the current directory)")
	flag.BoolVar(&opts.Force, "force", false, "Overwrite existing git hooks")
	flag.BoolVar(&opts.Scan, "scan", false, "Scan the working tree once configured")
	flag.Parse()

	r := diagnostic.Start("setup-git-secrets", config.Load())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := secrets.Setup(ctx, secrets.ExecRunner{}, opts, r.Logger)
	stop()

	code := 0
	if err != nil {
		r.Logger.Error().Err(err).Msg("git-secrets setup failed")
		code = 1
	}
	r.Close()
	os.Exit(code)
}
