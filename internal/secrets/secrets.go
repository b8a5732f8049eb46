package secrets

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Patterns rejected by the hook
const (
	GoogleAPIKeyPattern = `AIza[0-9A-Za-z_\-]{35}`
	OpenAIKeyPattern    = `sk-[A-Za-z0-9_\-]{20,}`
)

// ErrNotInstalled is returned when the git-secrets extension is missing
var ErrNotInstalled = errors.New("git-secrets is not installed (see https://github.com/awslabs/git-secrets#installing-git-secrets)")

// ProhibitedPatterns are the provider key formats registered with --add
var ProhibitedPatterns = []string{GoogleAPIKeyPattern, OpenAIKeyPattern}

// AllowedPatterns whitelist the placeholders shipped in .env.example
var AllowedPatterns = []string{
	`GEMINI_API_KEY=your-gemini-api-key`,
	`OPENAI_API_KEY=your-openai-api-key`,
}

// Runner executes a command in a directory and returns its combined output
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Options controls Setup
type Options struct {
	RepoDir string // working tree to configure, "" for the current directory
	Force   bool   // overwrite existing hooks
	Scan    bool   // scan the working tree after configuring
}

// Setup installs the git-secrets hooks and registers the provider key patterns.
// Patterns already present in the repository configuration are skipped, so
// running it twice is harmless. The first failing step aborts.
func Setup(ctx context.Context, runner Runner, opts Options, logger zerolog.Logger) error {
	s := &setup{ctx: ctx, runner: runner, dir: opts.RepoDir, logger: logger}

	if _, err := s.git("check repository", "rev-parse", "--show-toplevel"); err != nil {
		return err
	}

	existing, err := s.runner.Run(ctx, s.dir, "git", "secrets", "--list")
	if err != nil {
		if strings.Contains(string(existing), "not a git command") {
			return ErrNotInstalled
		}
		return fmt.Errorf("list git-secrets configuration: %w: %s", err, strings.TrimSpace(string(existing)))
	}
	configured := string(existing)

	install := []string{"secrets", "--install"}
	if opts.Force {
		install = append(install, "-f")
	}
	if _, err := s.git("install hooks", install...); err != nil {
		return err
	}

	if strings.Contains(configured, "--aws-provider") {
		logger.Info().Msg("AWS patterns already registered")
	} else if _, err := s.git("register AWS patterns", "secrets", "--register-aws"); err != nil {
		return err
	}

	for _, pattern := range ProhibitedPatterns {
		if strings.Contains(configured, pattern) {
			logger.Info().Str("pattern", pattern).Msg("Prohibited pattern already registered")
			continue
		}
		if _, err := s.git("add prohibited pattern", "secrets", "--add", pattern); err != nil {
			return err
		}
	}

	for _, pattern := range AllowedPatterns {
		if strings.Contains(configured, pattern) {
			logger.Info().Str("pattern", pattern).Msg("Allowed pattern already registered")
			continue
		}
		if _, err := s.git("add allowed pattern", "secrets", "--add", "--allowed", pattern); err != nil {
			return err
		}
	}

	if opts.Scan {
		if _, err := s.git("scan working tree", "secrets", "--scan"); err != nil {
			return err
		}
	}

	logger.Info().Msg("git-secrets configured")
	return nil
}

type setup struct {
	ctx    context.Context
	runner Runner
	dir    string
	logger zerolog.Logger
}

// git runs one named step and logs it
func (s *setup) git(step string, args ...string) ([]byte, error) {
	s.logger.Info().Str("step", step).Strs("args", args).Msg("Running git")

	out, err := s.runner.Run(s.ctx, s.dir, "git", args...)
	if err != nil {
		s.logger.Error().Err(err).Str("step", step).Str("output", strings.TrimSpace(string(out))).Msg("Step failed")
		return out, fmt.Errorf("%s: %w: %s", step, err, strings.TrimSpace(string(out)))
	}
	return out, nil
}
