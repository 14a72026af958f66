package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"

	"math-feedback/api/internal/analyze"
	"math-feedback/api/internal/config"
	"math-feedback/api/internal/form"
	"math-feedback/api/internal/render"
)

// Exit codes for the CLI.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type options struct {
	text    string
	file    string
	baseURL string
	noColor bool
}

func main() {
	code, err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
	}
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.text, "text", "", "problem in LaTeX")
	fs.StringVar(&o.file, "file", "", "path to an image of the problem")
	fs.StringVar(&o.baseURL, "base-url", "", "analysis service origin (overrides ANALYZE_BASE_URL)")
	fs.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// run collects the input once, submits it and prints the rendered result.
func run(args []string, stdout, stderr io.Writer) (int, error) {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return exitConfig, err
	}
	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	baseURL := lo.Ternary(opts.baseURL != "", opts.baseURL, cfg.AnalyzeBaseURL)
	client := analyze.New(baseURL, cfg.AnalyzeTimeout, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := form.NewSession(ctx, client, log)
	defer s.Close()

	s.SetText(opts.text)
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return exitConfig, fmt.Errorf("read %s: %w", opts.file, err)
		}
		up := analyze.NewUpload(opts.file, "", data)
		if !up.IsImage() {
			fmt.Fprintf(stderr, "warning: %s does not look like an image (%s), sending anyway\n", up.Name, up.MIME)
		}
		s.SetFile(up)
	}

	res, ok := s.Submit()
	if !ok {
		return exitRuntime, fmt.Errorf("submission interrupted")
	}

	colorize := !opts.noColor && color.SupportColor()
	if err := render.Text(stdout, res, colorize); err != nil {
		return exitRuntime, err
	}
	return lo.Ternary(res.Success, exitOK, exitRuntime), nil
}
