package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marek-kar/genckl/pkg/config"
	"github.com/marek-kar/genckl/pkg/hostinfo"
	"github.com/marek-kar/genckl/pkg/logging"
	"github.com/marek-kar/genckl/pkg/model"
	"github.com/marek-kar/genckl/pkg/reconcile"
	"github.com/marek-kar/genckl/pkg/render"
	"github.com/marek-kar/genckl/pkg/stigzip"
	"github.com/marek-kar/genckl/pkg/template"
	"github.com/marek-kar/genckl/pkg/xccdf"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	output      string
	runCommands bool
	setHostData bool
	templates   []string
	format      string
	configPath  string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "genckl [flags] FILE...",
		Short:         "Generate a STIG Viewer checklist file",
		Long:          "Generate a STIG Viewer checklist from XCCDF benchmarks, SCAP results and STIG zip archives.",
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			// A closed stdout then surfaces as EPIPE instead of killing the process.
			signal.Ignore(syscall.SIGPIPE)

			err := run(ctx, opts, args, cmd.OutOrStdout())
			if quiet(ctx, err, opts.output) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output filename, - for stdout")
	cmd.Flags().BoolVarP(&opts.runCommands, "run-commands", "r", false, "enable template command execution")
	cmd.Flags().BoolVarP(&opts.setHostData, "set-hostdata", "s", false, "set checklist host data based on localhost")
	cmd.Flags().StringArrayVarP(&opts.templates, "template", "t", nil, "checklist template filename, can be given multiple times")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(render.FormatCKL), "output format: ckl, table or json")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.genckl/config.yaml)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.Flags().BoolP("version", "V", false, "print the version and exit")

	return cmd
}

func run(ctx context.Context, opts options, inputs []string, stdout io.Writer) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logging.Init(logging.Config{Level: level, Format: cfg.LogFormat})

	engine := reconcile.NewEngine(cfg.ChecklistAsset())
	parser := xccdf.NewParser()
	for _, in := range inputs {
		b, err := loadBenchmark(parser, in)
		if err != nil {
			return err
		}
		if !engine.Register(b) {
			log.Warn().Str("file", in).Str("stig", b.Key()).Msg("Benchmark already loaded, skipping")
			continue
		}
		log.Debug().Str("file", in).Int("vulns", len(b.Vulns)).Bool("results", b.HasResults).Msg("Loaded benchmark")
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	var exp reconcile.Expander
	if opts.runCommands {
		exp = cfg.Runner()
	}
	for _, path := range opts.templates {
		t, err := template.Load(path)
		if err != nil {
			return err
		}
		if err := engine.ApplyTemplate(ctx, t, exp); err != nil {
			return err
		}
	}

	if opts.setHostData {
		info, err := hostinfo.Collect(ctx, hostinfo.NewSystemSource())
		if err != nil {
			return fmt.Errorf("collect host data: %w", err)
		}
		engine.SetHostData(info)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	out := reconcile.ToWriter(stdout)
	if !toStdout(opts.output) {
		out = reconcile.ToPath(opts.output)
	}
	return engine.Write(out, render.New(format))
}

// loadBenchmark parses an XCCDF file or the benchmark inside a STIG zip.
func loadBenchmark(p *xccdf.Parser, path string) (*model.Benchmark, error) {
	if !strings.HasSuffix(path, ".zip") {
		return p.ParseFile(path)
	}
	name, rc, err := stigzip.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return p.Parse(rc, name)
}

func toStdout(output string) bool {
	return output == "" || output == "-"
}

// quiet reports whether err should end the run without a message: an
// interrupt, or the reader of stdout going away.
func quiet(ctx context.Context, err error, output string) bool {
	if err == nil {
		return false
	}
	if ctx.Err() != nil {
		return true
	}
	return toStdout(output) && errors.Is(err, syscall.EPIPE)
}
