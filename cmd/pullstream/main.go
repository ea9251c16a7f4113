// Command pullstream reads input through a chain of transforms and prints
// the result.
//
//	pullstream -i 'abcdEFGh' -t upper -t rot13
//	echo hello | pullstream -t upper -n 2
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/pullstream/config"
	"github.com/kbukum/pullstream/logger"
	"github.com/kbukum/pullstream/loop"
	"github.com/kbukum/pullstream/observability"
	"github.com/kbukum/pullstream/pipeline"
	"github.com/kbukum/pullstream/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	pf := pflag.NewFlagSet(config.DefaultName, pflag.ContinueOnError)
	pf.SetOutput(stderr)
	cfgFile := pf.StringP("config", "c", "", "Path to a YAML config file.")
	envFile := pf.String("env-file", "", "Path to a .env file.")
	pf.StringP("input", "i", "", "Literal input data.")
	pf.StringP("file", "f", "", "Read input from this file.")
	pf.StringSliceP("transform", "t", nil, "Transform to apply, in order (repeatable). One of: "+strings.Join(pipeline.TransformNames(), ", "))
	pf.IntP("read-size", "n", pipeline.DefaultReadSize, "Units requested per read.")
	pf.String("log-level", "warn", "Log level (trace, debug, info, warn, error, disabled).")
	showVersion := pf.Bool("version", false, "Print version and exit.")
	if err := pf.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String(config.DefaultName))
		return 0
	}

	cfg, err := config.Load(config.DefaultName, version.Short(),
		config.WithConfigFile(*cfgFile),
		config.WithEnvFile(*envFile),
		config.WithFlag("pipeline.input", pf.Lookup("input")),
		config.WithFlag("pipeline.input_file", pf.Lookup("file")),
		config.WithFlag("pipeline.transforms", pf.Lookup("transform")),
		config.WithFlag("pipeline.read_size", pf.Lookup("read-size")),
		config.WithFlag("logging.level", pf.Lookup("log-level")),
	)
	if err != nil {
		fmt.Fprintln(stderr, "ERR:", err)
		return 1
	}

	// Logs never share stdout with the result.
	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, stderr)

	data, err := readInput(cfg.Pipeline, pf.Changed("input"), stdin)
	if err != nil {
		log.Error("reading input", logger.Fields(logger.FieldError, err.Error()))
		return 1
	}

	providers, err := observability.Init(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Error("telemetry setup failed", logger.Fields(logger.FieldError, err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	inst, err := observability.NewInstruments(providers.Meter, providers.Tracer)
	if err != nil {
		log.Error("telemetry instruments failed", logger.Fields(logger.FieldError, err.Error()))
		return 1
	}

	out, err := execute(ctx, cfg, data, inst, log)
	if err != nil {
		log.Error("pipeline failed", logger.Fields(logger.FieldError, err.Error()))
		return 1
	}
	if _, err := stdout.Write(out); err != nil {
		log.Error("writing output", logger.Fields(logger.FieldError, err.Error()))
		return 1
	}
	return 0
}

// execute builds Source -> transforms -> Sink on a fresh loop and drives it.
func execute(ctx context.Context, cfg *config.Config, data []byte, inst *observability.Instruments, log *logger.Logger) ([]byte, error) {
	l := loop.New(loop.WithLogger(log))
	opts := []pipeline.Option{pipeline.WithLogger(log)}

	src := pipeline.NewSource(l, data, opts...)
	stage, err := pipeline.ChainNamed(l, src, cfg.Pipeline.Transforms, opts...)
	if err != nil {
		return nil, err
	}
	sink := pipeline.NewSink(l, stage, append(opts,
		pipeline.WithReadSize(cfg.Pipeline.ReadSize),
		pipeline.WithTelemetry(inst),
	)...)
	return pipeline.Drive(ctx, l, sink)
}

// readInput picks the input source. literal is set when --input was given on
// the command line, so an empty --input means empty data rather than stdin.
func readInput(cfg config.PipelineConfig, literal bool, stdin io.Reader) ([]byte, error) {
	switch {
	case literal || cfg.Input != "":
		return []byte(cfg.Input), nil
	case cfg.InputFile != "":
		return os.ReadFile(cfg.InputFile)
	default:
		return io.ReadAll(stdin)
	}
}
