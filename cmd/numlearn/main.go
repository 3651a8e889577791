// Command numlearn は numlearn の各アルゴリズムをコマンドラインから実行します。
//
//	numlearn descent -objective parabola -start 3,4
//	numlearn regress -data spambase.data -header spambase.header
//	numlearn sgd -data train.csv -batch-size 10
//	numlearn coin -p 0.7743 -flips 200
//	numlearn kmeans -k 5 -seed 7
//	numlearn stats -data train.csv
//
// 全てのサブコマンドは -config (YAML)、-log-level、-metrics を受け付けます。
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/YuminosukeSato/numlearn/pkg/errors"
	"github.com/YuminosukeSato/numlearn/pkg/log"
	"github.com/YuminosukeSato/numlearn/pkg/telemetry"
)

// command はサブコマンドの定義です。flags でフラグを cfg に結び付け、
// run で実行します。
type command struct {
	summary string
	flags   func(fs *flag.FlagSet, cfg *Config)
	run     func(e *env) error
}

// env はサブコマンドの実行環境です。
type env struct {
	ctx      context.Context
	cfg      Config
	out      io.Writer
	logger   log.Logger
	recorder *telemetry.Recorder
}

var commands = map[string]command{
	"descent": {"minimise an objective with batch gradient descent", descentFlags, runDescent},
	"regress": {"fit linear regression on a CSV dataset", regressFlags, runRegress},
	"sgd":     {"train an SGD regressor in mini-batches", sgdFlags, runSGD},
	"coin":    {"evaluate the binomial loss of simulated coin flips", coinFlags, runCoin},
	"kmeans":  {"cluster 2-D points with k-means", kmeansFlags, runKMeans},
	"stats":   {"print per-feature statistics of a CSV dataset", statsFlags, runStats},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("numlearn failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return errors.New("no command given")
		}
		return flag.ErrHelp
	}

	name, rest := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		usage(stderr)
		return errors.Newf("unknown command %q", name)
	}

	cfg := DefaultConfig()
	if path := configPath(rest); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return err
		}
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config", "", "YAML experiment config; its values become flag defaults")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "print Prometheus metrics after the run")
	cmd.flags(fs, &cfg)
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return errors.Newf("%s: unexpected arguments %v", name, fs.Args())
	}

	if err := log.SetupLogger(cfg.LogLevel); err != nil {
		return err
	}

	e := &env{
		ctx:    ctx,
		cfg:    cfg,
		out:    stdout,
		logger: log.GetLogger().With(log.ComponentKey, "cli", log.OperationKey, name),
	}
	if cfg.Metrics {
		e.recorder = telemetry.NewRecorder()
	}

	if err := cmd.run(e); err != nil {
		return errors.Wrapf(err, "%s", name)
	}

	if e.recorder != nil {
		fmt.Fprintln(stdout)
		return e.recorder.WriteText(stdout)
	}
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: numlearn <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "run 'numlearn <command> -h' for the flags of a command")
}
