// Package main 是 streamrec 命令行入口：按配置加载交互日志，
// 对每个模型执行一次增量评估，并打印汇总表。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/streamrec/config"
	_ "github.com/rushteam/streamrec/config/builders"
	"github.com/rushteam/streamrec/core"
	"github.com/rushteam/streamrec/dataset"
	"github.com/rushteam/streamrec/evaluator"
	"github.com/rushteam/streamrec/experiment"
	"github.com/rushteam/streamrec/metrics"
	"github.com/rushteam/streamrec/pkg/dsl"
	"github.com/rushteam/streamrec/pkg/logging"
	"github.com/rushteam/streamrec/report"
	"github.com/rushteam/streamrec/store"
)

var version = "dev"

type cliOptions struct {
	configPath string
	dataPath   string
	logLevel   string
	listTypes  bool
}

func main() {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "experiment.yaml", "experiment config file (yaml or json)")
	flag.StringVar(&opts.dataPath, "data", "", "override dataset.path from the config")
	flag.StringVar(&opts.logLevel, "log-level", "", "override log.level (trace, debug, info, warn, error)")
	flag.BoolVar(&opts.listTypes, "list-types", false, "print registered model types and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("streamrec", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "streamrec:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts cliOptions, stdout io.Writer) error {
	if opts.listTypes {
		for _, t := range config.SupportedTypes() {
			fmt.Fprintln(stdout, t)
		}
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.dataPath != "" {
		cfg.Dataset.Path = opts.dataPath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	train, test, stream, err := loadDataset(cfg, logger)
	if err != nil {
		return err
	}

	kv, err := store.Open(ctx, cfg.Store.Backend, cfg.Store.Addr, cfg.Store.DB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer kv.Close()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		collector = metrics.NewCollector(reg)
		shutdown := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer shutdown()
	}

	specs := make([]experiment.Spec, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		rec, err := config.Build(m.Type, m.Params)
		if err != nil {
			return fmt.Errorf("model %q: %w", m.Name, err)
		}
		var obs evaluator.Observer
		if collector != nil {
			obs = collector.ForModel(m.Name)
		}
		specs = append(specs, experiment.Spec{
			Name:        m.Name,
			Recommender: rec,
			Train:       train,
			Test:        test,
			Stream:      stream,
			NEpoch:      cfg.Evaluation.NEpoch,
			CanRepeat:   cfg.Evaluation.CanRepeat,
			Seed:        cfg.Evaluation.Seed,
			TopN:        cfg.Evaluation.TopN,
			Store:       kv,
			KeyPrefix:   cfg.Store.KeyPrefix,
			Observer:    obs,
			Logger:      logger,
		})
	}

	sums, err := experiment.RunAll(ctx, specs, cfg.Evaluation.MaxConcurrent)
	if err != nil {
		return err
	}
	if err := printSummaries(stdout, sums); err != nil {
		return err
	}

	// redis 后端会累积历史运行，排行榜跨多次执行
	board, err := report.Leaderboard(ctx, kv, cfg.Store.KeyPrefix, 10)
	if err != nil {
		return fmt.Errorf("read leaderboard: %w", err)
	}
	return printLeaderboard(stdout, board)
}

func loadDataset(cfg *config.Config, logger zerolog.Logger) (train, test, stream []core.Event, err error) {
	opts := cfg.DatasetOptions()
	if cfg.Dataset.Filter != "" {
		opts.Filter, err = dsl.NewEventFilter(cfg.Dataset.Filter)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("dataset filter: %w", err)
		}
	}
	opts.Users, opts.Items = dataset.NewIndexer(), dataset.NewIndexer()

	events, err := dataset.LoadFile(cfg.Dataset.Path, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	trainRatio, testRatio := cfg.Dataset.Ratios()
	train, test, stream, err = dataset.Split(events, trainRatio, testRatio)
	if err != nil {
		return nil, nil, nil, err
	}

	logger.Info().
		Str("path", cfg.Dataset.Path).
		Int("events", len(events)).
		Int("users", opts.Users.Len()).
		Int("items", opts.Items.Len()).
		Int("train", len(train)).
		Int("test", len(test)).
		Int("stream", len(stream)).
		Msg("dataset loaded")
	return train, test, stream, nil
}

// serveMetrics 在后台暴露 /metrics，返回关闭函数。
func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving prometheus metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func printSummaries(w io.Writer, sums []*report.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tRUN\tEVENTS\tBATCH MPR\tMPR\tMEAN RANK\tRECALL@N\tRECOMMEND\tUPDATE")
	for _, s := range sums {
		batch := "-"
		if mpr, ok := s.FinalBatchMPR(); ok {
			batch = fmt.Sprintf("%.2f", mpr)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\t%.2f\t%.4f@%d\t%s\t%s\n",
			s.Model, s.RunID, s.Count(), batch, s.MPR(), s.MeanRank(), s.Recall(), s.TopN,
			s.MeanRecommendTime(), s.MeanUpdateTime())
	}
	return tw.Flush()
}

func printLeaderboard(w io.Writer, board []report.Entry) error {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMODEL\tRUN\tMPR")
	for i, e := range board {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\n", i+1, e.Model, e.RunID, e.MPR)
	}
	return tw.Flush()
}
