package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-graphalgo/pkg/algorithms"
	"github.com/dd0wney/cluso-graphalgo/pkg/config"
	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
	"github.com/dd0wney/cluso-graphalgo/pkg/logging"
	"github.com/dd0wney/cluso-graphalgo/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "graphalgo: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	algo        string
	input       string
	configPath  string
	output      string
	limit       int
	top         int
	metricsAddr string
	logLevel    string

	iterations  int
	damping     float64
	concurrency int
}

var algorithmNames = []string{"pagerank", "paths", "closeness"}

func parseFlags(args []string, stderr io.Writer) (options, map[string]bool, error) {
	var opts options
	fs := flag.NewFlagSet("graphalgo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.algo, "algo", "pagerank", "Algorithm to run: pagerank, paths or closeness")
	fs.StringVar(&opts.input, "input", "", "Edge list file, one \"src dst [weight]\" per line")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.output, "output", "", "Output file, stdout when empty; a .sz suffix writes snappy framed output")
	fs.IntVar(&opts.limit, "limit", 0, "Maximum number of shortest path results, 0 for all")
	fs.IntVar(&opts.top, "top", 10, "Number of ranked nodes to print, 0 for all")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fs.IntVar(&opts.iterations, "iterations", 0, "PageRank iterations")
	fs.Float64Var(&opts.damping, "damping", 0, "PageRank damping factor")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "Compute steps and BFS waves in flight, 0 = number of CPUs")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if opts.input == "" {
		fs.Usage()
		return options{}, nil, errors.New("-input is required")
	}
	if !slices.Contains(algorithmNames, opts.algo) {
		return options{}, nil, fmt.Errorf("unknown algorithm %q, want one of %s", opts.algo, strings.Join(algorithmNames, ", "))
	}
	return opts, set, nil
}

// loadConfig applies explicitly set flags on top of the config file
func loadConfig(opts options, set map[string]bool) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, err
		}
	}

	if set["iterations"] {
		cfg.PageRank.Iterations = opts.iterations
	}
	if set["damping"] {
		cfg.PageRank.DampingFactor = opts.damping
	}
	if set["concurrency"] {
		cfg.Concurrency = opts.concurrency
	}
	if set["log-level"] {
		cfg.LogLevel = strings.ToLower(opts.logLevel)
	}
	if set["metrics-addr"] {
		cfg.MetricsAddr = opts.metricsAddr
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, set, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts, set)
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(stderr, cfg.Level()).With(logging.Component("graphalgo"))
	logging.SetDefaultLogger(logger)

	reg := metrics.NewRegistry()
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer shutdown()
	}

	loadStart := time.Now()
	g, err := graph.LoadEdgeListFile(opts.input)
	if err != nil {
		return err
	}
	reg.RecordGraphLoad(g.NodeCount(), g.RelationshipCount(), time.Since(loadStart))
	logger.Info("graph loaded",
		logging.Path(opts.input),
		logging.NodeCount(g.NodeCount()),
		logging.Count(g.RelationshipCount()),
		logging.Bool("weighted", g.Weighted()))

	out, closeOut, err := openOutput(opts.output, stdout)
	if err != nil {
		return err
	}

	switch opts.algo {
	case "pagerank":
		err = runPageRank(ctx, g, cfg, opts.top, out, logger, reg)
	case "paths":
		err = runAllShortestPaths(ctx, g, cfg, opts.limit, out, logger, reg)
	case "closeness":
		err = runCloseness(ctx, g, cfg, opts.top, out, logger, reg)
	default:
		err = fmt.Errorf("unknown algorithm %q", opts.algo)
	}

	reg.SampleRuntime()
	return errors.Join(err, closeOut())
}

func runPageRank(ctx context.Context, g graph.Graph, cfg config.Config, top int, out io.Writer, logger logging.Logger, reg *metrics.Registry) error {
	pr, err := algorithms.NewPageRank(g, cfg.PageRankOptions(logger, reg))
	if err != nil {
		return err
	}
	defer pr.Close()

	if _, err := pr.Compute(ctx, cfg.PageRank.Iterations); err != nil {
		return err
	}
	return writeRanked(out, pr.TopNodes(topOrAll(top, g.NodeCount())))
}

func runCloseness(ctx context.Context, g graph.Graph, cfg config.Config, top int, out io.Writer, logger logging.Logger, reg *metrics.Registry) error {
	result, err := algorithms.ClosenessCentrality(ctx, g, cfg.ClosenessOptions(logger, reg))
	if err != nil {
		return err
	}
	return writeRanked(out, result.TopNodes(topOrAll(top, g.NodeCount())))
}

func runAllShortestPaths(ctx context.Context, g graph.Graph, cfg config.Config, limit int, out io.Writer, logger logging.Logger, reg *metrics.Registry) error {
	asp, err := algorithms.NewAllShortestPaths(g, cfg.AllShortestPathsOptions(logger, reg))
	if err != nil {
		return err
	}

	stream := asp.ResultStream(ctx)
	defer stream.Close()

	written := 0
	for stream.Next() {
		r := stream.Result()
		if _, err := fmt.Fprintf(out, "%d\t%d\t%d\n", r.SourceNodeID, r.TargetNodeID, r.Distance); err != nil {
			return err
		}
		written++
		if limit > 0 && written == limit {
			logger.Info("result limit reached", logging.Count(written))
			return nil
		}
	}
	return stream.Err()
}

func topOrAll(top, nodeCount int) int {
	if top <= 0 {
		return nodeCount
	}
	return top
}

func writeRanked(out io.Writer, nodes []algorithms.RankedNode) error {
	for _, n := range nodes {
		if _, err := fmt.Fprintf(out, "%d\t%.6f\n", n.NodeID, n.Score); err != nil {
			return err
		}
	}
	return nil
}

// openOutput returns a buffered writer for path, or for stdout when path
// is empty. Files ending in .sz are written in the snappy framing format.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		w := bufio.NewWriter(stdout)
		return w, w.Flush, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	if strings.HasSuffix(path, ".sz") {
		w := snappy.NewBufferedWriter(f)
		return w, func() error { return errors.Join(w.Close(), f.Close()) }, nil
	}

	w := bufio.NewWriter(f)
	return w, func() error { return errors.Join(w.Flush(), f.Close()) }, nil
}

// serveMetrics exposes the registry until the returned shutdown is called
func serveMetrics(addr string, reg *metrics.Registry, logger logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", logging.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
