package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"text/tabwriter"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/dynamize"
	"github.com/hupe1980/dynamize/blobstore"
	"github.com/hupe1980/dynamize/checkpoint"
	"github.com/hupe1980/dynamize/codec"
	"github.com/hupe1980/dynamize/metrics/prom"
	"github.com/hupe1980/dynamize/resource"
	"github.com/hupe1980/dynamize/sortedvec"
	"github.com/hupe1980/dynamize/strategy"
)

type runConfig struct {
	strategy    string
	n           int
	deleteRatio float64
	seed        uint64
	threshold   float64
	noRebuild   bool
	parallel    int
	batch       int
	logLevel    string
	jsonOut     bool

	checkpointDir string
	codec         string
	compression   string
	ioLimit       int64

	metricsAddr string
}

// report is what run prints.
type report struct {
	Stats      dynamize.Stats             `json:"stats"`
	Metrics    dynamize.BasicMetricsStats `json:"metrics"`
	Elapsed    time.Duration              `json:"elapsed_ns"`
	Checkpoint *checkpoint.Manifest       `json:"checkpoint,omitempty"`
	Restored   *dynamize.Stats            `json:"restored,omitempty"`
}

func newRunCmd() *cobra.Command {
	cfg := runConfig{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a random insert/delete workload on a sorted-vector container",
		Example: `  dynabench run --strategy skew-binary -n 100000 --delete-ratio 0.6
  dynabench run -n 10000 --checkpoint-dir /tmp/ckpt --compression lz4
  dynabench run -n 1000000 --metrics-addr :2112`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.strategy, "strategy", "binary", fmt.Sprintf("merge strategy %v", strategy.Names()))
	f.IntVarP(&cfg.n, "num", "n", 10000, "number of insertions")
	f.Float64Var(&cfg.deleteRatio, "delete-ratio", 0, "probability of deleting a random live element after each insert")
	f.Uint64Var(&cfg.seed, "seed", 1, "random seed")
	f.Float64Var(&cfg.threshold, "threshold", 0, "rebuild threshold in (0,1]; 0 uses the strategy default")
	f.BoolVar(&cfg.noRebuild, "no-rebuild", false, "disable automatic global rebuilds")
	f.IntVar(&cfg.parallel, "parallel", 1, "query parallelism")
	f.IntVar(&cfg.batch, "batch", 0, "insert in batches of this size (0 inserts one at a time)")
	f.StringVar(&cfg.logLevel, "log-level", "", "log to stderr at this level (debug, info, warn, error)")
	f.BoolVar(&cfg.jsonOut, "json", false, "print the report as JSON")
	f.StringVar(&cfg.checkpointDir, "checkpoint-dir", "", "save a checkpoint here and verify it restores")
	f.StringVar(&cfg.codec, "codec", codec.Default.Name(), fmt.Sprintf("checkpoint codec %v", codec.Names()))
	f.StringVar(&cfg.compression, "compression", string(checkpoint.CompressionZstd), "checkpoint compression (none, zstd, lz4)")
	f.Int64Var(&cfg.ioLimit, "io-limit", 0, "checkpoint IO limit in bytes/sec (0 is unlimited)")
	f.StringVar(&cfg.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address until interrupted")
	return cmd
}

func run(ctx context.Context, out io.Writer, cfg runConfig) error {
	if cfg.n < 0 {
		return fmt.Errorf("-n must be non-negative, got %d", cfg.n)
	}
	if cfg.deleteRatio < 0 || cfg.deleteRatio > 1 {
		return fmt.Errorf("--delete-ratio must be in [0,1], got %v", cfg.deleteRatio)
	}

	s, err := strategy.ByName(cfg.strategy)
	if err != nil {
		return err
	}

	basic := &dynamize.BasicMetricsCollector{}
	var collector dynamize.MetricsCollector = basic

	var srv *http.Server
	if cfg.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector = teeCollector{basic, prom.New(reg)}
		srv = &http.Server{
			Addr:              cfg.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(out, "metrics server: %v\n", err)
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	opts := []dynamize.Option{
		dynamize.WithStrategy(s),
		dynamize.WithQueryParallelism(cfg.parallel),
		dynamize.WithMetricsCollector(collector),
	}
	if cfg.threshold > 0 {
		opts = append(opts, dynamize.WithRebuildThreshold(cfg.threshold))
	}
	if cfg.noRebuild {
		opts = append(opts, dynamize.WithoutRebuild())
	}
	if cfg.logLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		opts = append(opts, dynamize.WithLogger(dynamize.NewTextLogger(level)))
	}

	c, err := sortedvec.NewContainer(cmp.Compare[int], opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := workload(ctx, c, cfg); err != nil {
		return err
	}

	rep := report{
		Stats:   c.Stats(),
		Metrics: basic.GetStats(),
		Elapsed: time.Since(start),
	}

	if cfg.checkpointDir != "" {
		if err := verifyCheckpoint(ctx, c, cfg, &rep); err != nil {
			return err
		}
	}

	if err := printReport(out, rep, cfg.jsonOut); err != nil {
		return err
	}

	if srv != nil {
		fmt.Fprintf(out, "serving metrics on %s, interrupt to exit\n", cfg.metricsAddr)
		<-ctx.Done()
	}
	return nil
}

// workload inserts random values and, with probability deleteRatio after
// each insert, deletes a random live one. It checks the container against
// the model before returning.
func workload(ctx context.Context, c *sortedvec.Container[int], cfg runConfig) error {
	rng := rand.New(rand.NewPCG(cfg.seed, 0))
	live := make([]int, 0, cfg.n)
	pending := make([]int, 0, cfg.batch)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := c.InsertBatch(pending); err != nil {
			return err
		}
		pending = pending[:0]
		return nil
	}

	for i := range cfg.n {
		if i%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}

		x := rng.IntN(cfg.n*4 + 1)
		live = append(live, x)
		if cfg.batch > 0 {
			pending = append(pending, x)
			if len(pending) < cfg.batch {
				continue
			}
			if err := flush(); err != nil {
				return err
			}
		} else if err := c.Insert(x); err != nil {
			return err
		}

		if cfg.deleteRatio > 0 && rng.Float64() < cfg.deleteRatio {
			if err := flush(); err != nil {
				return err
			}
			j := rng.IntN(len(live))
			if err := c.Delete(live[j]); err != nil {
				return fmt.Errorf("delete %d: %w", live[j], err)
			}
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	if err := flush(); err != nil {
		return err
	}

	all, err := c.Query(sortedvec.All[int](), sortedvec.MergeSorted(cmp.Compare[int]))
	if err != nil {
		return err
	}
	if len(all) != len(live) || c.Live() != len(live) {
		return fmt.Errorf("container holds %d elements (query %d), model %d", c.Live(), len(all), len(live))
	}
	return nil
}

func verifyCheckpoint(ctx context.Context, c *sortedvec.Container[int], cfg runConfig, rep *report) error {
	cd, ok := codec.ByName(cfg.codec)
	if !ok {
		return fmt.Errorf("unknown codec %q (available: %v)", cfg.codec, codec.Names())
	}

	var rc *resource.Controller
	if cfg.ioLimit > 0 {
		rc = resource.NewController(resource.Config{IOLimitBytesPerSec: cfg.ioLimit})
	}
	ckptOpts := []checkpoint.Option{
		checkpoint.WithCodec(cd),
		checkpoint.WithCompression(checkpoint.Compression(cfg.compression)),
		checkpoint.WithResourceController(rc),
	}

	store := blobstore.NewLocalStore(cfg.checkpointDir)
	m, err := checkpoint.SaveContainer(ctx, store, c, ckptOpts...)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	restored, err := checkpoint.RestoreWith(ctx, store, sortedvec.New(cmp.Compare[int]), ckptOpts)
	if err != nil {
		return fmt.Errorf("restore checkpoint: %w", err)
	}
	if restored.Live() != c.Live() {
		return fmt.Errorf("restored %d elements, saved %d", restored.Live(), c.Live())
	}

	st := restored.Stats()
	rep.Checkpoint = m
	rep.Restored = &st
	return nil
}

func printReport(out io.Writer, rep report, asJSON bool) error {
	if asJSON {
		data, err := gojson.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	st := rep.Stats
	fmt.Fprintf(tw, "strategy\t%s\n", st.Strategy)
	fmt.Fprintf(tw, "elapsed\t%s\n", rep.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(tw, "live / len\t%d / %d\n", st.Live, st.Len)
	fmt.Fprintf(tw, "dead weight\t%d\n", st.DeadWeight)
	fmt.Fprintf(tw, "blocks\t%d over %d levels\n", st.Blocks, st.Levels)
	fmt.Fprintf(tw, "digits\t%s\n", st.Digits)
	fmt.Fprintf(tw, "merged\t%d (max %d, max blocks consumed %d)\n", st.Merged, st.MaxMerged, st.MaxConsumed)
	fmt.Fprintf(tw, "rebuilds\t%d\n", st.Rebuilds)
	fmt.Fprintf(tw, "avg insert\t%s\n", time.Duration(rep.Metrics.InsertAvgNanos))
	fmt.Fprintf(tw, "avg query\t%s over %d blocks\n", time.Duration(rep.Metrics.QueryAvgNanos), rep.Metrics.QueryAvgBlocks)
	if rep.Checkpoint != nil {
		fmt.Fprintf(tw, "checkpoint\t%s (%d elements, %d bytes, %s/%s)\n",
			rep.Checkpoint.ID, rep.Checkpoint.Count, rep.Checkpoint.DataSize, rep.Checkpoint.Codec, rep.Checkpoint.Compression)
		fmt.Fprintf(tw, "restored\t%d live in %d blocks\n", rep.Restored.Live, rep.Restored.Blocks)
	}
	return tw.Flush()
}

// teeCollector forwards to every collector.
type teeCollector []dynamize.MetricsCollector

func (t teeCollector) RecordInsert(merged int, d time.Duration, err error) {
	for _, c := range t {
		c.RecordInsert(merged, d, err)
	}
}

func (t teeCollector) RecordBatchInsert(count, merged int, d time.Duration, err error) {
	for _, c := range t {
		c.RecordBatchInsert(count, merged, d, err)
	}
}

func (t teeCollector) RecordQuery(blocks int, d time.Duration, err error) {
	for _, c := range t {
		c.RecordQuery(blocks, d, err)
	}
}

func (t teeCollector) RecordDelete(d time.Duration, err error) {
	for _, c := range t {
		c.RecordDelete(d, err)
	}
}

func (t teeCollector) RecordRebuild(live int, d time.Duration, err error) {
	for _, c := range t {
		c.RecordRebuild(live, d, err)
	}
}
