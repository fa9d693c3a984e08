package dynamize

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/dynamize/resource"
	"github.com/hupe1980/dynamize/strategy"
)

// DefaultMaxLevels bounds the digit vector of a container.
const DefaultMaxLevels = strategy.MaxLevel

type options struct {
	strategy         strategy.Strategy
	threshold        float64 // 0 selects the strategy's threshold
	noRebuild        bool
	maxLevels        int
	queryParallelism int
	queryCacheSize   int
	rc               *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Container.
type Option func(*options)

// WithStrategy selects the numeral system used to decompose the collection.
//
// If nil is passed, strategy.Binary is used.
func WithStrategy(s strategy.Strategy) Option {
	return func(o *options) {
		if s == nil {
			s = strategy.Binary{}
		}
		o.strategy = s
	}
}

// WithRebuildThreshold sets the fraction of dead rows that triggers a global
// rebuild after a deletion. It must lie in (0, 1].
//
// Example:
//
//	// Rebuild once a quarter of all rows are dead.
//	c, _ := dynamize.New(cap, dynamize.WithRebuildThreshold(0.25))
func WithRebuildThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

// WithoutRebuild disables automatic global rebuilds. Dead rows accumulate
// until Rebuild is called.
func WithoutRebuild() Option {
	return func(o *options) {
		o.noRebuild = true
	}
}

// WithMaxLevels caps the number of levels. Insertions needing more levels
// fail with ErrCapacityOverflow.
func WithMaxLevels(n int) Option {
	return func(o *options) {
		o.maxLevels = n
	}
}

// WithQueryParallelism queries up to n blocks concurrently.
// Values <= 1 query blocks one after another.
func WithQueryParallelism(n int) Option {
	return func(o *options) {
		o.queryParallelism = n
	}
}

// WithQueryCache caches up to size query results per container. Only queries
// implementing CacheKeyer are cached; entries are keyed by snapshot version so
// every mutation invalidates them.
func WithQueryCache(size int) Option {
	return func(o *options) {
		o.queryCacheSize = size
	}
}

// WithResourceController bounds build concurrency and staged elements.
// Global rebuilds build blocks in parallel up to the controller's limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &dynamize.BasicMetricsCollector{}
//	c, _ := dynamize.New(cap, dynamize.WithMetricsCollector(metrics))
//	// ... use c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Max merge: %d\n", stats.InsertCount, stats.MaxMerged)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := dynamize.NewJSONLogger(slog.LevelInfo)
//	c, _ := dynamize.New(cap, dynamize.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) (options, error) {
	o := options{
		strategy:         strategy.Binary{},
		maxLevels:        DefaultMaxLevels,
		queryParallelism: 1,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	if o.threshold == 0 {
		o.threshold = strategy.ThresholdOf(o.strategy)
	}
	if o.threshold <= 0 || o.threshold > 1 {
		return o, fmt.Errorf("%w: rebuild threshold %v not in (0, 1]", ErrInvalidArgument, o.threshold)
	}
	if o.maxLevels <= 0 || o.maxLevels > strategy.MaxLevel {
		return o, fmt.Errorf("%w: max levels %d not in [1, %d]", ErrInvalidArgument, o.maxLevels, strategy.MaxLevel)
	}
	if o.queryCacheSize < 0 {
		return o, fmt.Errorf("%w: query cache size %d", ErrInvalidArgument, o.queryCacheSize)
	}
	if o.queryParallelism < 1 {
		o.queryParallelism = 1
	}

	return o, nil
}
