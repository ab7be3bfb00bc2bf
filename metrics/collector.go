// Package metrics aggregates latency and outcome statistics for HTTP
// exchanges using HDR histograms.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Result describes one completed exchange.
type Result struct {
	// Status is the HTTP status code, or 0 when the exchange failed
	// before a response arrived
	Status int

	// Latency is the exchange duration
	Latency time.Duration

	// Err is the transport-level failure, if any. Responses with 4xx or
	// 5xx status codes are completed exchanges, not failures.
	Err error
}

// Config bounds the latency histogram.
type Config struct {
	// HistogramMin is the minimum recordable value in microseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds (default: 1 hour)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultConfig returns the default histogram configuration.
func DefaultConfig() Config {
	return Config{
		HistogramMin:     1,
		HistogramMax:     3600000000,
		HistogramSigFigs: 3,
	}
}

// Collector aggregates exchange outcomes. It is attached to a client at
// build time and fed by the send path.
//
// Collector is safe for concurrent use: counters use atomic operations
// and the histogram is mutex protected, matching the thread-safety
// requirements of HDR histogram recording.
type Collector struct {
	histMu sync.Mutex
	hist   *hdrhistogram.Histogram

	total    atomic.Int64
	failed   atomic.Int64
	statusMu sync.Mutex
	statuses map[int]int64

	startTime time.Time
	config    Config
}

// NewCollector creates a collector with the default configuration.
func NewCollector() *Collector {
	return NewCollectorWithConfig(DefaultConfig())
}

// NewCollectorWithConfig creates a collector with a custom histogram
// configuration.
func NewCollectorWithConfig(config Config) *Collector {
	return &Collector{
		hist:      hdrhistogram.New(config.HistogramMin, config.HistogramMax, config.HistogramSigFigs),
		statuses:  make(map[int]int64),
		startTime: time.Now(),
		config:    config,
	}
}

// Record adds one exchange outcome. Latencies are recorded for both
// completed and failed exchanges.
func (c *Collector) Record(r Result) {
	latencyMicros := r.Latency.Microseconds()
	if latencyMicros < c.config.HistogramMin {
		latencyMicros = c.config.HistogramMin
	}
	if latencyMicros > c.config.HistogramMax {
		latencyMicros = c.config.HistogramMax
	}

	c.histMu.Lock()
	c.hist.RecordValue(latencyMicros)
	c.histMu.Unlock()

	c.total.Add(1)
	if r.Err != nil {
		c.failed.Add(1)
		return
	}

	c.statusMu.Lock()
	c.statuses[r.Status]++
	c.statusMu.Unlock()
}

// Snapshot returns a point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.histMu.Lock()
	latency := LatencyStats{
		Min:    time.Duration(c.hist.Min()) * time.Microsecond,
		Max:    time.Duration(c.hist.Max()) * time.Microsecond,
		Mean:   time.Duration(c.hist.Mean()) * time.Microsecond,
		StdDev: time.Duration(c.hist.StdDev()) * time.Microsecond,
		P50:    time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond,
		P90:    time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond,
		P95:    time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond,
		Count:  c.hist.TotalCount(),
	}
	c.histMu.Unlock()

	c.statusMu.Lock()
	statuses := make(map[int]int64, len(c.statuses))
	for code, count := range c.statuses {
		statuses[code] = count
	}
	c.statusMu.Unlock()

	total := c.total.Load()
	failed := c.failed.Load()

	errorRate := 0.0
	if total > 0 {
		errorRate = float64(failed) / float64(total)
	}

	elapsed := time.Since(c.startTime)
	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(total) / elapsed.Seconds()
	}

	return Snapshot{
		Total:        total,
		Failed:       failed,
		ErrorRate:    errorRate,
		RPS:          rps,
		Latency:      latency,
		StatusCounts: statuses,
		StartTime:    c.startTime,
		Elapsed:      elapsed,
		Timestamp:    time.Now(),
	}
}

// Reset clears all recorded data and restarts the elapsed clock.
func (c *Collector) Reset() {
	c.histMu.Lock()
	c.hist.Reset()
	c.histMu.Unlock()

	c.statusMu.Lock()
	c.statuses = make(map[int]int64)
	c.statusMu.Unlock()

	c.total.Store(0)
	c.failed.Store(0)
	c.startTime = time.Now()
}

// Snapshot contains a point-in-time view of all metrics.
type Snapshot struct {
	Total        int64         `json:"total"`
	Failed       int64         `json:"failed"`
	ErrorRate    float64       `json:"errorRate"`
	RPS          float64       `json:"rps"`
	Latency      LatencyStats  `json:"latency"`
	StatusCounts map[int]int64 `json:"statusCounts"`
	StartTime    time.Time     `json:"startTime"`
	Elapsed      time.Duration `json:"elapsed"`
	Timestamp    time.Time     `json:"timestamp"`
}

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`
	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Count  int64         `json:"count"`
}
