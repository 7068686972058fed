package blockchain

import (
	"math"
	"time"

	"github.com/NethermindEth/blockvault/db"
	"github.com/prometheus/client_golang/prometheus"
)

// NewStoreMetrics returns a listener that records I/O latencies, in microseconds, under
// the given namespace and registers its collectors with reg.
func NewStoreMetrics(reg prometheus.Registerer, namespace string) (db.EventListener, error) {
	latencyBuckets := []float64{
		25,
		50,
		75,
		100,
		250,
		500,
		1000, // 1ms
		2000,
		3000,
		4000,
		5000,
		10000,
		50000,
		500000,
		math.Inf(0),
	}
	readLatencyHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "read_latency",
		Buckets:   latencyBuckets,
	})
	writeLatencyHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "write_latency",
		Buckets:   latencyBuckets,
	})
	syncLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_latency",
		Buckets: []float64{
			5000,
			10000,
			20000,
			30000,
			40000,
			50000,
			100000, // 100ms
			200000,
			300000,
			500000,
			1000000,
			math.Inf(0),
		},
	})

	for _, c := range []prometheus.Collector{readLatencyHistogram, writeLatencyHistogram, syncLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &db.SelectiveListener{
		OnIOCb: func(write bool, duration time.Duration) {
			if write {
				writeLatencyHistogram.Observe(float64(duration.Microseconds()))
			} else {
				readLatencyHistogram.Observe(float64(duration.Microseconds()))
			}
		},
		OnSyncCb: func(duration time.Duration) {
			syncLatency.Observe(float64(duration.Microseconds()))
		},
	}, nil
}
