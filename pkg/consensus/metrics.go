package consensus

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the engine's prometheus collectors, grounded on the
// teacher's go.mod dependency on github.com/prometheus/client_golang
// (present in the teacher's own manifest for a metrics server, unused by
// its committed consensus package) -- wired directly into the engine
// here instead.
type metrics struct {
	epochHeight     prometheus.Gauge
	txApplied       prometheus.Counter
	txRejected      *prometheus.CounterVec
	epochDuration   prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		epochHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mintfed",
			Subsystem: "consensus",
			Name:      "epoch_height",
			Help:      "Current committed epoch height.",
		}),
		txApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mintfed",
			Subsystem: "consensus",
			Name:      "transactions_applied_total",
			Help:      "Transactions successfully applied.",
		}),
		txRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mintfed",
			Subsystem: "consensus",
			Name:      "transactions_rejected_total",
			Help:      "Transactions rejected, by reason.",
		}, []string{"reason"}),
		epochDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mintfed",
			Subsystem: "consensus",
			Name:      "epoch_duration_seconds",
			Help:      "Wall-clock duration of one RunEpoch call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.epochHeight, m.txApplied, m.txRejected, m.epochDuration)
	}
	return m
}
