package docstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamespace = "docstore"

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "identity_cache_hits_total",
		Help:      "Identity cache lookups that returned a live handle",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "identity_cache_misses_total",
		Help:      "Identity cache lookups that found no live handle",
	})

	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "identity_cache_evictions_total",
		Help:      "Explicit identity cache evictions after committed deletes",
	})

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "fetches_total",
		Help:      "Fetch pipeline invocations",
	}, []string{"policy"})

	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "batch_commits_total",
		Help:      "Write batch commits",
	}, []string{"status"}) // status: ok or error
)
