package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_pages_served_total",
		Help: "Rendered pages by view name.",
	}, []string{"view"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_index_cache_hits_total",
		Help: "Home feed responses served from cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_index_cache_misses_total",
		Help: "Home feed responses rendered and stored.",
	})
)
