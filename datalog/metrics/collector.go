// Package metrics exposes a fact database to Prometheus.
package metrics

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wbrown/janus-factdb/datalog/annotations"
	"github.com/wbrown/janus-factdb/datalog/factdb"
)

// Namespace prefixes every metric name
const Namespace = "factdb"

// Collector reports relation and index sizes of a Database at scrape time,
// plus traffic counters fed from annotation events.
//
// The traffic counters exist before the database does, so Handler can be
// installed in factdb.Options; Observe then attaches the built database.
type Collector struct {
	db atomic.Pointer[factdb.Database]

	facts   *prometheus.Desc
	indices *prometheus.Desc
	entries *prometheus.Desc

	inserted   *prometheus.CounterVec
	lookups    *prometheus.CounterVec
	violations *prometheus.CounterVec
}

// NewCollector creates a collector with no database attached
func NewCollector() *Collector {
	return &Collector{
		facts: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "relation", "facts"),
			"Distinct facts held by a relation.",
			[]string{"relation"}, nil),
		indices: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "relation", "indices"),
			"Indices materialized for a relation, including a synthesized master.",
			[]string{"relation"}, nil),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "index", "entries"),
			"Distinct entries held by one index.",
			[]string{"relation", "index", "pattern", "master"}, nil),
		inserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "facts_inserted_total",
			Help:      "New facts accepted by a relation.",
		}, []string{"relation"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lookups_total",
			Help:      "Index lookups served for a relation.",
		}, []string{"relation"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "contract_violations_total",
			Help:      "Rejected attempts to store non-facts or use malformed keys.",
		}, []string{"relation"}),
	}
}

// Observe attaches db; size gauges are reported for it from the next scrape
func (c *Collector) Observe(db *factdb.Database) {
	c.db.Store(db)
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.facts
	ch <- c.indices
	ch <- c.entries
	c.inserted.Describe(ch)
	c.lookups.Describe(ch)
	c.violations.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if db := c.db.Load(); db != nil {
		c.collectSizes(db, ch)
	}
	c.inserted.Collect(ch)
	c.lookups.Collect(ch)
	c.violations.Collect(ch)
}

func (c *Collector) collectSizes(db *factdb.Database, ch chan<- prometheus.Metric) {
	for _, sym := range db.Symbols() {
		name := sym.String()

		if count, err := db.CountDistinct(sym); err == nil {
			ch <- prometheus.MustNewConstMetric(c.facts, prometheus.GaugeValue, float64(count), name)
		}

		n, err := db.NumIndices(sym)
		if err != nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.indices, prometheus.GaugeValue, float64(n), name)

		for h := 0; h < n; h++ {
			info, err := db.IndexInfo(sym, h)
			if err != nil {
				continue
			}
			ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(info.Count),
				name, strconv.Itoa(h), info.Pattern.String(), strconv.FormatBool(info.Master))
		}
	}
}

// Handler returns an annotation handler that drives the traffic counters
func (c *Collector) Handler() annotations.Handler {
	return func(event annotations.Event) {
		relation, _ := event.Data["relation"].(string)
		switch event.Name {
		case annotations.FactsInserted:
			if n, ok := event.Data["facts.new"].(int); ok {
				c.inserted.WithLabelValues(relation).Add(float64(n))
			}
		case annotations.IndexLookup:
			c.lookups.WithLabelValues(relation).Inc()
		case annotations.ErrorContract:
			c.violations.WithLabelValues(relation).Inc()
		}
	}
}
