/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics exposes Prometheus collectors for ledger, lease and
// accrual activity. A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const defaultNamespace = "miner"

type Collector struct {
	registry *prometheus.Registry

	ticks          prometheus.Counter
	tickDuration   prometheus.Histogram
	credits        prometheus.Counter
	creditFailures prometheus.Counter
	incomeTotal    prometheus.Counter

	rentals         prometheus.Counter
	rentalsRejected *prometheus.CounterVec
	rentSpent       prometheus.Counter

	reconcileFailures prometheus.Counter

	balance       prometheus.Gauge
	activeLeases  prometheus.Gauge
	engineRunning prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = defaultNamespace
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "accrual",
		Name:      "ticks_total",
		Help:      "Total number of accrual ticks evaluated.",
	})
	c.tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "accrual",
		Name:      "tick_duration_seconds",
		Help:      "Time taken to evaluate one accrual tick.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	})
	c.credits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "accrual",
		Name:      "credits_total",
		Help:      "Total number of committed income credits.",
	})
	c.creditFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "accrual",
		Name:      "credit_failures_total",
		Help:      "Total number of income credits that failed to commit and were deferred.",
	})
	c.incomeTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "accrual",
		Name:      "income_units_total",
		Help:      "Total income credited, in currency units.",
	})

	c.rentals = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "leases",
		Name:      "rentals_total",
		Help:      "Total number of accepted server rentals.",
	})
	c.rentalsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "leases",
		Name:      "rentals_rejected_total",
		Help:      "Total number of rejected server rentals.",
	}, []string{"reason"})
	c.rentSpent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "leases",
		Name:      "rent_units_total",
		Help:      "Total spent on rentals, in currency units.",
	})

	c.reconcileFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "reconcile_failures_total",
		Help:      "Total number of balance reconciliation mismatches.",
	})

	c.balance = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "balance_units",
		Help:      "Current account balance.",
	})
	c.activeLeases = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "leases",
		Name:      "active",
		Help:      "Number of leases that have not expired.",
	})
	c.engineRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "accrual",
		Name:      "running",
		Help:      "1 when the accrual engine is running, 0 otherwise.",
	})

	c.registry.MustRegister(
		c.ticks,
		c.tickDuration,
		c.credits,
		c.creditFailures,
		c.incomeTotal,
		c.rentals,
		c.rentalsRejected,
		c.rentSpent,
		c.reconcileFailures,
		c.balance,
		c.activeLeases,
		c.engineRunning,
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordTick(duration time.Duration) {
	if c == nil {
		return
	}
	c.ticks.Inc()
	c.tickDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordCredit(amount decimal.Decimal) {
	if c == nil {
		return
	}
	c.credits.Inc()
	c.incomeTotal.Add(amount.InexactFloat64())
}

func (c *Collector) RecordCreditFailure() {
	if c == nil {
		return
	}
	c.creditFailures.Inc()
}

func (c *Collector) RecordRental(price decimal.Decimal) {
	if c == nil {
		return
	}
	c.rentals.Inc()
	c.rentSpent.Add(price.InexactFloat64())
}

func (c *Collector) RecordRentalRejected(reason string) {
	if c == nil {
		return
	}
	c.rentalsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordReconcile(err error) {
	if c == nil || err == nil {
		return
	}
	c.reconcileFailures.Inc()
}

func (c *Collector) SetBalance(balance decimal.Decimal) {
	if c == nil {
		return
	}
	c.balance.Set(balance.InexactFloat64())
}

func (c *Collector) SetActiveLeases(n int) {
	if c == nil {
		return
	}
	c.activeLeases.Set(float64(n))
}

func (c *Collector) SetEngineRunning(running bool) {
	if c == nil {
		return
	}
	if running {
		c.engineRunning.Set(1)
		return
	}
	c.engineRunning.Set(0)
}
