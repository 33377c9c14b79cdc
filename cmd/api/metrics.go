package main

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ridesRequestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rydeiq",
			Subsystem: "rides",
			Name:      "requested_total",
			Help:      "Total ride requests accepted",
		},
		[]string{"category"},
	)

	bidsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rydeiq",
			Subsystem: "bids",
			Name:      "submitted_total",
			Help:      "Total bids accepted into ledgers",
		},
	)

	selectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rydeiq",
			Subsystem: "rides",
			Name:      "selections_total",
			Help:      "Selection attempts by outcome",
		},
		[]string{"outcome"},
	)

	windowExpiriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rydeiq",
			Subsystem: "rides",
			Name:      "window_expiries_total",
			Help:      "Bidding window expiries by outcome",
		},
		[]string{"outcome"},
	)
)

// prometheusMetrics implements the bidding service's metrics collector
type prometheusMetrics struct{}

func (prometheusMetrics) RecordRideRequested(category string) {
	ridesRequestedTotal.WithLabelValues(category).Inc()
}

func (prometheusMetrics) RecordBidSubmitted(_ uuid.UUID) {
	bidsSubmittedTotal.Inc()
}

func (prometheusMetrics) RecordSelection(outcome string) {
	selectionsTotal.WithLabelValues(outcome).Inc()
}

func (prometheusMetrics) RecordWindowExpiry(outcome string) {
	windowExpiriesTotal.WithLabelValues(outcome).Inc()
}
