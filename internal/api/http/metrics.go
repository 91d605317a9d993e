package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendhub_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lendhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	reservationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lendhub_reservations_created_total",
			Help: "Reservations created through the API.",
		},
	)
	capacityRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lendhub_capacity_rejections_total",
			Help: "Reservation batches rejected for insufficient capacity.",
		},
	)
)
