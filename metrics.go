// Copyright 2026 The cfimageworker authors.
// SPDX-License-Identifier: Apache-2.0

package cfimageworker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	missingTargetCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "requests_missing_target",
			Help: "Number of requests rejected for lacking a url parameter.",
		})
	forbiddenOriginCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "requests_forbidden_origin",
		Help: "Number of requests rejected by the allowed origin policy.",
	})
	invalidOptionCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "requests_invalid_option",
		Help: "Number of requests rejected for malformed transformation options.",
	})
	delegateErrorCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delegate_fetch_errors",
		Help: "Total delegated fetch/transform failures",
	})
	httpRequestsResponseTime = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "http",
		Name:      "response_time_seconds",
		Help:      "Request response times",
	})
)

func init() {
	prometheus.MustRegister(missingTargetCount)
	prometheus.MustRegister(forbiddenOriginCount)
	prometheus.MustRegister(invalidOptionCount)
	prometheus.MustRegister(delegateErrorCount)
	prometheus.MustRegister(httpRequestsResponseTime)
}
