// Package metrics defines the Prometheus collectors for the reconciliation
// service. Counters are registered on the default registry and exposed on
// /metrics by the admin API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StatementsIngested counts statement rows created by the poller.
	StatementsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_statements_ingested_total",
		Help: "Number of bank statements ingested from the provider.",
	})

	// ProviderRequests counts statement API calls by outcome.
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_provider_requests_total",
		Help: "Number of statement requests made to the provider, by outcome.",
	}, []string{"outcome"})

	// PaychecksMatched counts paychecks settled by the matcher.
	PaychecksMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_paychecks_matched_total",
		Help: "Number of paychecks marked paid by the statement matcher.",
	})

	// MatchAnomalies counts statements the matcher could not settle, by reason.
	MatchAnomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_match_anomalies_total",
		Help: "Number of statements that produced no settlement, by reason.",
	}, []string{"reason"})

	// PaychecksIssued counts paychecks created by the group fan-out.
	PaychecksIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_paychecks_issued_total",
		Help: "Number of paychecks issued by the group payment fan-out.",
	})
)

// Anomaly reasons recorded in MatchAnomalies.
const (
	AnomalyNoToken          = "no_token"
	AnomalyPaycheckNotFound = "paycheck_not_found"
	AnomalyAlreadyPaid      = "already_paid"
)
