package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joemarket_transactions_total",
		Help: "Transactions executed against the chain, by method and outcome.",
	}, []string{"method", "status"})

	TransactionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "joemarket_transaction_duration_seconds",
		Help:    "Time spent executing a transaction, including commit or rollback.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	EventsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joemarket_events_emitted_total",
		Help: "Events persisted by committed transactions.",
	})

	ContractsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joemarket_contracts_created_total",
		Help: "Contracts deployed or created by committed transactions, by kind.",
	}, []string{"kind"})

	ContractsDestroyedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joemarket_contracts_destroyed_total",
		Help: "Contracts removed by self-destruct in committed transactions.",
	})
)
