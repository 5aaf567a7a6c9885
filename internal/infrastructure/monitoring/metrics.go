package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	LoansCreatedTotal   prometheus.Counter
	PaymentsTotal       *prometheus.CounterVec
	ReversalsTotal      prometheus.Counter
	CashMovementsTotal  *prometheus.CounterVec
	OverdueInstallments prometheus.Gauge
	DelinquentCustomers prometheus.Gauge
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_loans_created_total",
				Help: "Total number of loan contracts created.",
			},
		),
		PaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_payments_total",
				Help: "Total number of installment payment attempts by outcome.",
			},
			[]string{"status"},
		),
		ReversalsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_reversals_total",
				Help: "Total number of installment settlements reversed.",
			},
		),
		CashMovementsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_cash_movements_total",
				Help: "Total number of treasury cash movements recorded by kind.",
			},
			[]string{"kind"},
		),
		OverdueInstallments: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lending_engine_overdue_installments",
				Help: "Number of installments currently overdue, refreshed by the overdue sweep.",
			},
		),
		DelinquentCustomers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lending_engine_delinquent_customers",
				Help: "Number of customers with at least one overdue installment.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordLoanCreated() {
	Business.LoansCreatedTotal.Inc()
}

func RecordPayment(status string) {
	Business.PaymentsTotal.WithLabelValues(status).Inc()
}

func RecordReversal() {
	Business.ReversalsTotal.Inc()
}

func RecordCashMovement(kind string) {
	Business.CashMovementsTotal.WithLabelValues(kind).Inc()
}

func SetOverdueInstallments(count int) {
	Business.OverdueInstallments.Set(float64(count))
}

func SetDelinquentCustomers(count int) {
	Business.DelinquentCustomers.Set(float64(count))
}
