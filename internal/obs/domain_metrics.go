package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationsTotal counts cart pipeline operations by outcome.
	CartMutationsTotal *prometheus.CounterVec
	// CartPipelineDuration records pipeline latency in milliseconds.
	CartPipelineDuration *prometheus.HistogramVec
	// RuleApplicationsTotal counts discount rule evaluations.
	RuleApplicationsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers the checkout collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart pipeline operations by outcome.",
		}, []string{"operation", "result"}))
		CartPipelineDuration = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_pipeline_duration_ms",
			Help:      "Latency of cart pipeline operations in milliseconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		}, []string{"operation"}))
		RuleApplicationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_rule_applications_total",
			Help:      "Count of discount rule evaluations by outcome.",
		}, []string{"rule", "outcome"}))
	})
}

// RecordCartMutation observes one pipeline operation. No-op until registered.
func RecordCartMutation(operation, result string, elapsed time.Duration) {
	if CartMutationsTotal != nil {
		CartMutationsTotal.WithLabelValues(operation, result).Inc()
	}
	if CartPipelineDuration != nil {
		CartPipelineDuration.WithLabelValues(operation).Observe(DurationMillis(elapsed))
	}
}

// RecordRuleApplication counts one rule evaluation. No-op until registered.
func RecordRuleApplication(rule, outcome string) {
	if RuleApplicationsTotal != nil {
		RuleApplicationsTotal.WithLabelValues(rule, outcome).Inc()
	}
}
