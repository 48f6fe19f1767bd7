package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 互动引擎决策指标
	InteractionsTotal *prometheus.CounterVec // action, outcome
	DenialsTotal      *prometheus.CounterVec // action, reason
	SpamScore         prometheus.Histogram
}

// Default 全局收集器实例
var Default = NewCollector()

// NewCollector 创建指标收集器
func NewCollector() *Collector {
	return &Collector{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		InteractionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interactions_total",
				Help: "Interaction engine decisions by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		DenialsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interaction_denials_total",
				Help: "Denied interactions by action and reason",
			},
			[]string{"action", "reason"},
		),
		SpamScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "comment_spam_score",
				Help:    "Spam classifier score distribution for submitted comments",
				Buckets: []float64{0.1, 0.3, 0.5, 0.7, 0.9, 1.1, 1.5},
			},
		),
	}
}

// RecordInteraction 记录一次互动决策结果
func (c *Collector) RecordInteraction(action, outcome string) {
	c.InteractionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordDenial 记录一次拒绝及其原因
func (c *Collector) RecordDenial(action, reason string) {
	c.DenialsTotal.WithLabelValues(action, reason).Inc()
}
