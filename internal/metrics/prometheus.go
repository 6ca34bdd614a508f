package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics invwe-data 的 Prometheus 指标；方法对 nil 接收者安全
type Metrics struct {
	// 访问决策
	AccessDecisions  *prometheus.CounterVec
	AccessLookupErrs *prometheus.CounterVec

	// 库存
	StockClassified *prometheus.CounterVec
	StockAlertsSent prometheus.Counter

	// HTTP 请求耗时
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics 创建指标并注册到 reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AccessDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invwe_access_decisions_total",
				Help: "Total number of tenant access decisions by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		AccessLookupErrs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invwe_access_lookup_errors_total",
				Help: "Total number of failed tenant/membership/store lookups",
			},
			[]string{"lookup"},
		),
		StockClassified: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invwe_stock_classified_total",
				Help: "Total number of products classified by stock status",
			},
			[]string{"status"},
		),
		StockAlertsSent: f.NewCounter(
			prometheus.CounterOpts{
				Name: "invwe_stock_alerts_sent_total",
				Help: "Total number of low stock alerts published",
			},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invwe_http_request_duration_seconds",
				Help:    "Duration of HTTP request processing",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
	}
}

// ObserveDecision 按 kind/reason 计数
func (m *Metrics) ObserveDecision(kind, reason string) {
	if m == nil {
		return
	}
	m.AccessDecisions.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) ObserveLookupError(lookup string) {
	if m == nil {
		return
	}
	m.AccessLookupErrs.WithLabelValues(lookup).Inc()
}

func (m *Metrics) ObserveStock(status string) {
	if m == nil {
		return
	}
	m.StockClassified.WithLabelValues(status).Inc()
}

// ObserveAlertsSent n<=0 时忽略
func (m *Metrics) ObserveAlertsSent(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StockAlertsSent.Add(float64(n))
}

func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}
