// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// API呼び出し、セッション遷移、楽観的更新の巻き戻しを記録する。
type Collector struct {
	registry *prometheus.Registry

	apiRequests         *prometheus.CounterVec
	apiLatency          prometheus.Histogram
	sessionTransitions  *prometheus.CounterVec
	optimisticRollbacks *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、専用レジストリにメトリクスを登録する。
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "internlink_api_requests_total",
			Help: "エンドポイントとHTTPステータス別のAPI呼び出し数",
		}, []string{"endpoint", "status_code"}),
		apiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "internlink_api_request_latency_seconds",
			Help:    "API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "internlink_session_transitions_total",
			Help: "遷移先状態別のセッション遷移数",
		}, []string{"to"}),
		optimisticRollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "internlink_optimistic_rollbacks_total",
			Help: "種別ごとの楽観的更新の巻き戻し数",
		}, []string{"kind"}),
	}

	c.registry.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.sessionTransitions,
		c.optimisticRollbacks,
	)

	return c
}

// RecordAPIRequest はAPI呼び出し1回を記録する。
// statusCodeが0の場合はトランスポートレベルの失敗を意味する。
func (c *Collector) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	c.apiRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.apiLatency.Observe(duration.Seconds())
}

// RecordSessionTransition はセッション状態遷移を記録する。
func (c *Collector) RecordSessionTransition(to string) {
	c.sessionTransitions.WithLabelValues(to).Inc()
}

// RecordOptimisticRollback は楽観的更新の巻き戻しを記録する。
func (c *Collector) RecordOptimisticRollback(kind string) {
	c.optimisticRollbacks.WithLabelValues(kind).Inc()
}

// Handler はメトリクス公開用のHTTPハンドラを返す。
// ローカルデバッグ用リスナーにのみぶら下げることを想定している。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
