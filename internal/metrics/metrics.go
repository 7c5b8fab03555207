// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// check.MetricsRecorderとして確認パイプラインから利用する。
type Collector struct {
	checkSuccess *prometheus.CounterVec
	checkFail    *prometheus.CounterVec
	rowsMatched  prometheus.Counter
	checkLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checkSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seedman_check_success_total",
			Help: "確認処理成功の合計数（確認種別ごと）",
		}, []string{"check_type"}),
		checkFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seedman_check_fail_total",
			Help: "確認処理失敗の合計数（確認種別・失敗理由ごと）",
		}, []string{"check_type", "reason"}),
		rowsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seedman_rows_matched_total",
			Help: "確認で一致した期待行の合計数",
		}),
		checkLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seedman_check_latency_seconds",
			Help:    "確認パイプライン1回分のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.checkSuccess,
		c.checkFail,
		c.rowsMatched,
		c.checkLatency,
	)

	return c
}

// RecordCheckSuccess は確認処理の成功を記録する。
func (c *Collector) RecordCheckSuccess(checkType string) {
	c.checkSuccess.WithLabelValues(checkType).Inc()
}

// RecordCheckFailure は確認処理の失敗を記録する。
func (c *Collector) RecordCheckFailure(checkType string, reason string) {
	c.checkFail.WithLabelValues(checkType, reason).Inc()
}

// RecordRowsMatched は一致した期待行数を記録する。
func (c *Collector) RecordRowsMatched(count int) {
	c.rowsMatched.Add(float64(count))
}

// RecordCheckLatency は確認パイプラインのレイテンシを記録する。
func (c *Collector) RecordCheckLatency(duration time.Duration) {
	c.checkLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
