// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// プレビューパイプラインとHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordCaptureLatency(d time.Duration)
	RecordLaunchFailure()
	RecordUploadFailure()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cacheHit       prometheus.Counter
	cacheMiss      prometheus.Counter
	captureLatency prometheus.Histogram
	launchFail     prometheus.Counter
	uploadFail     prometheus.Counter
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportboxd_preview_cache_hit_total",
			Help: "既存アーティファクトを返したプレビュー要求の合計数",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportboxd_preview_cache_miss_total",
			Help: "新規生成が必要だったプレビュー要求の合計数",
		}),
		captureLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sportboxd_preview_capture_latency_seconds",
			Help:    "スクリーンショット取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		launchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportboxd_browser_launch_fail_total",
			Help: "ヘッドレスブラウザ起動失敗の合計数",
		}),
		uploadFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sportboxd_artifact_upload_fail_total",
			Help: "アーティファクトのアップロード失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sportboxd_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.cacheHit,
		c.cacheMiss,
		c.captureLatency,
		c.launchFail,
		c.uploadFail,
		c.httpStatus,
	)

	return c
}

// RecordCacheHit は既存アーティファクトの再利用を記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHit.Inc()
}

// RecordCacheMiss は新規生成の開始を記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMiss.Inc()
}

// RecordCaptureLatency はスクリーンショット取得のレイテンシを記録する。
func (c *Collector) RecordCaptureLatency(d time.Duration) {
	c.captureLatency.Observe(d.Seconds())
}

// RecordLaunchFailure はブラウザ起動失敗を記録する。
func (c *Collector) RecordLaunchFailure() {
	c.launchFail.Inc()
}

// RecordUploadFailure はアップロード失敗を記録する。
func (c *Collector) RecordUploadFailure() {
	c.uploadFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
