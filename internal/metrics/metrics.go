// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 検索戦略とアクティビティサービスから利用される。
type Collector struct {
	searchAttempts    prometheus.Counter
	searchNoMatch     prometheus.Counter
	searchLatency     prometheus.Histogram
	activitiesSaved   prometheus.Counter
	activitiesIgnored prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		searchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asobi_search_attempts_total",
			Help: "レコメンドサービスへの検索試行の合計数",
		}),
		searchNoMatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asobi_search_no_match_total",
			Help: "リトライ予算を使い切った検索の合計数",
		}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "asobi_search_latency_seconds",
			Help:    "検索戦略全体のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		activitiesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asobi_activities_saved_total",
			Help: "保存されたアクティビティの合計数",
		}),
		activitiesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asobi_activities_ignored_total",
			Help: "非表示にされたアクティビティの合計数",
		}),
	}

	reg.MustRegister(
		c.searchAttempts,
		c.searchNoMatch,
		c.searchLatency,
		c.activitiesSaved,
		c.activitiesIgnored,
	)

	return c
}

// RecordSearchAttempt は検索試行1回を記録する。
func (c *Collector) RecordSearchAttempt() {
	c.searchAttempts.Inc()
}

// RecordSearchNoMatch はリトライ予算の使い切りを記録する。
func (c *Collector) RecordSearchNoMatch() {
	c.searchNoMatch.Inc()
}

// RecordSearchLatency は検索戦略全体のレイテンシを記録する。
func (c *Collector) RecordSearchLatency(duration time.Duration) {
	c.searchLatency.Observe(duration.Seconds())
}

// RecordActivitySaved はアクティビティの保存を記録する。
func (c *Collector) RecordActivitySaved() {
	c.activitiesSaved.Inc()
}

// RecordActivityIgnored はアクティビティの非表示を記録する。
func (c *Collector) RecordActivityIgnored() {
	c.activitiesIgnored.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
