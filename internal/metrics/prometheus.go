// Package metrics 提供仪表盘运行时指标采集、统计和输出功能
package metrics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/Humphrey-He/productdash/pkg/cache"
	"github.com/Humphrey-He/productdash/pkg/querycache"
)

const (
	// 默认的Prometheus指标前缀
	defaultMetricPrefix = "productdash"
)

// QuerySource 提供查询缓存计数器，dashboard.Manager 满足该接口
type QuerySource interface {
	CacheStats() querycache.Stats
}

// StoreSource 提供页面存储的统计信息，cache.ICache 满足该接口
type StoreSource interface {
	Stats(ctx context.Context) (*cache.Stats, error)
}

// PrometheusExporter 提供将仪表盘指标导出为Prometheus文本格式的功能
type PrometheusExporter struct {
	// 指标收集器引用
	metrics *Metrics

	// 可选的查询缓存和存储来源
	queries QuerySource
	store   StoreSource

	// 指标前缀
	prefix string

	// 缓存名称，用于标签
	cacheName string

	mu sync.Mutex
}

// NewPrometheusExporter 创建一个新的Prometheus导出器；queries 和 store 可以为nil
func NewPrometheusExporter(metrics *Metrics, cacheName string, queries QuerySource, store StoreSource) *PrometheusExporter {
	return &PrometheusExporter{
		metrics:   metrics,
		queries:   queries,
		store:     store,
		prefix:    defaultMetricPrefix,
		cacheName: cacheName,
	}
}

// SetPrefix 设置指标前缀
func (p *PrometheusExporter) SetPrefix(prefix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefix = prefix
}

// Export 导出Prometheus格式的指标
func (p *PrometheusExporter) Export(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	labels := fmt.Sprintf(`cache=%q`, p.cacheName)

	snapshot := p.metrics.GetSnapshot()
	p.addCounter(&buf, "loads_total", "Total number of page list calls", snapshot.Loads, labels)
	p.addCounter(&buf, "load_failures_total", "Total number of failed page list calls", snapshot.LoadFailures, labels)

	kinds := make([]string, 0, len(snapshot.Mutations))
	for kind := range snapshot.Mutations {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	p.header(&buf, "mutations_total", "Total number of mutation calls", "counter")
	for _, kind := range kinds {
		fmt.Fprintf(&buf, "%s_mutations_total{%s,kind=%q} %d\n", p.prefix, labels, kind, snapshot.Mutations[kind])
	}
	buf.WriteString("\n")
	p.header(&buf, "mutation_failures_total", "Total number of failed mutation calls", "counter")
	for _, kind := range kinds {
		fmt.Fprintf(&buf, "%s_mutation_failures_total{%s,kind=%q} %d\n", p.prefix, labels, kind, snapshot.MutationFailures[kind])
	}
	buf.WriteString("\n")

	if p.queries != nil {
		qs := p.queries.CacheStats()
		p.addCounter(&buf, "query_fetches_total", "Total number of loads started by the query cache", uint64(qs.Fetches), labels)
		p.addCounter(&buf, "query_joins_total", "Total number of callers that joined a running load", uint64(qs.Joins), labels)
		p.addCounter(&buf, "query_hits_total", "Total number of requests answered from the query cache", uint64(qs.Hits), labels)
		p.addCounter(&buf, "query_failures_total", "Total number of failed query cache loads", uint64(qs.Failures), labels)
		p.addCounter(&buf, "query_invalidations_total", "Total number of invalidated query keys", uint64(qs.Invalidations), labels)
	}

	if p.store != nil {
		ss, err := p.store.Stats(ctx)
		if err == nil && ss != nil {
			p.addCounter(&buf, "store_hits_total", "Total number of page store hits", uint64(ss.Hits), labels)
			p.addCounter(&buf, "store_misses_total", "Total number of page store misses", uint64(ss.Misses), labels)
			p.addCounter(&buf, "store_evictions_total", "Total number of page store evictions", uint64(ss.Evictions), labels)
			p.addGauge(&buf, "store_entries", "Number of pages in the store", float64(ss.EntryCount), labels)
			p.addGauge(&buf, "store_hit_ratio", "Page store hit ratio", ss.HitRatio(), labels)
		}
	}

	p.addGauge(&buf, "uptime_seconds", "Seconds since the collector started", snapshot.Uptime.Seconds(), labels)
	return buf.String()
}

func (p *PrometheusExporter) header(buf *bytes.Buffer, name, help, kind string) {
	metricName := fmt.Sprintf("%s_%s", p.prefix, name)
	fmt.Fprintf(buf, "# HELP %s %s\n", metricName, help)
	fmt.Fprintf(buf, "# TYPE %s %s\n", metricName, kind)
}

// addCounter 添加计数器类型指标
func (p *PrometheusExporter) addCounter(buf *bytes.Buffer, name, help string, value uint64, labels string) {
	p.header(buf, name, help, "counter")
	fmt.Fprintf(buf, "%s_%s{%s} %d\n\n", p.prefix, name, labels, value)
}

// addGauge 添加仪表类型指标
func (p *PrometheusExporter) addGauge(buf *bytes.Buffer, name, help string, value float64, labels string) {
	p.header(buf, name, help, "gauge")
	fmt.Fprintf(buf, "%s_%s{%s} %g\n\n", p.prefix, name, labels, value)
}

// ServeHTTP 实现http.Handler接口，用于提供Prometheus指标端点
func (p *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = w.Write([]byte(p.Export(r.Context())))
}
