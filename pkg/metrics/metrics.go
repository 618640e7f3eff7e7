// Package metrics 提供 Prometheus helper，包含 HTTP 与业务指标模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/leadmarket/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// 业务指标
	LeadsSubmittedTotal     prometheus.Counter
	LocksAcquiredTotal      prometheus.Counter
	LockConflictsTotal      prometheus.Counter
	PurchasesCompletedTotal prometheus.Counter
	CheckoutSessionsTotal   prometheus.Counter
	NotificationsSentTotal  prometheus.Counter
	LeadsAvailable          prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		LeadsSubmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "leads_submitted_total",
			Help:      "Total lead applications submitted",
		}),
		LocksAcquiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "locks_acquired_total",
			Help:      "Total lead locks acquired",
		}),
		LockConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "lock_conflicts_total",
			Help:      "Total lock attempts rejected because the lead was already locked",
		}),
		PurchasesCompletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "purchases_completed_total",
			Help:      "Total lead purchases completed",
		}),
		CheckoutSessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "checkout_sessions_total",
			Help:      "Total checkout sessions created",
		}),
		NotificationsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "notifications_sent_total",
			Help:      "Total notification emails sent",
		}),
		LeadsAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leadmarket",
			Subsystem: serviceName,
			Name:      "leads_available",
			Help:      "Number of leads currently visible in the marketplace",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.LeadsSubmittedTotal,
		m.LocksAcquiredTotal,
		m.LockConflictsTotal,
		m.PurchasesCompletedTotal,
		m.CheckoutSessionsTotal,
		m.NotificationsSentTotal,
		m.LeadsAvailable,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)
	return http.ListenAndServe(addr, nil)
}
