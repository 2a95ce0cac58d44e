// Package metrics 定义 Prometheus 指标
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests HTTP 请求计数
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_chat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration HTTP 请求耗时
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "support_chat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// EventsPublished 事件发布结果
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_chat_events_published_total",
			Help: "Total number of realtime events handed to the broker",
		},
		[]string{"event", "result"},
	)

	// EventsDropped 被丢弃的事件
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_chat_events_dropped_total",
			Help: "Total number of realtime events dropped",
		},
		[]string{"reason"},
	)

	// EventsDelivered 投递到本机连接的事件
	EventsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_events_delivered_total",
			Help: "Total number of events written to local websocket buffers",
		},
	)

	// WsConnections 当前 WebSocket 连接数
	WsConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_chat_ws_connections",
			Help: "Number of currently open websocket connections",
		},
	)
)

// 事件丢弃原因
const (
	DropBrokerFull  = "broker_full"
	DropConnBuffer  = "conn_buffer_full"
	DropDecodeError = "decode_error"
)

// RecordPublish 记录一次事件发布
func RecordPublish(event string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(event, result).Inc()
}

// RecordDrop 记录一次事件丢弃
func RecordDrop(reason string) {
	EventsDropped.WithLabelValues(reason).Inc()
}

// GinMiddleware 记录 HTTP 请求指标，route 使用路由模板避免高基数
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
