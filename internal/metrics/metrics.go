package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsByStatusDesc = prometheus.NewDesc(
		"pecommunity_content_requests",
		"Current number of content requests by status",
		[]string{"status"},
		nil,
	)

	requestEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pecommunity_content_request_events_total",
		Help: "Content request workflow transitions by event",
	}, []string{"event"})

	contentPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pecommunity_content_published_total",
		Help: "Content rows published by source",
	}, []string{"source"})

	uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pecommunity_uploads_total",
		Help: "File uploads to object storage by outcome",
	}, []string{"outcome"})

	realtimeDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pecommunity_realtime_dropped_total",
		Help: "Realtime events dropped for slow subscribers by table",
	}, []string{"table"})
)

// Workflow event labels.
const (
	EventSubmitted = "submitted"
	EventApproved  = "approved"
	EventRejected  = "rejected"

	SourceRequest = "request"
	SourceDirect  = "direct"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// StatusCounter reports request counts per status.
type StatusCounter interface {
	CountRequestsByStatus(ctx context.Context) (map[string]int64, error)
}

// RequestCollector is a custom Prometheus collector that reads request
// counts from the database on each scrape.
type RequestCollector struct {
	db StatusCounter
}

// NewRequestCollector creates a collector over db.
func NewRequestCollector(db StatusCounter) *RequestCollector {
	return &RequestCollector{db: db}
}

// Describe sends the metric descriptor to the channel.
func (c *RequestCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- requestsByStatusDesc
}

// Collect queries the database and emits one gauge per status.
func (c *RequestCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.db.CountRequestsByStatus(ctx)
	if err != nil {
		slog.Error("failed to collect content request metrics", "error", err)
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(requestsByStatusDesc, prometheus.GaugeValue, float64(n), status)
	}
}

var initOnce sync.Once

// Init registers the collectors with the default registry.
// Must be called once at startup.
func Init(db StatusCounter) {
	initOnce.Do(func() {
		prometheus.MustRegister(
			NewRequestCollector(db),
			requestEvents,
			contentPublished,
			uploads,
			realtimeDropped,
		)
	})
}

// RecordRequestEvent counts a workflow transition.
func RecordRequestEvent(event string) {
	requestEvents.WithLabelValues(event).Inc()
}

// RecordPublished counts a new content row.
func RecordPublished(source string) {
	contentPublished.WithLabelValues(source).Inc()
}

// RecordUpload counts an object storage upload.
func RecordUpload(outcome string) {
	uploads.WithLabelValues(outcome).Inc()
}

// RecordRealtimeDrop counts an event a slow subscriber missed.
func RecordRealtimeDrop(table string) {
	realtimeDropped.WithLabelValues(table).Inc()
}
